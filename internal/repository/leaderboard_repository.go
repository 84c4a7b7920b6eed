package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"whatnow/internal/model"
)

// LeaderboardRepository stores the materialized weekly standings.
type LeaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// Replace swaps the whole table for a freshly computed set of entries.
// The refresh job rebuilds every group at once, so a full replace keeps
// stale rows from previous weeks out.
func (r *LeaderboardRepository) Replace(ctx context.Context, entries []model.WeeklyLeaderboardEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.WeeklyLeaderboardEntry{}).Error; err != nil {
			return fmt.Errorf("clear leaderboard: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		if err := tx.Create(&entries).Error; err != nil {
			return fmt.Errorf("insert leaderboard: %w", err)
		}
		return nil
	})
}

// ListByGroup returns the standings for one group, best first.
func (r *LeaderboardRepository) ListByGroup(ctx context.Context, groupID uint) ([]model.WeeklyLeaderboardEntry, error) {
	var entries []model.WeeklyLeaderboardEntry
	if err := r.db.WithContext(ctx).Where("group_id = ?", groupID).
		Order("weekly_points DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
