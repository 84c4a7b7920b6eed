package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"whatnow/internal/model"
)

// CompletionRepository appends and reads the immutable completion log.
// Records are never updated or deleted.
type CompletionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

func (r *CompletionRepository) Insert(ctx context.Context, rec *model.CompletedTask) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

func (r *CompletionRepository) ListRecentByUser(ctx context.Context, userID uint, limit int) ([]model.CompletedTask, error) {
	var recs []model.CompletedTask
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// UserWeekTotal holds points and completions accumulated by one user
// since a cutoff, used for the weekly leaderboard and digests.
type UserWeekTotal struct {
	UserID uint
	Points int
	Tasks  int
}

// TotalsSince aggregates completions per user from the cutoff onward.
func (r *CompletionRepository) TotalsSince(ctx context.Context, since time.Time) ([]UserWeekTotal, error) {
	var totals []UserWeekTotal
	if err := r.db.WithContext(ctx).Model(&model.CompletedTask{}).
		Select("user_id, SUM(points) AS points, COUNT(*) AS tasks").
		Where("completed_at >= ?", since).
		Group("user_id").
		Scan(&totals).Error; err != nil {
		return nil, fmt.Errorf("weekly totals: %w", err)
	}
	return totals, nil
}

// TotalInRange aggregates one user's completions in [from, to), used for
// the week-in-review digest.
func (r *CompletionRepository) TotalInRange(ctx context.Context, userID uint, from, to time.Time) (UserWeekTotal, error) {
	total := UserWeekTotal{UserID: userID}
	if err := r.db.WithContext(ctx).Model(&model.CompletedTask{}).
		Select("user_id, COALESCE(SUM(points), 0) AS points, COUNT(*) AS tasks").
		Where("user_id = ? AND completed_at >= ? AND completed_at < ?", userID, from, to).
		Group("user_id").
		Scan(&total).Error; err != nil {
		return total, fmt.Errorf("range total: %w", err)
	}
	return total, nil
}

// TotalSinceForUser aggregates one user's completions from the cutoff onward.
func (r *CompletionRepository) TotalSinceForUser(ctx context.Context, userID uint, since time.Time) (UserWeekTotal, error) {
	total := UserWeekTotal{UserID: userID}
	if err := r.db.WithContext(ctx).Model(&model.CompletedTask{}).
		Select("user_id, COALESCE(SUM(points), 0) AS points, COUNT(*) AS tasks").
		Where("user_id = ? AND completed_at >= ?", userID, since).
		Group("user_id").
		Scan(&total).Error; err != nil {
		return total, fmt.Errorf("weekly total: %w", err)
	}
	return total, nil
}
