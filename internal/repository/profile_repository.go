package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"whatnow/internal/model"
)

// ProfileRepository handles per-user aggregates.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// UpsertFromTelegram finds or creates a profile for the Telegram account
// and keeps the display name current.
func (r *ProfileRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, displayName, initialRank string) (*model.Profile, error) {
	var profile model.Profile
	db := r.db.WithContext(ctx)
	err := db.Where("telegram_id = ?", telegramID).First(&profile).Error
	switch {
	case err == nil:
		if displayName != "" && profile.DisplayName == "" {
			if err := db.Model(&profile).Update("display_name", displayName).Error; err != nil {
				return nil, fmt.Errorf("update profile: %w", err)
			}
			profile.DisplayName = displayName
		}
		return &profile, nil
	case err == gorm.ErrRecordNotFound:
		profile = model.Profile{
			TelegramID:  telegramID,
			DisplayName: displayName,
			CurrentRank: initialRank,
		}
		if err := db.Create(&profile).Error; err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		return &profile, nil
	default:
		return nil, fmt.Errorf("find profile: %w", err)
	}
}

func (r *ProfileRepository) FindByID(ctx context.Context, id uint) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) ListAll(ctx context.Context) ([]model.Profile, error) {
	var profiles []model.Profile
	if err := r.db.WithContext(ctx).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *ProfileRepository) UpdateDisplayName(ctx context.Context, id uint, name string) error {
	if err := r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("id = ?", id).
		Update("display_name", name).Error; err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	return nil
}

// ApplyCompletion folds one settled task into the lifetime aggregates and
// stores the recomputed rank.
func (r *ProfileRepository) ApplyCompletion(ctx context.Context, id uint, awardedPoints int, timeSpent float64, newRank string) error {
	if err := r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"total_points":          gorm.Expr("total_points + ?", awardedPoints),
			"total_tasks_completed": gorm.Expr("total_tasks_completed + 1"),
			"total_time_spent":      gorm.Expr("total_time_spent + ?", timeSpent),
			"current_rank":          newRank,
		}).Error; err != nil {
		return fmt.Errorf("apply completion: %w", err)
	}
	return nil
}
