package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"whatnow/internal/model"
)

// TaskRepository handles CRUD and counter updates for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// CreateBatch inserts imported tasks in one statement.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&tasks).Error; err != nil {
		return fmt.Errorf("create tasks: %w", err)
	}
	return nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).
		Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// IncrementShown bumps times_shown by one. Counters only grow, so the
// increment runs in SQL rather than read-modify-write.
func (r *TaskRepository) IncrementShown(ctx context.Context, userID, taskID uint) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ?", userID, taskID).
		UpdateColumn("times_shown", gorm.Expr("times_shown + 1")).Error; err != nil {
		return fmt.Errorf("increment shown: %w", err)
	}
	return nil
}

// IncrementSkipped bumps times_skipped by one.
func (r *TaskRepository) IncrementSkipped(ctx context.Context, userID, taskID uint) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ?", userID, taskID).
		UpdateColumn("times_skipped", gorm.Expr("times_skipped + 1")).Error; err != nil {
		return fmt.Errorf("increment skipped: %w", err)
	}
	return nil
}

// ApplyCompletion bumps the completion counters by the awarded points.
func (r *TaskRepository) ApplyCompletion(ctx context.Context, userID, taskID uint, awardedPoints int) error {
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ?", userID, taskID).
		UpdateColumns(map[string]interface{}{
			"times_completed": gorm.Expr("times_completed + 1"),
			"points_earned":   gorm.Expr("points_earned + ?", awardedPoints),
		}).Error; err != nil {
		return fmt.Errorf("apply completion: %w", err)
	}
	return nil
}
