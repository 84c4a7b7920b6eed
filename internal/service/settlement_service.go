package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"whatnow/internal/model"
	"whatnow/internal/points"
	"whatnow/internal/repository"
)

// SettlementService finalizes a completed task into persistent aggregates:
// one completion record, task counters, profile totals, and the recomputed
// rank. The four steps run as a sequential best-effort chain with no
// rollback; a mid-chain failure leaves earlier steps applied and is
// reported to the caller, who should still let the user proceed.
type SettlementService struct {
	taskRepo       *repository.TaskRepository
	profileRepo    *repository.ProfileRepository
	completionRepo *repository.CompletionRepository
}

func NewSettlementService(taskRepo *repository.TaskRepository, profileRepo *repository.ProfileRepository, completionRepo *repository.CompletionRepository) *SettlementService {
	return &SettlementService{
		taskRepo:       taskRepo,
		profileRepo:    profileRepo,
		completionRepo: completionRepo,
	}
}

// Complete settles one finished task session. awardedPoints is the value
// computed when the task was accepted and is written as-is, never
// recomputed from the task's current attributes. timeSpent is the measured
// elapsed minutes, or nil when unmeasured; profile time aggregation then
// falls back to the task's nominal estimate.
func (s *SettlementService) Complete(ctx context.Context, profileID uint, task *model.Task, awardedPoints int, timeSpent *float64) (*model.Profile, error) {
	rec := model.CompletedTask{
		UserID:      profileID,
		TaskName:    task.Name,
		TaskType:    task.Type,
		TaskTime:    task.Time,
		TaskSocial:  task.Social,
		TaskEnergy:  task.Energy,
		Points:      awardedPoints,
		TimeSpent:   timeSpent,
		CompletedAt: time.Now(),
	}
	if err := s.completionRepo.Insert(ctx, &rec); err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}

	if err := s.taskRepo.ApplyCompletion(ctx, task.UserID, task.ID, awardedPoints); err != nil {
		// Record already written; keep going but surface the drift.
		log.Printf("settle: task counters not updated for task=%d: %v", task.ID, err)
		return nil, fmt.Errorf("settle task counters: %w", err)
	}

	profile, err := s.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		log.Printf("settle: profile read failed for profile=%d: %v", profileID, err)
		return nil, fmt.Errorf("settle profile read: %w", err)
	}

	resolved := float64(task.Time)
	if timeSpent != nil {
		resolved = *timeSpent
	}
	newTotal := profile.TotalPoints + awardedPoints
	newRank := points.RankForPoints(newTotal)
	if err := s.profileRepo.ApplyCompletion(ctx, profile.ID, awardedPoints, resolved, newRank); err != nil {
		log.Printf("settle: profile update failed for profile=%d: %v", profileID, err)
		return nil, fmt.Errorf("settle profile update: %w", err)
	}

	profile.TotalPoints = newTotal
	profile.TotalTasksCompleted++
	profile.TotalTimeSpent += resolved
	profile.CurrentRank = newRank
	return profile, nil
}
