package service

import (
	"context"
	"testing"

	"whatnow/internal/model"
	"whatnow/internal/points"
	"whatnow/internal/repository"
)

func newSettlementFixture(t *testing.T, dbName string) (*SettlementService, *repository.TaskRepository, *repository.ProfileRepository, *repository.CompletionRepository) {
	t.Helper()
	db := newTestDB(t, dbName)
	taskRepo := repository.NewTaskRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	return NewSettlementService(taskRepo, profileRepo, completionRepo), taskRepo, profileRepo, completionRepo
}

func TestCompleteSettlesAllAggregates(t *testing.T) {
	svc, taskRepo, profileRepo, completionRepo := newSettlementFixture(t, "settle_aggregates")
	ctx := context.Background()

	profile, err := profileRepo.UpsertFromTelegram(ctx, 100, "Sam", points.RankForPoints(0))
	if err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	task := &model.Task{UserID: profile.ID, Name: "Do laundry", Type: "Chores", Time: 15, Energy: model.LevelLow, Social: model.LevelLow}
	if err := taskRepo.Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	spent := 12.5
	updated, err := svc.Complete(ctx, profile.ID, task, 20, &spent)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if updated.TotalPoints != 20 {
		t.Errorf("TotalPoints = %d, want 20", updated.TotalPoints)
	}
	if updated.TotalTasksCompleted != 1 {
		t.Errorf("TotalTasksCompleted = %d, want 1", updated.TotalTasksCompleted)
	}
	if updated.TotalTimeSpent != 12.5 {
		t.Errorf("TotalTimeSpent = %v, want 12.5", updated.TotalTimeSpent)
	}
	if updated.CurrentRank != "Task Newbie" {
		t.Errorf("CurrentRank = %q, want Task Newbie", updated.CurrentRank)
	}

	stored, err := profileRepo.FindByID(ctx, profile.ID)
	if err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if stored.TotalPoints != updated.TotalPoints || stored.TotalTimeSpent != updated.TotalTimeSpent {
		t.Errorf("stored profile %+v does not match returned %+v", stored, updated)
	}

	reloaded, err := taskRepo.FindByID(ctx, profile.ID, task.ID)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if reloaded.TimesCompleted != 1 {
		t.Errorf("TimesCompleted = %d, want 1", reloaded.TimesCompleted)
	}
	if reloaded.PointsEarned != 20 {
		t.Errorf("PointsEarned = %d, want 20", reloaded.PointsEarned)
	}

	recs, err := completionRepo.ListRecentByUser(ctx, profile.ID, 10)
	if err != nil {
		t.Fatalf("list completions: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d completion records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.TaskName != "Do laundry" || rec.Points != 20 {
		t.Errorf("record = %q/%d pts, want Do laundry/20", rec.TaskName, rec.Points)
	}
	if rec.TimeSpent == nil || *rec.TimeSpent != 12.5 {
		t.Errorf("record TimeSpent = %v, want 12.5", rec.TimeSpent)
	}
}

func TestCompleteFallsBackToNominalTime(t *testing.T) {
	svc, taskRepo, profileRepo, _ := newSettlementFixture(t, "settle_nominal")
	ctx := context.Background()

	profile, err := profileRepo.UpsertFromTelegram(ctx, 101, "Robin", points.RankForPoints(0))
	if err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	task := &model.Task{UserID: profile.ID, Name: "Stretch", Type: "Health", Time: 30, Energy: model.LevelMedium, Social: model.LevelLow}
	if err := taskRepo.Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	updated, err := svc.Complete(ctx, profile.ID, task, 25, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if updated.TotalTimeSpent != 30 {
		t.Errorf("TotalTimeSpent = %v, want nominal 30", updated.TotalTimeSpent)
	}
}

func TestCompleteWritesAwardedPointsAsIs(t *testing.T) {
	// Points come from accept time and must not be recomputed from the
	// task's current attributes.
	svc, taskRepo, profileRepo, completionRepo := newSettlementFixture(t, "settle_awarded")
	ctx := context.Background()

	profile, err := profileRepo.UpsertFromTelegram(ctx, 102, "Alex", points.RankForPoints(0))
	if err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	task := &model.Task{UserID: profile.ID, Name: "Deep work", Type: "Work", Time: 60, Energy: model.LevelHigh, Social: model.LevelHigh}
	if err := taskRepo.Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	updated, err := svc.Complete(ctx, profile.ID, task, 15, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if updated.TotalPoints != 15 {
		t.Errorf("TotalPoints = %d, want the 15 passed in", updated.TotalPoints)
	}
	recs, err := completionRepo.ListRecentByUser(ctx, profile.ID, 1)
	if err != nil || len(recs) != 1 {
		t.Fatalf("list completions: %v (%d records)", err, len(recs))
	}
	if recs[0].Points != 15 {
		t.Errorf("record Points = %d, want 15", recs[0].Points)
	}
}

func TestCompletePromotesRankAcrossThreshold(t *testing.T) {
	svc, taskRepo, profileRepo, _ := newSettlementFixture(t, "settle_rank")
	ctx := context.Background()

	profile, err := profileRepo.UpsertFromTelegram(ctx, 103, "Kim", points.RankForPoints(0))
	if err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	task := &model.Task{UserID: profile.ID, Name: "Errands", Type: "Errand", Time: 15, Energy: model.LevelLow, Social: model.LevelLow}
	if err := taskRepo.Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	first, err := svc.Complete(ctx, profile.ID, task, 90, nil)
	if err != nil {
		t.Fatalf("first Complete: %v", err)
	}
	if first.CurrentRank != "Task Newbie" {
		t.Errorf("rank after 90 pts = %q, want Task Newbie", first.CurrentRank)
	}

	second, err := svc.Complete(ctx, profile.ID, task, 20, nil)
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if second.TotalPoints != 110 {
		t.Errorf("TotalPoints = %d, want 110", second.TotalPoints)
	}
	if second.CurrentRank != "Task Apprentice" {
		t.Errorf("rank after 110 pts = %q, want Task Apprentice", second.CurrentRank)
	}
}
