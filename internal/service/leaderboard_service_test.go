package service

import (
	"context"
	"testing"
	"time"

	"whatnow/internal/model"
	"whatnow/internal/points"
	"whatnow/internal/repository"
)

func TestWeekStart(t *testing.T) {
	loc := time.UTC
	monday := time.Date(2026, time.August, 24, 0, 0, 0, 0, loc)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"midweek", time.Date(2026, time.August, 26, 14, 30, 0, 0, loc), monday},
		{"monday itself", time.Date(2026, time.August, 24, 23, 59, 0, 0, loc), monday},
		{"sunday belongs to the running week", time.Date(2026, time.August, 30, 10, 0, 0, 0, loc), monday},
		{"next monday starts fresh", time.Date(2026, time.August, 31, 0, 0, 0, 0, loc), monday.AddDate(0, 0, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekStart(tt.in); !got.Equal(tt.want) {
				t.Errorf("WeekStart(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRefreshBuildsWeeklyStandings(t *testing.T) {
	db := newTestDB(t, "leaderboard_refresh")
	ctx := context.Background()

	profileRepo := repository.NewProfileRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	groupSvc := NewGroupService(groupRepo)
	svc := NewLeaderboardService(groupRepo, profileRepo, completionRepo, leaderboardRepo)

	alice, err := profileRepo.UpsertFromTelegram(ctx, 300, "Alice", points.RankForPoints(0))
	if err != nil {
		t.Fatalf("upsert alice: %v", err)
	}
	bob, err := profileRepo.UpsertFromTelegram(ctx, 301, "Bob", points.RankForPoints(0))
	if err != nil {
		t.Fatalf("upsert bob: %v", err)
	}

	group, err := groupSvc.CreateGroup(ctx, alice, "Crew", "")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := groupSvc.JoinByCode(ctx, bob, group.InviteCode); err != nil {
		t.Fatalf("join group: %v", err)
	}

	now := time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)
	weekStart := WeekStart(now)

	insert := func(userID uint, pts int, at time.Time) {
		t.Helper()
		rec := model.CompletedTask{UserID: userID, TaskName: "t", TaskType: "Chores", TaskTime: 15, Points: pts, CompletedAt: at}
		if err := completionRepo.Insert(ctx, &rec); err != nil {
			t.Fatalf("insert completion: %v", err)
		}
	}
	insert(alice.ID, 30, weekStart.Add(2*time.Hour))
	insert(bob.ID, 20, weekStart.Add(3*time.Hour))
	insert(bob.ID, 30, weekStart.Add(26*time.Hour))
	// Last week must not count.
	insert(alice.ID, 40, weekStart.Add(-time.Hour))

	if err := svc.Refresh(ctx, now); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	entries, err := svc.Standings(ctx, group.ID)
	if err != nil {
		t.Fatalf("Standings: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	if entries[0].UserID != bob.ID || entries[0].WeeklyPoints != 50 || entries[0].WeeklyTasks != 2 {
		t.Errorf("first place = %+v, want bob with 50 pts over 2 tasks", entries[0])
	}
	if entries[1].UserID != alice.ID || entries[1].WeeklyPoints != 30 || entries[1].WeeklyTasks != 1 {
		t.Errorf("second place = %+v, want alice with 30 pts over 1 task", entries[1])
	}
	for _, entry := range entries {
		if !entry.WeekStart.Equal(weekStart) {
			t.Errorf("entry WeekStart = %v, want %v", entry.WeekStart, weekStart)
		}
	}
}

func TestRefreshZeroesMembersWithoutCompletions(t *testing.T) {
	db := newTestDB(t, "leaderboard_zero")
	ctx := context.Background()

	profileRepo := repository.NewProfileRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	groupSvc := NewGroupService(groupRepo)
	svc := NewLeaderboardService(groupRepo, profileRepo, completionRepo, leaderboardRepo)

	owner, err := profileRepo.UpsertFromTelegram(ctx, 302, "Cleo", points.RankForPoints(0))
	if err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	group, err := groupSvc.CreateGroup(ctx, owner, "Solo", "")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	if err := svc.Refresh(ctx, time.Now()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	entries, err := svc.Standings(ctx, group.ID)
	if err != nil {
		t.Fatalf("Standings: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want the idle member listed", len(entries))
	}
	if entries[0].WeeklyPoints != 0 || entries[0].WeeklyTasks != 0 {
		t.Errorf("idle member entry = %+v, want zero totals", entries[0])
	}
}

func TestTotalInRangeExcludesEdges(t *testing.T) {
	db := newTestDB(t, "completion_range")
	ctx := context.Background()

	profileRepo := repository.NewProfileRepository(db)
	completionRepo := repository.NewCompletionRepository(db)

	profile, err := profileRepo.UpsertFromTelegram(ctx, 303, "Dana", points.RankForPoints(0))
	if err != nil {
		t.Fatalf("upsert profile: %v", err)
	}

	from := time.Date(2026, time.August, 17, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	insert := func(pts int, at time.Time) {
		t.Helper()
		rec := model.CompletedTask{UserID: profile.ID, TaskName: "t", TaskType: "Work", TaskTime: 30, Points: pts, CompletedAt: at}
		if err := completionRepo.Insert(ctx, &rec); err != nil {
			t.Fatalf("insert completion: %v", err)
		}
	}
	insert(10, from.Add(-time.Minute)) // before the window
	insert(25, from)                   // inclusive lower bound
	insert(15, to.Add(-time.Minute))   // inside
	insert(40, to)                     // exclusive upper bound

	total, err := completionRepo.TotalInRange(ctx, profile.ID, from, to)
	if err != nil {
		t.Fatalf("TotalInRange: %v", err)
	}
	if total.Points != 40 || total.Tasks != 2 {
		t.Errorf("total = %d pts / %d tasks, want 40 / 2", total.Points, total.Tasks)
	}
}
