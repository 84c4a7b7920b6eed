package service

import (
	"context"
	"log"
	"time"

	"whatnow/internal/model"
	"whatnow/internal/repository"
)

// LeaderboardService materializes the weekly standings per group from the
// completion log. Refresh runs on a timer; reads hit the materialized table.
type LeaderboardService struct {
	groupRepo       *repository.GroupRepository
	profileRepo     *repository.ProfileRepository
	completionRepo  *repository.CompletionRepository
	leaderboardRepo *repository.LeaderboardRepository
}

func NewLeaderboardService(groupRepo *repository.GroupRepository, profileRepo *repository.ProfileRepository, completionRepo *repository.CompletionRepository, leaderboardRepo *repository.LeaderboardRepository) *LeaderboardService {
	return &LeaderboardService{
		groupRepo:       groupRepo,
		profileRepo:     profileRepo,
		completionRepo:  completionRepo,
		leaderboardRepo: leaderboardRepo,
	}
}

// WeekStart returns Monday 00:00 of the week containing t, in t's location.
func WeekStart(t time.Time) time.Time {
	year, month, day := t.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	weekday := int(midnight.Weekday())
	// time.Weekday counts Sunday as 0.
	if weekday == 0 {
		weekday = 7
	}
	return midnight.AddDate(0, 0, -(weekday - 1))
}

// Refresh rebuilds the weekly leaderboard for every group from the
// completions made since the start of the current week.
func (s *LeaderboardService) Refresh(ctx context.Context, now time.Time) error {
	weekStart := WeekStart(now)

	totals, err := s.completionRepo.TotalsSince(ctx, weekStart)
	if err != nil {
		return err
	}
	byUser := make(map[uint]repository.UserWeekTotal, len(totals))
	for _, total := range totals {
		byUser[total.UserID] = total
	}

	profiles, err := s.profileRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	profileByID := make(map[uint]model.Profile, len(profiles))
	for _, p := range profiles {
		profileByID[p.ID] = p
	}

	groups, err := s.groupRepo.ListAll(ctx)
	if err != nil {
		return err
	}

	var entries []model.WeeklyLeaderboardEntry
	for _, group := range groups {
		memberIDs, err := s.groupRepo.MemberIDs(ctx, group.ID)
		if err != nil {
			log.Printf("leaderboard: members of group=%d: %v", group.ID, err)
			continue
		}
		for _, userID := range memberIDs {
			profile, ok := profileByID[userID]
			if !ok {
				continue
			}
			total := byUser[userID]
			entries = append(entries, model.WeeklyLeaderboardEntry{
				GroupID:      group.ID,
				UserID:       userID,
				DisplayName:  profile.DisplayName,
				CurrentRank:  profile.CurrentRank,
				WeeklyPoints: total.Points,
				WeeklyTasks:  total.Tasks,
				WeekStart:    weekStart,
			})
		}
	}

	return s.leaderboardRepo.Replace(ctx, entries)
}

// Standings returns the current materialized board for a group.
func (s *LeaderboardService) Standings(ctx context.Context, groupID uint) ([]model.WeeklyLeaderboardEntry, error) {
	return s.leaderboardRepo.ListByGroup(ctx, groupID)
}
