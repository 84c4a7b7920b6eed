package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"whatnow/internal/model"
	"whatnow/internal/repository"
)

const inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const inviteLength = 6

// GroupService handles social circles and their membership.
type GroupService struct {
	groupRepo *repository.GroupRepository
}

func NewGroupService(groupRepo *repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

// CreateGroup makes a new group with a fresh invite code and joins the
// creator as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, owner *model.Profile, name, description string) (*model.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("group name is required")
	}

	var group *model.Group
	// Invite codes are random; retry a few times on the rare collision.
	for attempt := 0; attempt < 5; attempt++ {
		candidate := &model.Group{
			Name:        name,
			Description: strings.TrimSpace(description),
			InviteCode:  newInviteCode(),
			CreatedBy:   owner.ID,
		}
		if err := s.groupRepo.Create(ctx, candidate); err != nil {
			if attempt == 4 {
				return nil, err
			}
			continue
		}
		group = candidate
		break
	}

	member := model.GroupMember{GroupID: group.ID, UserID: owner.ID, JoinedAt: time.Now()}
	if err := s.groupRepo.AddMember(ctx, &member); err != nil {
		return nil, err
	}
	return group, nil
}

// JoinByCode adds the profile to the group behind the invite code.
// Returns repository.ErrAlreadyMember for a duplicate join.
func (s *GroupService) JoinByCode(ctx context.Context, profile *model.Profile, code string) (*model.Group, error) {
	group, err := s.groupRepo.FindByInviteCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	member := model.GroupMember{GroupID: group.ID, UserID: profile.ID, JoinedAt: time.Now()}
	if err := s.groupRepo.AddMember(ctx, &member); err != nil {
		return group, err
	}
	return group, nil
}

func (s *GroupService) Leave(ctx context.Context, profile *model.Profile, groupID uint) error {
	return s.groupRepo.RemoveMember(ctx, groupID, profile.ID)
}

func (s *GroupService) ListForMember(ctx context.Context, profile *model.Profile) ([]model.Group, error) {
	return s.groupRepo.ListByMember(ctx, profile.ID)
}

func (s *GroupService) Get(ctx context.Context, groupID uint) (*model.Group, error) {
	return s.groupRepo.FindByID(ctx, groupID)
}

func newInviteCode() string {
	b := make([]byte, inviteLength)
	for i := range b {
		b[i] = inviteAlphabet[rand.Intn(len(inviteAlphabet))]
	}
	return string(b)
}
