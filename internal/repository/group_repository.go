package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"whatnow/internal/model"
)

// ErrAlreadyMember is returned when a profile joins a group twice.
var ErrAlreadyMember = errors.New("already a member of this group")

// GroupRepository manages groups and memberships.
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (r *GroupRepository) FindByID(ctx context.Context, id uint) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) FindByInviteCode(ctx context.Context, code string) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// ListByMember returns the groups the profile belongs to.
func (r *GroupRepository) ListByMember(ctx context.Context, userID uint) ([]model.Group, error) {
	var groups []model.Group
	if err := r.db.WithContext(ctx).
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("groups.created_at ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *GroupRepository) ListAll(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	if err := r.db.WithContext(ctx).Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// AddMember joins a profile to a group, rejecting duplicates.
func (r *GroupRepository) AddMember(ctx context.Context, member *model.GroupMember) error {
	db := r.db.WithContext(ctx)
	var existing model.GroupMember
	err := db.Where("group_id = ? AND user_id = ?", member.GroupID, member.UserID).First(&existing).Error
	switch {
	case err == nil:
		return ErrAlreadyMember
	case err == gorm.ErrRecordNotFound:
		if err := db.Create(member).Error; err != nil {
			return fmt.Errorf("add member: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("find membership: %w", err)
	}
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID uint) error {
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.GroupMember{}).Error; err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// MemberIDs returns the profile ids belonging to a group.
func (r *GroupRepository) MemberIDs(ctx context.Context, groupID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
