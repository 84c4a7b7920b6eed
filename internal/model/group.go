package model

import "time"

// Group is a social circle joined via invite code.
type Group struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string
	Description string
	InviteCode  string `gorm:"uniqueIndex"`
	CreatedBy   uint
	CreatedAt   time.Time
}

// GroupMember links a profile to a group. A profile joins a group at most once.
type GroupMember struct {
	ID       uint `gorm:"primaryKey"`
	GroupID  uint `gorm:"index:idx_group_member,unique"`
	UserID   uint `gorm:"index:idx_group_member,unique"`
	JoinedAt time.Time
}

// WeeklyLeaderboardEntry is a materialized standing for one member of a
// group over the current week. Rebuilt periodically from completed tasks.
type WeeklyLeaderboardEntry struct {
	ID           uint `gorm:"primaryKey"`
	GroupID      uint `gorm:"index"`
	UserID       uint
	DisplayName  string
	CurrentRank  string
	WeeklyPoints int
	WeeklyTasks  int
	WeekStart    time.Time
}
