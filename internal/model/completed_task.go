package model

import "time"

// CompletedTask is one immutable log entry per settled task session.
// It snapshots the task attributes so later edits or deletion of the
// live task do not rewrite history.
type CompletedTask struct {
	ID         uint `gorm:"primaryKey"`
	UserID     uint `gorm:"index"`
	TaskName   string
	TaskType   string
	TaskTime   int
	TaskSocial Level
	TaskEnergy Level
	Points     int
	TimeSpent  *float64 // measured minutes; nil when unmeasured
	CompletedAt time.Time `gorm:"index"`
}
