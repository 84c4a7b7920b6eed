package model

import "time"

// SuggestedTypes is the palette offered when creating a task.
// Any other string is accepted as a type.
var SuggestedTypes = []string{"Chores", "Work", "Health", "Admin", "Errand", "Self-care", "Creative", "Social"}

// TimeOptions are the nominal duration buckets offered in the UI, in minutes.
// The stored value is not constrained to them.
var TimeOptions = []int{5, 15, 30, 60}

// Recurrence values for Task.Recurring. Empty string means one-off.
const (
	RecurDaily   = "daily"
	RecurWeekly  = "weekly"
	RecurMonthly = "monthly"
)

// Task is a user-defined unit of work with effort attributes and
// historical counters. Counters only ever grow and are mutated solely
// by the recommendation and settlement flows.
type Task struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"index"`
	Name        string
	Description string
	Type        string
	Time        int // nominal minutes
	Energy      Level
	Social      Level
	DueDate     *time.Time
	Recurring   string

	TimesShown     int `gorm:"default:0"`
	TimesSkipped   int `gorm:"default:0"`
	TimesCompleted int `gorm:"default:0"`
	PointsEarned   int `gorm:"default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
