package model

import "time"

// Profile stores per-user lifetime aggregates. CurrentRank is a cached
// value and must always equal the rank table lookup of TotalPoints.
type Profile struct {
	ID                  uint  `gorm:"primaryKey"`
	TelegramID          int64 `gorm:"uniqueIndex"`
	DisplayName         string
	TotalPoints         int     `gorm:"default:0"`
	TotalTasksCompleted int     `gorm:"default:0"`
	TotalTimeSpent      float64 `gorm:"default:0"` // minutes
	CurrentRank         string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
