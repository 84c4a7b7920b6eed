package model

import "strings"

// Level is the effort scale shared by the energy and social attributes.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Order ranks levels for filtering: low < medium < high.
// Unrecognized levels rank below low so they always pass a filter.
func (l Level) Order() int {
	switch l {
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	default:
		return 0
	}
}

// Label returns the user-facing form of the level.
func (l Level) Label() string {
	switch l {
	case LevelLow:
		return "Low"
	case LevelMedium:
		return "Medium"
	case LevelHigh:
		return "High"
	default:
		return string(l)
	}
}

// ParseLevel normalizes free-form input into a Level.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "l":
		return LevelLow, true
	case "medium", "med", "m":
		return LevelMedium, true
	case "high", "h":
		return LevelHigh, true
	default:
		return "", false
	}
}
