// Package points holds the pure scoring and rank rules.
package points

import "whatnow/internal/model"

var timePoints = map[int]int{
	5:  5,
	15: 10,
	30: 15,
	60: 25,
}

var levelPoints = map[model.Level]int{
	model.LevelLow:    5,
	model.LevelMedium: 10,
	model.LevelHigh:   20,
}

// Calculate maps a task's effort attributes to its point value.
// Durations outside the known buckets score 10; unknown levels score 5.
// Social and energy climb steeper than raw duration so that effort,
// not just time, dominates the reward.
func Calculate(timeMinutes int, social, energy model.Level) int {
	tp, ok := timePoints[timeMinutes]
	if !ok {
		tp = 10
	}
	sp, ok := levelPoints[social]
	if !ok {
		sp = 5
	}
	ep, ok := levelPoints[energy]
	if !ok {
		ep = 5
	}
	return tp + sp + ep
}
