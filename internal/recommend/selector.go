// Package recommend filters and ranks a user's tasks against their
// momentary state and drives the accept/skip selection loop.
package recommend

import (
	"sort"

	"whatnow/internal/model"
)

// Query bounds the candidate set. Each bound is optional; a nil bound
// places no constraint on that attribute.
type Query struct {
	MaxTime   *int
	MaxEnergy *model.Level
	MaxSocial *model.Level
}

// IsEmpty reports whether no bound is set. The UI requires at least one
// bound before starting a session; the selector itself accepts an empty
// query and then matches every task.
func (q Query) IsEmpty() bool {
	return q.MaxTime == nil && q.MaxEnergy == nil && q.MaxSocial == nil
}

// SelectCandidates returns the tasks matching the query, ordered for
// presentation: most-skipped first (avoided tasks need attention), then
// least-shown among equals (so everything gets coverage). The sort is
// stable; further ties keep input order. An empty result is not an error.
func SelectCandidates(tasks []model.Task, q Query) []model.Task {
	matched := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if q.MaxTime != nil && t.Time > *q.MaxTime {
			continue
		}
		if q.MaxEnergy != nil && t.Energy.Order() > q.MaxEnergy.Order() {
			continue
		}
		if q.MaxSocial != nil && t.Social.Order() > q.MaxSocial.Order() {
			continue
		}
		matched = append(matched, t)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].TimesSkipped != matched[j].TimesSkipped {
			return matched[i].TimesSkipped > matched[j].TimesSkipped
		}
		return matched[i].TimesShown < matched[j].TimesShown
	})

	return matched
}
