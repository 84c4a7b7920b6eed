package points

// Rank is one fixed tier of the ladder.
type Rank struct {
	Name      string
	Threshold int
}

// Ranks holds the six tiers in ascending threshold order.
var Ranks = []Rank{
	{Name: "Task Newbie", Threshold: 0},
	{Name: "Task Apprentice", Threshold: 100},
	{Name: "Task Warrior", Threshold: 500},
	{Name: "Task Hero", Threshold: 1000},
	{Name: "Task Master", Threshold: 2500},
	{Name: "Task Legend", Threshold: 5000},
}

// Info describes where a point total sits on the ladder. Next is empty
// at the top tier, where Progress is pinned to 100.
type Info struct {
	Current  string
	Next     string
	Progress float64 // percent toward the next tier, capped at 100
}

// RankInfo returns the tier for the given total plus progress toward the
// tier above it. The current tier is the highest threshold met or exceeded.
func RankInfo(totalPoints int) Info {
	current := 0
	for i := len(Ranks) - 1; i >= 0; i-- {
		if totalPoints >= Ranks[i].Threshold {
			current = i
			break
		}
	}

	info := Info{Current: Ranks[current].Name, Progress: 100}
	if current+1 < len(Ranks) {
		next := Ranks[current+1]
		info.Next = next.Name
		span := float64(next.Threshold - Ranks[current].Threshold)
		progress := float64(totalPoints-Ranks[current].Threshold) / span * 100
		if progress > 100 {
			progress = 100
		}
		info.Progress = progress
	}
	return info
}

// RankForPoints returns only the tier label, used when caching the rank
// on a profile after settlement.
func RankForPoints(totalPoints int) string {
	for i := len(Ranks) - 1; i >= 0; i-- {
		if totalPoints >= Ranks[i].Threshold {
			return Ranks[i].Name
		}
	}
	return Ranks[0].Name
}
