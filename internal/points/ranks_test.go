package points

import "testing"

func TestRankInfo(t *testing.T) {
	cases := []struct {
		points       int
		wantCurrent  string
		wantNext     string
		wantProgress float64
	}{
		{0, "Task Newbie", "Task Apprentice", 0},
		{50, "Task Newbie", "Task Apprentice", 50},
		{100, "Task Apprentice", "Task Warrior", 0},
		{250, "Task Apprentice", "Task Warrior", 37.5},
		{999, "Task Warrior", "Task Hero", 99.8},
		{1000, "Task Hero", "Task Master", 0},
		{5000, "Task Legend", "", 100},
		{123456, "Task Legend", "", 100},
	}
	for _, tc := range cases {
		info := RankInfo(tc.points)
		if info.Current != tc.wantCurrent {
			t.Errorf("RankInfo(%d).Current = %q, want %q", tc.points, info.Current, tc.wantCurrent)
		}
		if info.Next != tc.wantNext {
			t.Errorf("RankInfo(%d).Next = %q, want %q", tc.points, info.Next, tc.wantNext)
		}
		if info.Progress != tc.wantProgress {
			t.Errorf("RankInfo(%d).Progress = %v, want %v", tc.points, info.Progress, tc.wantProgress)
		}
	}
}

func TestRankForPointsBoundaries(t *testing.T) {
	cases := []struct {
		points int
		want   string
	}{
		{0, "Task Newbie"},
		{99, "Task Newbie"},
		{100, "Task Apprentice"},
		{499, "Task Apprentice"},
		{500, "Task Warrior"},
		{2500, "Task Master"},
		{4999, "Task Master"},
		{5000, "Task Legend"},
	}
	for _, tc := range cases {
		if got := RankForPoints(tc.points); got != tc.want {
			t.Errorf("RankForPoints(%d) = %q, want %q", tc.points, got, tc.want)
		}
	}
}

func TestRankForPointsMatchesRankInfo(t *testing.T) {
	for _, p := range []int{0, 1, 99, 100, 750, 2499, 2500, 10000} {
		if RankForPoints(p) != RankInfo(p).Current {
			t.Errorf("RankForPoints(%d) disagrees with RankInfo", p)
		}
	}
}
