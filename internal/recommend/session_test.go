package recommend

import (
	"testing"

	"whatnow/internal/model"
)

func queue(ids ...uint) []model.Task {
	tasks := make([]model.Task, len(ids))
	for i, id := range ids {
		tasks[i] = model.Task{ID: id, Time: 15, Energy: model.LevelLow, Social: model.LevelLow}
	}
	return tasks
}

func TestSessionEmptyQueueExhaustsImmediately(t *testing.T) {
	s := NewSession(nil)
	if _, ok := s.Current(); ok {
		t.Error("empty session should have no current card")
	}
	if !s.Exhausted() {
		t.Error("empty session should be exhausted")
	}
	if _, ok := s.MarkShown(); ok {
		t.Error("empty session must not emit a shown event")
	}
	if _, ok := s.Skip(); ok {
		t.Error("empty session must not emit a skip event")
	}
}

func TestSessionMarkShownOncePerCard(t *testing.T) {
	s := NewSession(queue(7, 8))

	id, first := s.MarkShown()
	if !first || id != 7 {
		t.Fatalf("first MarkShown = (%d, %t), want (7, true)", id, first)
	}
	if _, again := s.MarkShown(); again {
		t.Error("re-render must not emit a second shown event for the same card")
	}

	if _, ok := s.Skip(); !ok {
		t.Fatal("skip failed")
	}
	if id, first := s.MarkShown(); !first || id != 8 {
		t.Errorf("next card MarkShown = (%d, %t), want (8, true)", id, first)
	}
}

func TestSessionSkipAdvancesExactlyOne(t *testing.T) {
	s := NewSession(queue(1, 2, 3))

	id, ok := s.Skip()
	if !ok || id != 1 {
		t.Fatalf("Skip = (%d, %t), want (1, true)", id, ok)
	}
	cur, ok := s.Current()
	if !ok || cur.ID != 2 {
		t.Fatalf("after skip, current = %d, want 2", cur.ID)
	}
	if s.Position() != 2 {
		t.Errorf("Position = %d, want 2", s.Position())
	}
}

func TestSessionSkipThroughToExhausted(t *testing.T) {
	s := NewSession(queue(1, 2))
	s.Skip()
	s.Skip()
	if !s.Exhausted() {
		t.Error("session should be exhausted after skipping every card")
	}
	if _, ok := s.Current(); ok {
		t.Error("exhausted session should have no current card")
	}
}

func TestSessionAcceptClosesWithoutSkip(t *testing.T) {
	s := NewSession([]model.Task{
		{ID: 4, Time: 60, Energy: model.LevelHigh, Social: model.LevelHigh},
		{ID: 5},
	})

	task, pts, ok := s.Accept()
	if !ok {
		t.Fatal("accept failed")
	}
	if task.ID != 4 {
		t.Errorf("accepted task %d, want 4", task.ID)
	}
	if pts != 65 {
		t.Errorf("accepted points = %d, want 65", pts)
	}

	// Accept ends the session: no further cards, no further events.
	if _, ok := s.Current(); ok {
		t.Error("accepted session should have no current card")
	}
	if _, ok := s.Skip(); ok {
		t.Error("accepted session must not emit skip events")
	}
	if s.Exhausted() {
		t.Error("an accepted session is closed, not exhausted")
	}
}

func TestSessionPointsCarriedFromAcceptTime(t *testing.T) {
	tasks := queue(9)
	s := NewSession(tasks)
	_, pts, _ := s.Accept()
	// 15 min + low + low
	if pts != 20 {
		t.Errorf("points at accept = %d, want 20", pts)
	}
}
