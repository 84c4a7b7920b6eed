package recommend

import (
	"whatnow/internal/model"
	"whatnow/internal/points"
)

// Session walks a ranked queue one card at a time. The queue is fixed at
// session start and never recomputed. The session itself performs no I/O:
// MarkShown and Skip tell the caller which counter to bump, and the caller
// must apply those increments in the order they are emitted.
type Session struct {
	queue  []model.Task
	index  int
	shown  map[uint]struct{}
	closed bool
}

// NewSession starts a session over the selector's output queue.
func NewSession(queue []model.Task) *Session {
	return &Session{
		queue: queue,
		shown: make(map[uint]struct{}, len(queue)),
	}
}

// Len returns the queue length.
func (s *Session) Len() int { return len(s.queue) }

// Position returns the 1-based index of the current card for display.
func (s *Session) Position() int { return s.index + 1 }

// Current returns the task under consideration, or false when the session
// is exhausted or already accepted.
func (s *Session) Current() (model.Task, bool) {
	if s.closed || s.index >= len(s.queue) {
		return model.Task{}, false
	}
	return s.queue[s.index], true
}

// Exhausted reports that every card has been skipped (or the queue was
// empty to begin with) without an accept.
func (s *Session) Exhausted() bool {
	return !s.closed && s.index >= len(s.queue)
}

// MarkShown records that the current card was presented and returns its
// task id the first time it becomes current. Repeat calls for the same
// card return false so a re-render never double-counts times_shown.
func (s *Session) MarkShown() (uint, bool) {
	cur, ok := s.Current()
	if !ok {
		return 0, false
	}
	if _, seen := s.shown[cur.ID]; seen {
		return 0, false
	}
	s.shown[cur.ID] = struct{}{}
	return cur.ID, true
}

// Skip rejects the current card and advances to the next one. It returns
// the id whose times_skipped must be incremented exactly once.
func (s *Session) Skip() (uint, bool) {
	cur, ok := s.Current()
	if !ok {
		return 0, false
	}
	s.index++
	return cur.ID, true
}

// Accept chooses the current card and closes the session. The point value
// is computed here, once; settlement carries it forward and never
// recomputes, so a task edit between accept and completion cannot change
// the award.
func (s *Session) Accept() (model.Task, int, bool) {
	cur, ok := s.Current()
	if !ok {
		return model.Task{}, 0, false
	}
	s.closed = true
	return cur, points.Calculate(cur.Time, cur.Social, cur.Energy), true
}
