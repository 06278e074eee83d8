package intent

import (
	"fmt"
	"time"
)

// Session is the ordered container of events for one user visit, plus the
// intent trajectory inferred so far. The event log is append-only and is the
// session's source of truth; derived facts are recomputed on demand.
//
// A session is owned by a single writer. Hosts sharing one session across
// goroutines must serialize appends and inference calls themselves.
type Session struct {
	ID        string
	UserID    string
	StartedAt time.Time

	events     []Event
	trajectory []IntentState
}

// NewSession creates an empty session.
func NewSession(id, userID string, startedAt time.Time) *Session {
	return &Session{ID: id, UserID: userID, StartedAt: startedAt.UTC()}
}

// Append validates an event and adds it to the log. Events must carry the
// session's IDs and non-decreasing timestamps in arrival order; violations
// are rejected so malformed data cannot silently corrupt the trajectory.
func (s *Session) Append(ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.SessionID != s.ID {
		return &MalformedEventError{
			Field:  "session_id",
			Reason: fmt.Sprintf("event session %q does not match session %q", ev.SessionID, s.ID),
		}
	}
	if ev.UserID != s.UserID {
		return &MalformedEventError{
			Field:  "user_id",
			Reason: fmt.Sprintf("event user %q does not match session user %q", ev.UserID, s.UserID),
		}
	}
	if n := len(s.events); n > 0 && ev.Timestamp.Before(s.events[n-1].Timestamp) {
		return &MalformedEventError{
			Field:  "timestamp",
			Reason: "precedes previously appended event",
		}
	}
	s.events = append(s.events, ev)
	return nil
}

// AppendAll appends events in order, stopping at the first invalid one.
func (s *Session) AppendAll(events []Event) error {
	for i, ev := range events {
		if err := s.Append(ev); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

// Len returns the number of events in the session.
func (s *Session) Len() int { return len(s.events) }

// Event returns the event at index i.
func (s *Session) Event(i int) Event { return s.events[i] }

// Events returns a copy of the event log in append order.
func (s *Session) Events() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Duration returns the time covered so far: last event timestamp minus
// session start, zero for an empty session.
func (s *Session) Duration() time.Duration {
	if len(s.events) == 0 {
		return 0
	}
	d := s.events[len(s.events)-1].Timestamp.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// Gaps returns the inter-event time gaps in order.
func (s *Session) Gaps() []time.Duration {
	if len(s.events) < 2 {
		return nil
	}
	gaps := make([]time.Duration, 0, len(s.events)-1)
	for i := 1; i < len(s.events); i++ {
		gaps = append(gaps, s.events[i].Timestamp.Sub(s.events[i-1].Timestamp))
	}
	return gaps
}

// CountByType returns event counts keyed by event type.
func (s *Session) CountByType() map[EventType]int {
	counts := make(map[EventType]int, 8)
	for _, ev := range s.events {
		counts[ev.Type]++
	}
	return counts
}

// DwellByPage returns accumulated dwell per page, attributing the time until
// the next page view (or the session's last event) to the current page.
// Pages are taken from the "page" property of page_view events.
func (s *Session) DwellByPage() map[string]time.Duration {
	dwell := make(map[string]time.Duration)
	var views []int
	for i, ev := range s.events {
		if ev.Type == PageView {
			views = append(views, i)
		}
	}
	for vi, i := range views {
		page := s.events[i].StringProp("page")
		if page == "" {
			page = "unknown"
		}
		var until time.Time
		if vi < len(views)-1 {
			until = s.events[views[vi+1]].Timestamp
		} else {
			until = s.events[len(s.events)-1].Timestamp
		}
		dwell[page] += until.Sub(s.events[i].Timestamp)
	}
	return dwell
}

// Record appends an inferred intent state to the trajectory. The trajectory
// is append-only; prior entries are never mutated.
func (s *Session) Record(st IntentState) {
	s.trajectory = append(s.trajectory, st)
}

// Current returns the most recent intent state, if any.
func (s *Session) Current() (IntentState, bool) {
	if len(s.trajectory) == 0 {
		return IntentState{}, false
	}
	return s.trajectory[len(s.trajectory)-1], true
}

// Trajectory returns a copy of the intent trajectory in emission order.
func (s *Session) Trajectory() []IntentState {
	out := make([]IntentState, len(s.trajectory))
	copy(out, s.trajectory)
	return out
}
