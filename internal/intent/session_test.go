package intent

import (
	"errors"
	"testing"
	"time"
)

var sessionStart = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func sessionEvent(t EventType, offset time.Duration, props map[string]interface{}) Event {
	return Event{
		Type:       t,
		Timestamp:  sessionStart.Add(offset),
		UserID:     "user-1",
		SessionID:  "sess-1",
		Properties: props,
	}
}

func TestSessionAppend(t *testing.T) {
	s := NewSession("sess-1", "user-1", sessionStart)

	if err := s.Append(sessionEvent(PageView, 0, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(sessionEvent(ProductView, 10*time.Second, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	// Same timestamp as the previous event is allowed.
	if err := s.Append(sessionEvent(Click, 10*time.Second, nil)); err != nil {
		t.Errorf("equal timestamp rejected: %v", err)
	}
}

func TestSessionAppendRejections(t *testing.T) {
	tests := []struct {
		name      string
		ev        Event
		wantField string
	}{
		{"wrong session", func() Event {
			ev := sessionEvent(PageView, time.Minute, nil)
			ev.SessionID = "other"
			return ev
		}(), "session_id"},
		{"wrong user", func() Event {
			ev := sessionEvent(PageView, time.Minute, nil)
			ev.UserID = "other"
			return ev
		}(), "user_id"},
		{"regressing timestamp", sessionEvent(PageView, -time.Minute, nil), "timestamp"},
		{"invalid event", Event{SessionID: "sess-1", UserID: "user-1"}, "event_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("sess-1", "user-1", sessionStart)
			if err := s.Append(sessionEvent(PageView, 0, nil)); err != nil {
				t.Fatalf("seed append: %v", err)
			}
			err := s.Append(tt.ev)
			var malformed *MalformedEventError
			if !errors.As(err, &malformed) {
				t.Fatalf("Append() = %v, want MalformedEventError", err)
			}
			if malformed.Field != tt.wantField {
				t.Errorf("field = %q, want %q", malformed.Field, tt.wantField)
			}
			if s.Len() != 1 {
				t.Errorf("rejected event was appended, Len() = %d", s.Len())
			}
		})
	}
}

func TestSessionDerivedFacts(t *testing.T) {
	s := NewSession("sess-1", "user-1", sessionStart)
	events := []Event{
		sessionEvent(PageView, 0, map[string]interface{}{"page": "/home"}),
		sessionEvent(PageView, 30*time.Second, map[string]interface{}{"page": "/pricing"}),
		sessionEvent(Click, 50*time.Second, nil),
		sessionEvent(PageView, 90*time.Second, map[string]interface{}{"page": "/home"}),
		sessionEvent(AddToCart, 120*time.Second, nil),
	}
	if err := s.AppendAll(events); err != nil {
		t.Fatalf("AppendAll: %v", err)
	}

	if got := s.Duration(); got != 2*time.Minute {
		t.Errorf("Duration() = %v, want 2m", got)
	}

	gaps := s.Gaps()
	want := []time.Duration{30 * time.Second, 20 * time.Second, 40 * time.Second, 30 * time.Second}
	if len(gaps) != len(want) {
		t.Fatalf("Gaps() = %v", gaps)
	}
	for i := range want {
		if gaps[i] != want[i] {
			t.Errorf("gap %d = %v, want %v", i, gaps[i], want[i])
		}
	}

	counts := s.CountByType()
	if counts[PageView] != 3 || counts[Click] != 1 || counts[AddToCart] != 1 {
		t.Errorf("CountByType() = %v", counts)
	}

	dwell := s.DwellByPage()
	// /home: 0s-30s plus 90s-120s; /pricing: 30s-90s.
	if dwell["/home"] != time.Minute {
		t.Errorf("dwell[/home] = %v, want 1m", dwell["/home"])
	}
	if dwell["/pricing"] != time.Minute {
		t.Errorf("dwell[/pricing] = %v, want 1m", dwell["/pricing"])
	}
}

func TestSessionEmptyFacts(t *testing.T) {
	s := NewSession("sess-1", "user-1", sessionStart)
	if s.Duration() != 0 {
		t.Errorf("Duration() on empty session = %v", s.Duration())
	}
	if s.Gaps() != nil {
		t.Errorf("Gaps() on empty session = %v", s.Gaps())
	}
	if _, ok := s.Current(); ok {
		t.Error("Current() on empty trajectory should be false")
	}
}

func TestSessionTrajectory(t *testing.T) {
	s := NewSession("sess-1", "user-1", sessionStart)

	s.Record(IntentState{State: StateBrowsing, Confidence: 0.3, Timestamp: sessionStart})
	s.Record(IntentState{State: StatePurchaseReady, Confidence: 0.85, Timestamp: sessionStart.Add(time.Minute)})

	cur, ok := s.Current()
	if !ok || cur.State != StatePurchaseReady {
		t.Fatalf("Current() = %+v, %v", cur, ok)
	}

	trajectory := s.Trajectory()
	if len(trajectory) != 2 {
		t.Fatalf("trajectory length = %d", len(trajectory))
	}
	if trajectory[0].State != StateBrowsing {
		t.Errorf("trajectory[0] = %+v", trajectory[0])
	}

	// The returned slice is a copy; mutating it does not touch the session.
	trajectory[0].State = StateHesitating
	again := s.Trajectory()
	if again[0].State != StateBrowsing {
		t.Error("Trajectory() exposed internal state")
	}

	// Copy of events as well.
	if err := s.Append(sessionEvent(PageView, 0, nil)); err != nil {
		t.Fatalf("append: %v", err)
	}
	evs := s.Events()
	evs[0].Type = Purchase
	if s.Event(0).Type != PageView {
		t.Error("Events() exposed internal state")
	}
}
