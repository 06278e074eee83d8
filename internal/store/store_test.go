package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/intentlens/intentlens/internal/intent"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetOrCreateSession(t *testing.T) {
	s := newTestStore(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rec, err := s.GetOrCreateSession("sess-1", "user-1", started)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.SessionID != "sess-1" || rec.UserID != "user-1" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if !rec.StartedAt.Equal(started) {
		t.Errorf("started_at = %v, want %v", rec.StartedAt, started)
	}

	// Second call returns the existing session, not a new one.
	again, err := s.GetOrCreateSession("sess-1", "other-user", started.Add(time.Hour))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.UserID != "user-1" {
		t.Errorf("user_id = %q, want original user-1", again.UserID)
	}

	recs, err := s.ListSessions()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d sessions, want 1", len(recs))
	}
}

func TestAppendAndLoadSession(t *testing.T) {
	s := newTestStore(t)
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if _, err := s.GetOrCreateSession("sess-1", "user-1", started); err != nil {
		t.Fatalf("create: %v", err)
	}

	events := []intent.Event{
		{Type: intent.PageView, Timestamp: started, UserID: "user-1", SessionID: "sess-1",
			Properties: map[string]any{"page": "/home"}, Source: "segment"},
		{Type: intent.ProductView, Timestamp: started.Add(10 * time.Second), UserID: "user-1", SessionID: "sess-1",
			Properties: map[string]any{"product_id": "p1"}},
		{Type: intent.AddToCart, Timestamp: started.Add(30 * time.Second), UserID: "user-1", SessionID: "sess-1"},
	}
	for _, ev := range events {
		if err := s.AppendEvent(ev); err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
	}

	st := intent.IntentState{
		State:      intent.StatePurchaseReady,
		Confidence: 0.85,
		Timestamp:  started.Add(30 * time.Second),
		Attribution: []intent.Attribution{
			{RuleID: "cart_momentum", Weight: 1.0, Signals: []string{"friction_score"}},
		},
		Narrative: "purchase_ready confidence High driven by cart_momentum (100%).",
	}
	if err := s.SaveState("sess-1", st); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	loaded, err := s.LoadSession("sess-1")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if loaded.Len() != 3 {
		t.Fatalf("loaded %d events, want 3", loaded.Len())
	}
	first := loaded.Event(0)
	if first.Type != intent.PageView || first.Source != "segment" {
		t.Errorf("first event = %+v", first)
	}
	if got := first.StringProp("page"); got != "/home" {
		t.Errorf("page prop = %q, want /home", got)
	}

	cur, ok := loaded.Current()
	if !ok {
		t.Fatal("expected a current intent state")
	}
	if cur.State != intent.StatePurchaseReady || cur.Confidence != 0.85 {
		t.Errorf("current state = %+v", cur)
	}
	if len(cur.Attribution) != 1 || cur.Attribution[0].RuleID != "cart_momentum" {
		t.Errorf("attribution = %+v", cur.Attribution)
	}
}

func TestAppendEventRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	err := s.AppendEvent(intent.Event{Type: intent.PageView})
	if err == nil {
		t.Fatal("expected validation error for event without session")
	}
}

func TestLoadSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadSession("missing"); err == nil {
		t.Fatal("expected error for unknown session")
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	started := time.Now().UTC().Truncate(time.Second)
	if _, err := s.GetOrCreateSession("sess-1", "user-1", started); err != nil {
		t.Fatalf("create: %v", err)
	}
	ev := intent.Event{Type: intent.PageView, Timestamp: started, UserID: "user-1", SessionID: "sess-1"}
	if err := s.AppendEvent(ev); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	if err := s.DeleteSession("sess-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.LoadSession("sess-1"); err == nil {
		t.Fatal("expected session to be gone")
	}
	recs, err := s.ListSessions()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d sessions after delete, want 0", len(recs))
	}
}

func TestCleanupOldSessions(t *testing.T) {
	s := newTestStore(t)
	started := time.Now().UTC()
	if _, err := s.GetOrCreateSession("fresh", "user-1", started); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.GetOrCreateSession("stale", "user-2", started); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Age the stale session directly.
	old := time.Now().Add(-48 * time.Hour).Unix()
	if _, err := s.db.Exec("UPDATE sessions SET last_seen_at = ? WHERE session_id = ?", old, "stale"); err != nil {
		t.Fatalf("age session: %v", err)
	}

	n, err := s.CleanupOldSessions(24 * time.Hour)
	if err != nil {
		t.Fatalf("CleanupOldSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("cleaned %d sessions, want 1", n)
	}
	recs, err := s.ListSessions()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 || recs[0].SessionID != "fresh" {
		t.Errorf("remaining sessions = %+v", recs)
	}
}
