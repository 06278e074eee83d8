// Package store persists sessions, their event logs and emitted intent
// trajectories in SQLite. The inference core never reads it; the CLI uses
// it so repeated runs can extend a stored session.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/intentlens/intentlens/internal/intent"
	"github.com/intentlens/intentlens/internal/logger"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// Store defines session/trajectory persistence.
type Store interface {
	// GetOrCreateSession returns the stored session record, creating it on
	// first sight.
	GetOrCreateSession(sessionID, userID string, startedAt time.Time) (*SessionRecord, error)
	// LoadSession rebuilds a full session, events and trajectory included.
	LoadSession(sessionID string) (*intent.Session, error)
	// AppendEvent persists one canonical event.
	AppendEvent(ev intent.Event) error
	// SaveState persists one emitted intent state.
	SaveState(sessionID string, st intent.IntentState) error
	ListSessions() ([]*SessionRecord, error)
	DeleteSession(sessionID string) error
	// CleanupOldSessions deletes sessions not seen within ttl and returns
	// how many were removed.
	CleanupOldSessions(ttl time.Duration) (int64, error)
	Close() error
}

// SessionRecord is the stored metadata of one session.
type SessionRecord struct {
	SessionID  string
	UserID     string
	StartedAt  time.Time
	LastSeenAt time.Time
	EventCount int
	LastState  string
}

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at dbPath; an empty path
// defaults to ~/.intentlens/sessions.db.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, ".intentlens", "sessions.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug().Str("path", dbPath).Msg("Opened session store")
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		last_seen_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		user_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		properties TEXT,
		source TEXT,
		FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS intent_states (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		state_type TEXT NOT NULL,
		confidence REAL NOT NULL,
		timestamp INTEGER NOT NULL,
		attribution TEXT,
		narrative TEXT,
		FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, id);
	CREATE INDEX IF NOT EXISTS idx_states_session ON intent_states(session_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetOrCreateSession retrieves an existing session record or creates one.
func (s *SQLiteStore) GetOrCreateSession(sessionID, userID string, startedAt time.Time) (*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	rec, err := s.getSessionLocked(sessionID)
	if err == nil {
		if _, err := s.db.Exec(
			"UPDATE sessions SET last_seen_at = ? WHERE session_id = ?", now, sessionID,
		); err != nil {
			return nil, fmt.Errorf("failed to update session: %w", err)
		}
		rec.LastSeenAt = time.Unix(now, 0).UTC()
		return rec, nil
	}

	if _, err := s.db.Exec(
		`INSERT INTO sessions (session_id, user_id, started_at, last_seen_at) VALUES (?, ?, ?, ?)`,
		sessionID, userID, startedAt.Unix(), now,
	); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &SessionRecord{
		SessionID:  sessionID,
		UserID:     userID,
		StartedAt:  time.Unix(startedAt.Unix(), 0).UTC(),
		LastSeenAt: time.Unix(now, 0).UTC(),
	}, nil
}

func (s *SQLiteStore) getSessionLocked(sessionID string) (*SessionRecord, error) {
	var rec SessionRecord
	var startedAt, lastSeen int64
	err := s.db.QueryRow(
		`SELECT session_id, user_id, started_at, last_seen_at FROM sessions WHERE session_id = ?`,
		sessionID,
	).Scan(&rec.SessionID, &rec.UserID, &startedAt, &lastSeen)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	rec.StartedAt = time.Unix(startedAt, 0).UTC()
	rec.LastSeenAt = time.Unix(lastSeen, 0).UTC()
	return &rec, nil
}

// AppendEvent persists one canonical event after validating it.
func (s *SQLiteStore) AppendEvent(ev intent.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var props []byte
	if ev.Properties != nil {
		var err error
		props, err = json.Marshal(ev.Properties)
		if err != nil {
			return fmt.Errorf("failed to marshal properties: %w", err)
		}
	}
	_, err := s.db.Exec(
		`INSERT INTO events (session_id, event_type, user_id, timestamp, properties, source)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.SessionID, string(ev.Type), ev.UserID, ev.Timestamp.UnixMilli(), string(props), ev.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}
	return nil
}

// SaveState persists one emitted intent state.
func (s *SQLiteStore) SaveState(sessionID string, st intent.IntentState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	att, err := json.Marshal(st.Attribution)
	if err != nil {
		return fmt.Errorf("failed to marshal attribution: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO intent_states (session_id, state_type, confidence, timestamp, attribution, narrative)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, string(st.State), st.Confidence, st.Timestamp.UnixMilli(), string(att), st.Narrative,
	)
	if err != nil {
		return fmt.Errorf("failed to store intent state: %w", err)
	}
	return nil
}

// LoadSession rebuilds a session with its events and trajectory in stored
// order.
func (s *SQLiteStore) LoadSession(sessionID string) (*intent.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.getSessionLocked(sessionID)
	if err != nil {
		return nil, err
	}
	session := intent.NewSession(rec.SessionID, rec.UserID, rec.StartedAt)

	rows, err := s.db.Query(
		`SELECT event_type, user_id, timestamp, properties, source
		 FROM events WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var eventType, userID, props, source string
		var ts int64
		if err := rows.Scan(&eventType, &userID, &ts, &props, &source); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev := intent.Event{
			Type:      intent.EventType(eventType),
			Timestamp: time.UnixMilli(ts).UTC(),
			UserID:    userID,
			SessionID: sessionID,
			Source:    source,
		}
		if props != "" {
			if err := json.Unmarshal([]byte(props), &ev.Properties); err != nil {
				return nil, fmt.Errorf("failed to unmarshal properties: %w", err)
			}
		}
		if err := session.Append(ev); err != nil {
			return nil, fmt.Errorf("stored event rejected: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	states, err := s.loadStatesLocked(sessionID)
	if err != nil {
		return nil, err
	}
	for _, st := range states {
		session.Record(st)
	}
	return session, nil
}

func (s *SQLiteStore) loadStatesLocked(sessionID string) ([]intent.IntentState, error) {
	rows, err := s.db.Query(
		`SELECT state_type, confidence, timestamp, attribution, narrative
		 FROM intent_states WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query intent states: %w", err)
	}
	defer rows.Close()

	var states []intent.IntentState
	for rows.Next() {
		var stateType, att, narrative string
		var confidence float64
		var ts int64
		if err := rows.Scan(&stateType, &confidence, &ts, &att, &narrative); err != nil {
			return nil, fmt.Errorf("failed to scan intent state: %w", err)
		}
		st := intent.IntentState{
			State:      intent.StateType(stateType),
			Confidence: confidence,
			Timestamp:  time.UnixMilli(ts).UTC(),
			Narrative:  narrative,
		}
		if att != "" {
			if err := json.Unmarshal([]byte(att), &st.Attribution); err != nil {
				return nil, fmt.Errorf("failed to unmarshal attribution: %w", err)
			}
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

// ListSessions returns all stored sessions, most recently seen first.
func (s *SQLiteStore) ListSessions() ([]*SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT s.session_id, s.user_id, s.started_at, s.last_seen_at,
		       (SELECT COUNT(*) FROM events e WHERE e.session_id = s.session_id),
		       COALESCE((SELECT i.state_type FROM intent_states i
		                 WHERE i.session_id = s.session_id ORDER BY i.id DESC LIMIT 1), '')
		FROM sessions s ORDER BY s.last_seen_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var recs []*SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var startedAt, lastSeen int64
		if err := rows.Scan(&rec.SessionID, &rec.UserID, &startedAt, &lastSeen, &rec.EventCount, &rec.LastState); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		rec.StartedAt = time.Unix(startedAt, 0).UTC()
		rec.LastSeenAt = time.Unix(lastSeen, 0).UTC()
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// DeleteSession removes a session, its events and its trajectory.
func (s *SQLiteStore) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, stmt := range []string{
		"DELETE FROM intent_states WHERE session_id = ?",
		"DELETE FROM events WHERE session_id = ?",
		"DELETE FROM sessions WHERE session_id = ?",
	} {
		if _, err := tx.Exec(stmt, sessionID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}
	return tx.Commit()
}

// CleanupOldSessions removes sessions last seen before now-ttl.
func (s *SQLiteStore) CleanupOldSessions(ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl).Unix()
	rows, err := s.db.Query("SELECT session_id FROM sessions WHERE last_seen_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale sessions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range ids {
		for _, stmt := range []string{
			"DELETE FROM intent_states WHERE session_id = ?",
			"DELETE FROM events WHERE session_id = ?",
			"DELETE FROM sessions WHERE session_id = ?",
		} {
			if _, err := s.db.Exec(stmt, id); err != nil {
				return int64(len(ids)), fmt.Errorf("failed to delete stale session %s: %w", id, err)
			}
		}
	}
	return int64(len(ids)), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
