// Package ingest normalizes raw analytics payloads into canonical events.
// It is the boundary collaborator of the inference core: the engine itself
// performs no source-specific schema work.
package ingest

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/intentlens/intentlens/internal/intent"
)

// SchemaError reports a raw payload that cannot be mapped to the canonical
// event shape.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: %s: %s", e.Field, e.Reason)
}

// Source converts raw payloads of one analytics export format into
// canonical events.
type Source interface {
	Normalize(raw map[string]interface{}) (intent.Event, error)
	NormalizeAll(raws []map[string]interface{}) ([]intent.Event, error)
}

// ForSource returns the normalizer for a named source format.
func ForSource(name string) (Source, error) {
	switch name {
	case "", "generic":
		return NewNormalizer("generic"), nil
	case "segment":
		return NewSegmentNormalizer(), nil
	case "amplitude":
		return NewAmplitudeNormalizer(), nil
	case "mixpanel":
		return NewMixpanelNormalizer(), nil
	default:
		return nil, fmt.Errorf("unknown source format %q", name)
	}
}

// Normalizer maps generic analytics payloads onto canonical events by
// probing the field names common across export formats. It carries batch
// state: the first user-less payload mints one anonymous identity that
// every later user-less payload reuses, and derived session IDs are cached
// per user, so a batch with missing identifiers still regroups into one
// session.
type Normalizer struct {
	// Source labels the events this normalizer produces.
	Source string

	anonID   string
	sessions map[string]string
}

// NewNormalizer returns a generic normalizer.
func NewNormalizer(source string) *Normalizer {
	if source == "" {
		source = "generic"
	}
	return &Normalizer{Source: source, sessions: make(map[string]string)}
}

var (
	timestampFields = []string{"timestamp", "time", "created_at", "event_time", "ts"}
	userFields      = []string{"user_id", "userId", "distinct_id", "user"}
	sessionFields   = []string{"session_id", "sessionId", "session"}
	typeFields      = []string{"event", "event_type", "eventType", "name", "action"}
	propertyFields  = []string{"properties", "props", "attributes", "data", "context"}
)

// Normalize converts one raw payload. A payload without a user identity is
// assigned the batch's minted anonymous ID; a payload without a session ID
// reuses the session derived for that user so events of one visit regroup.
func (n *Normalizer) Normalize(raw map[string]interface{}) (intent.Event, error) {
	eventType, err := stringField(raw, typeFields, "event_type")
	if err != nil {
		return intent.Event{}, err
	}
	ts, err := timestampField(raw)
	if err != nil {
		return intent.Event{}, err
	}
	userID, err := stringField(raw, userFields, "user_id")
	if err != nil {
		if n.anonID == "" {
			n.anonID = "anon-" + uuid.NewString()
		}
		userID = n.anonID
	}
	sessionID, err := stringField(raw, sessionFields, "session_id")
	if err != nil {
		if n.sessions == nil {
			n.sessions = make(map[string]string)
		}
		sessionID = n.sessions[userID]
		if sessionID == "" {
			sessionID = fmt.Sprintf("%s-%d", userID, ts.Unix())
			n.sessions[userID] = sessionID
		}
	}
	return intent.Event{
		Type:       intent.EventType(eventType),
		Timestamp:  ts,
		UserID:     userID,
		SessionID:  sessionID,
		Properties: properties(raw),
		Source:     n.Source,
	}, nil
}

// NormalizeAll converts a batch, failing on the first unmappable payload.
func (n *Normalizer) NormalizeAll(raws []map[string]interface{}) ([]intent.Event, error) {
	events := make([]intent.Event, 0, len(raws))
	for i, raw := range raws {
		ev, err := n.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("payload %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func stringField(raw map[string]interface{}, candidates []string, canonical string) (string, error) {
	for _, field := range candidates {
		if v, ok := raw[field]; ok {
			switch s := v.(type) {
			case string:
				if s != "" {
					return s, nil
				}
			case float64:
				return fmt.Sprintf("%.0f", s), nil
			case int:
				return fmt.Sprintf("%d", s), nil
			case int64:
				return fmt.Sprintf("%d", s), nil
			}
		}
	}
	return "", &SchemaError{Field: canonical, Reason: "not found in payload"}
}

func timestampField(raw map[string]interface{}) (time.Time, error) {
	for _, field := range timestampFields {
		v, ok := raw[field]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), nil
		case float64:
			return epochToTime(t), nil
		case int64:
			return epochToTime(float64(t)), nil
		case int:
			return epochToTime(float64(t)), nil
		case string:
			if parsed, err := parseTimeString(t); err == nil {
				return parsed, nil
			}
		}
	}
	return time.Time{}, &SchemaError{Field: "timestamp", Reason: "not found or unparseable"}
}

// epochToTime accepts unix seconds or milliseconds, disambiguated by
// magnitude.
func epochToTime(v float64) time.Time {
	if v > 1e12 {
		return time.UnixMilli(int64(v)).UTC()
	}
	return time.Unix(int64(v), 0).UTC()
}

func parseTimeString(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", s)
}

// properties picks the payload's property bag, or the residue of fields no
// canonical extractor claimed.
func properties(raw map[string]interface{}) map[string]interface{} {
	for _, field := range propertyFields {
		if m, ok := raw[field].(map[string]interface{}); ok {
			out := make(map[string]interface{}, len(m))
			for k, v := range m {
				out[k] = v
			}
			return out
		}
	}
	standard := make(map[string]struct{})
	for _, list := range [][]string{timestampFields, userFields, sessionFields, typeFields, propertyFields} {
		for _, f := range list {
			standard[f] = struct{}{}
		}
	}
	out := make(map[string]interface{})
	for k, v := range raw {
		if _, ok := standard[k]; !ok {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
