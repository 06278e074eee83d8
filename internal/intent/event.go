// Package intent defines the canonical data model of the inference engine:
// events, sessions, derived signals, rule hypotheses and the intent states
// the engine emits.
package intent

import (
	"fmt"
	"time"
)

// EventType tags a canonical behavior event.
type EventType string

// Well-known event types. Sources may emit additional types; extractors
// ignore what they do not understand.
const (
	PageView          EventType = "page_view"
	ProductView       EventType = "product_view"
	Click             EventType = "click"
	Scroll            EventType = "scroll"
	AddToCart         EventType = "add_to_cart"
	RemoveFromCart    EventType = "remove_from_cart"
	CheckoutStarted   EventType = "checkout_started"
	CheckoutCompleted EventType = "checkout_completed"
	Purchase          EventType = "purchase"
	FormStart         EventType = "form_start"
	FormSubmit        EventType = "form_submit"
)

// Event is the canonical, normalized unit of user behavior. Events are
// immutable once appended to a session.
type Event struct {
	Type       EventType              `json:"event_type"`
	Timestamp  time.Time              `json:"timestamp"`
	UserID     string                 `json:"user_id"`
	SessionID  string                 `json:"session_id"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Source     string                 `json:"source,omitempty"`
}

// MalformedEventError reports an event that violates the canonical shape.
// It is raised at ingestion into a session, never swallowed.
type MalformedEventError struct {
	Field  string
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event: %s: %s", e.Field, e.Reason)
}

// Validate checks the required fields of the canonical shape.
func (e *Event) Validate() error {
	if e.Type == "" {
		return &MalformedEventError{Field: "event_type", Reason: "cannot be empty"}
	}
	if e.Timestamp.IsZero() {
		return &MalformedEventError{Field: "timestamp", Reason: "cannot be zero"}
	}
	if e.UserID == "" {
		return &MalformedEventError{Field: "user_id", Reason: "cannot be empty"}
	}
	if e.SessionID == "" {
		return &MalformedEventError{Field: "session_id", Reason: "cannot be empty"}
	}
	return nil
}

// StringProp returns a string property, tolerating absence and wrong types.
func (e *Event) StringProp(key string) string {
	if e.Properties == nil {
		return ""
	}
	if s, ok := e.Properties[key].(string); ok {
		return s
	}
	return ""
}

// FloatProp returns a numeric property, tolerating absence and the numeric
// types JSON decoding produces.
func (e *Event) FloatProp(key string) (float64, bool) {
	if e.Properties == nil {
		return 0, false
	}
	switch v := e.Properties[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// BoolProp returns a boolean property, tolerating absence and wrong types.
func (e *Event) BoolProp(key string) bool {
	if e.Properties == nil {
		return false
	}
	b, _ := e.Properties[key].(bool)
	return b
}
