package ingest

import (
	"testing"

	"github.com/intentlens/intentlens/internal/intent"
)

func TestAmplitudeNormalize(t *testing.T) {
	n := NewAmplitudeNormalizer()

	ev, err := n.Normalize(map[string]interface{}{
		"event_type": "product_view",
		"time":       float64(1767261600000),
		"user_id":    "user-1",
		"session_id": float64(1767261600123),
		"event_properties": map[string]interface{}{
			"product_id": "p1",
			"price":      30.0,
		},
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ev.Type != intent.ProductView || ev.UserID != "user-1" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Source != "amplitude" {
		t.Errorf("source = %q", ev.Source)
	}
	if ev.Timestamp.Unix() != 1767261600 {
		t.Errorf("timestamp = %v", ev.Timestamp)
	}
	// Numeric session IDs convert to strings.
	if ev.SessionID != "1767261600123" {
		t.Errorf("session_id = %q", ev.SessionID)
	}
	if ev.StringProp("product_id") != "p1" {
		t.Errorf("properties = %+v", ev.Properties)
	}
}

func TestAmplitudeDeviceIDFallback(t *testing.T) {
	n := NewAmplitudeNormalizer()

	ev, err := n.Normalize(map[string]interface{}{
		"event_type": "page_view",
		"time":       float64(1767261600),
		"device_id":  "device-xyz",
		"session_id": "sess-1",
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ev.UserID != "device-xyz" {
		t.Errorf("user_id = %q, want device_id fallback", ev.UserID)
	}
}
