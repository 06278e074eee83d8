package intent

import (
	"errors"
	"testing"
	"time"
)

func validEvent() Event {
	return Event{
		Type:      PageView,
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		UserID:    "user-1",
		SessionID: "sess-1",
	}
}

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Event)
		wantField string
	}{
		{"valid", func(e *Event) {}, ""},
		{"missing type", func(e *Event) { e.Type = "" }, "event_type"},
		{"zero timestamp", func(e *Event) { e.Timestamp = time.Time{} }, "timestamp"},
		{"missing user", func(e *Event) { e.UserID = "" }, "user_id"},
		{"missing session", func(e *Event) { e.SessionID = "" }, "session_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := validEvent()
			tt.mutate(&ev)
			err := ev.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var malformed *MalformedEventError
			if !errors.As(err, &malformed) {
				t.Fatalf("Validate() = %v, want MalformedEventError", err)
			}
			if malformed.Field != tt.wantField {
				t.Errorf("field = %q, want %q", malformed.Field, tt.wantField)
			}
		})
	}
}

func TestPropertyHelpers(t *testing.T) {
	ev := validEvent()
	ev.Properties = map[string]interface{}{
		"page":     "/pricing",
		"price":    float64(49.99),
		"count":    3,
		"discount": true,
		"wrong":    []string{"not a scalar"},
	}

	if got := ev.StringProp("page"); got != "/pricing" {
		t.Errorf("StringProp(page) = %q", got)
	}
	if got := ev.StringProp("missing"); got != "" {
		t.Errorf("StringProp(missing) = %q, want empty", got)
	}
	if got := ev.StringProp("wrong"); got != "" {
		t.Errorf("StringProp(wrong type) = %q, want empty", got)
	}

	if v, ok := ev.FloatProp("price"); !ok || v != 49.99 {
		t.Errorf("FloatProp(price) = %v, %v", v, ok)
	}
	if v, ok := ev.FloatProp("count"); !ok || v != 3 {
		t.Errorf("FloatProp(count) = %v, %v", v, ok)
	}
	if _, ok := ev.FloatProp("page"); ok {
		t.Error("FloatProp on string should not be ok")
	}

	if !ev.BoolProp("discount") {
		t.Error("BoolProp(discount) = false")
	}
	if ev.BoolProp("page") {
		t.Error("BoolProp on string should be false")
	}

	var empty Event
	if got := empty.StringProp("page"); got != "" {
		t.Errorf("StringProp on nil properties = %q", got)
	}
	if _, ok := empty.FloatProp("price"); ok {
		t.Error("FloatProp on nil properties should not be ok")
	}
}
