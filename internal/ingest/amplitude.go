package ingest

import (
	"github.com/intentlens/intentlens/internal/intent"
)

// AmplitudeNormalizer maps Amplitude export rows onto canonical events:
// millisecond epoch in "time", numeric session IDs, device_id fallback for
// anonymous users, and event_properties as the property bag.
type AmplitudeNormalizer struct {
	generic *Normalizer
}

// NewAmplitudeNormalizer returns an Amplitude normalizer.
func NewAmplitudeNormalizer() *AmplitudeNormalizer {
	return &AmplitudeNormalizer{generic: NewNormalizer("amplitude")}
}

// Normalize converts one Amplitude payload.
func (n *AmplitudeNormalizer) Normalize(raw map[string]interface{}) (intent.Event, error) {
	shaped := make(map[string]interface{}, len(raw)+2)
	for k, v := range raw {
		shaped[k] = v
	}

	if props, ok := raw["event_properties"].(map[string]interface{}); ok {
		shaped["properties"] = props
		delete(shaped, "event_properties")
	}
	if _, hasUser := raw["user_id"]; !hasUser {
		if device, ok := raw["device_id"].(string); ok && device != "" {
			shaped["user_id"] = device
		}
	}

	return n.generic.Normalize(shaped)
}

// NormalizeAll converts a batch of Amplitude payloads.
func (n *AmplitudeNormalizer) NormalizeAll(raws []map[string]interface{}) ([]intent.Event, error) {
	events := make([]intent.Event, 0, len(raws))
	for _, raw := range raws {
		ev, err := n.Normalize(raw)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
