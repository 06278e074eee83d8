package ingest

import (
	"github.com/intentlens/intentlens/internal/intent"
)

// MixpanelNormalizer maps Mixpanel export rows onto canonical events.
// Mixpanel nests the identifying fields inside the properties bag: the
// event name lives under "event" and distinct_id, time and $session_id
// under "properties".
type MixpanelNormalizer struct {
	generic *Normalizer
}

// NewMixpanelNormalizer returns a Mixpanel normalizer.
func NewMixpanelNormalizer() *MixpanelNormalizer {
	return &MixpanelNormalizer{generic: NewNormalizer("mixpanel")}
}

// Normalize converts one Mixpanel payload, hoisting the identifiers out of
// the properties bag before delegating to the generic field probing.
func (n *MixpanelNormalizer) Normalize(raw map[string]interface{}) (intent.Event, error) {
	shaped := make(map[string]interface{}, len(raw)+3)
	for k, v := range raw {
		shaped[k] = v
	}

	if props, ok := raw["properties"].(map[string]interface{}); ok {
		if _, has := shaped["user_id"]; !has {
			if id, ok := props["distinct_id"].(string); ok && id != "" {
				shaped["user_id"] = id
			}
		}
		if _, has := shaped["session_id"]; !has {
			for _, key := range []string{"$session_id", "session_id"} {
				if id, ok := props[key].(string); ok && id != "" {
					shaped["session_id"] = id
					break
				}
			}
		}
		if _, has := shaped["timestamp"]; !has {
			if t, ok := props["time"]; ok {
				shaped["timestamp"] = t
			}
		}
	}

	return n.generic.Normalize(shaped)
}

// NormalizeAll converts a batch of Mixpanel payloads.
func (n *MixpanelNormalizer) NormalizeAll(raws []map[string]interface{}) ([]intent.Event, error) {
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
