package ingest

import (
	"github.com/intentlens/intentlens/internal/intent"
)

// SegmentNormalizer maps Segment-shaped track/page calls onto canonical
// events: page calls become page_view events, anonymousId substitutes for a
// missing userId.
type SegmentNormalizer struct {
	generic *Normalizer
}

// NewSegmentNormalizer returns a Segment normalizer.
func NewSegmentNormalizer() *SegmentNormalizer {
	return &SegmentNormalizer{generic: NewNormalizer("segment")}
}

// Normalize converts one Segment payload.
func (n *SegmentNormalizer) Normalize(raw map[string]interface{}) (intent.Event, error) {
	shaped := make(map[string]interface{}, len(raw)+2)
	for k, v := range raw {
		shaped[k] = v
	}

	if callType, _ := raw["type"].(string); callType == "page" {
		shaped["event"] = "page_view"
		props, _ := shaped["properties"].(map[string]interface{})
		if props == nil {
			props = make(map[string]interface{})
		}
		if name, ok := raw["name"].(string); ok && props["page"] == nil {
			props["page"] = name
		}
		shaped["properties"] = props
		delete(shaped, "name")
	}

	if _, hasUser := raw["userId"]; !hasUser {
		if anon, ok := raw["anonymousId"].(string); ok && anon != "" {
			shaped["userId"] = anon
		}
	}

	return n.generic.Normalize(shaped)
}

// NormalizeAll converts a batch of Segment payloads.
func (n *SegmentNormalizer) NormalizeAll(raws []map[string]interface{}) ([]intent.Event, error) {
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
