package intent

import "time"

// Signal is a named, typed measurement derived from a session at a point in
// time. Evidence holds the indices of the session events that produced the
// signal; indices are stable because the event log is append-only.
type Signal struct {
	Name      string    `json:"signal_name"`
	Value     float64   `json:"value"`
	Label     string    `json:"label,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Evidence  []int     `json:"evidence,omitempty"`
}

// Hypothesis is a single rule's unnormalized proposal that the session
// reflects a given intent state. RawStrength is rule-local and only
// meaningful after aggregation.
type Hypothesis struct {
	State       StateType `json:"state_type"`
	RawStrength float64   `json:"raw_strength"`
	RuleID      string    `json:"rule_id"`
	Signals     []Signal  `json:"supporting_signals,omitempty"`
}
