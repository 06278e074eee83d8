package intent

import "time"

// StateType names an intent state. The set is open: plugin rules may propose
// custom states, which the engine treats identically to the built-in ones.
type StateType string

// Built-in intent states.
const (
	StateBrowsing          StateType = "browsing"
	StateEvaluatingOptions StateType = "evaluating_options"
	StatePriceSensitive    StateType = "price_sensitive"
	StateTrustSeeking      StateType = "trust_seeking"
	StatePurchaseReady     StateType = "purchase_ready"
	StateAbandonmentRisk   StateType = "abandonment_risk"
	StateHesitating        StateType = "hesitating"
)

// Attribution links a chosen intent state back to one contributing rule: its
// normalized weight within the state's confidence and the signals it consumed.
type Attribution struct {
	RuleID  string   `json:"rule_id"`
	Weight  float64  `json:"weight"`
	Signals []string `json:"signals,omitempty"`
}

// FallbackRuleID is the attribution rule ID used when no rule produced a
// hypothesis and the engine fell back to the default browsing state.
const FallbackRuleID = "fallback"

// HeldRuleID is the attribution rule ID used when the state machine kept
// the incumbent state even though no hypothesis supported it this tick.
const HeldRuleID = "held"

// IntentState is the engine's externally visible output: a named,
// confidence-scored, explainable description of what the user is trying to
// do at a point in time. Immutable once emitted.
type IntentState struct {
	State       StateType     `json:"state_type"`
	Confidence  float64       `json:"confidence"`
	Timestamp   time.Time     `json:"timestamp"`
	Attribution []Attribution `json:"attribution"`
	Narrative   string        `json:"narrative,omitempty"`
}

// IsFallback reports whether this state was produced by the documented
// fallback policy rather than by any rule hypothesis.
func (s *IntentState) IsFallback() bool {
	return len(s.Attribution) == 1 && s.Attribution[0].RuleID == FallbackRuleID
}

// IsHeld reports whether this state is a carried-over incumbent that no
// hypothesis supported on the tick that emitted it.
func (s *IntentState) IsHeld() bool {
	return len(s.Attribution) == 1 && s.Attribution[0].RuleID == HeldRuleID
}
