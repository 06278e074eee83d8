package engine

import (
	"github.com/intentlens/intentlens/internal/config"
	"github.com/intentlens/intentlens/internal/intent"
)

// salient marks the high-salience states that stick once reached with high
// confidence.
var salient = map[intent.StateType]bool{
	intent.StatePurchaseReady:   true,
	intent.StateAbandonmentRisk: true,
}

// Machine decides the next trajectory entry from the scored candidates and
// the incumbent state. It is a scored re-classification machine: transitions
// are re-evaluated every tick, not drawn from a fixed edge table.
type Machine struct {
	hysteresis   float64
	highSalience float64
	fallback     float64
}

// NewMachine builds a state machine from validated configuration.
func NewMachine(cfg *config.Config) *Machine {
	return &Machine{
		hysteresis:   cfg.Thresholds.HysteresisMargin,
		highSalience: cfg.Thresholds.HighSalience,
		fallback:     cfg.Thresholds.FallbackConfidence,
	}
}

// Next picks the next state. scored must be non-empty and ordered best
// first (Calculator.Combine guarantees both).
//
// Two dampening rules apply once a trajectory exists:
//   - hysteresis: a challenger must beat the incumbent's recomputed
//     confidence by more than the margin, or the incumbent holds;
//   - salience stickiness: an incumbent purchase_ready or abandonment_risk
//     at high confidence does not yield to a pure fallback tick, and yields
//     to real evidence only when the challenger is itself salient or the
//     incumbent's support has collapsed below the fallback floor.
func (m *Machine) Next(current intent.IntentState, hasCurrent bool, scored []ScoredState) ScoredState {
	best := scored[0]
	if !hasCurrent {
		return best
	}
	incumbent := m.recompute(current.State, scored)
	if best.State == current.State {
		return best
	}

	if salient[current.State] && current.Confidence >= m.highSalience {
		if len(best.Hypotheses) == 0 {
			// Low-signal tick: no new evidence, no silent revert.
			return m.hold(incumbent)
		}
		collapsed := incumbent.Confidence < m.fallback
		if (salient[best.State] || collapsed) && best.Confidence > incumbent.Confidence+m.hysteresis {
			return best
		}
		return m.hold(incumbent)
	}

	if best.Confidence > incumbent.Confidence+m.hysteresis {
		return best
	}
	return incumbent
}

// recompute finds the incumbent's confidence under the current tick's
// evidence; absent any supporting hypotheses it scores zero.
func (m *Machine) recompute(state intent.StateType, scored []ScoredState) ScoredState {
	for _, s := range scored {
		if s.State == state {
			return s
		}
	}
	return ScoredState{State: state}
}

// hold re-emits the incumbent, floored at the fallback confidence so a held
// salient state never reads as weaker than the ambient default.
func (m *Machine) hold(incumbent ScoredState) ScoredState {
	if incumbent.Confidence < m.fallback {
		incumbent.Confidence = m.fallback
	}
	return incumbent
}
