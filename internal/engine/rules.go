// Package engine implements intent inference: rules propose hypotheses over
// a session's signals, the confidence calculator aggregates them per state,
// and the state machine selects the next trajectory entry.
package engine

import (
	"sort"

	"github.com/intentlens/intentlens/internal/intent"
)

// Rule proposes intent hypotheses from a (session, signals) snapshot. Rules
// run independently over the same snapshot; they must not mutate shared
// state, so execution order never affects the hypothesis set. A rule may
// emit zero, one, or several competing hypotheses.
type Rule interface {
	ID() string
	Evaluate(s *intent.Session, sigs SignalSet) []intent.Hypothesis
}

// SignalSet gives rules indexed access to one tick's extracted signals.
type SignalSet struct {
	list   []intent.Signal
	byName map[string]intent.Signal
}

// NewSignalSet indexes a signal slice by name.
func NewSignalSet(sigs []intent.Signal) SignalSet {
	byName := make(map[string]intent.Signal, len(sigs))
	for _, sig := range sigs {
		byName[sig.Name] = sig
	}
	return SignalSet{list: sigs, byName: byName}
}

// Get returns the named signal if present.
func (ss SignalSet) Get(name string) (intent.Signal, bool) {
	sig, ok := ss.byName[name]
	return sig, ok
}

// Value returns the named signal's value, zero when absent.
func (ss SignalSet) Value(name string) float64 {
	return ss.byName[name].Value
}

// All returns the full signal list in extraction order.
func (ss SignalSet) All() []intent.Signal { return ss.list }

// Pick returns the subset of named signals that are present, in the order
// the names are given. Used by rules to cite their supporting signals.
func (ss SignalSet) Pick(names ...string) []intent.Signal {
	var out []intent.Signal
	for _, name := range names {
		if sig, ok := ss.byName[name]; ok {
			out = append(out, sig)
		}
	}
	return out
}

// sortHypotheses fixes the hypothesis order regardless of rule registration
// order.
func sortHypotheses(hyps []intent.Hypothesis) {
	sort.SliceStable(hyps, func(i, j int) bool {
		if hyps[i].State != hyps[j].State {
			return hyps[i].State < hyps[j].State
		}
		return hyps[i].RuleID < hyps[j].RuleID
	})
}
