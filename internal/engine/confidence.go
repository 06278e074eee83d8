package engine

import (
	"sort"

	"github.com/intentlens/intentlens/internal/config"
	"github.com/intentlens/intentlens/internal/intent"
)

// ScoredState is one candidate intent state with its aggregated confidence
// and the hypotheses that produced it. A ScoredState with no hypotheses is
// the documented fallback.
type ScoredState struct {
	State      intent.StateType
	Confidence float64
	Hypotheses []intent.Hypothesis
}

// Calculator aggregates rule hypotheses into per-state confidences.
//
// Aggregation is noisy-OR over the weighted strengths: multiple weak
// corroborating rules raise confidence, no rule below strength 1 can force
// certainty alone, and adding a hypothesis never lowers a state's score.
type Calculator struct {
	weights  map[string]float64
	rank     map[intent.StateType]int
	fallback float64
}

// NewCalculator builds a calculator from validated configuration.
func NewCalculator(cfg *config.Config) *Calculator {
	rank := make(map[intent.StateType]int, len(cfg.Priority))
	for i, state := range cfg.Priority {
		rank[intent.StateType(state)] = i
	}
	weights := make(map[string]float64, len(cfg.Rules))
	for id := range cfg.Rules {
		weights[id] = cfg.RuleWeight(id)
	}
	return &Calculator{
		weights:  weights,
		rank:     rank,
		fallback: cfg.Thresholds.FallbackConfidence,
	}
}

// Weight returns the configured weight for a rule (default 1.0).
func (c *Calculator) Weight(ruleID string) float64 {
	if w, ok := c.weights[ruleID]; ok {
		return w
	}
	return 1.0
}

// Combine groups hypotheses by state, aggregates each group, and returns the
// candidates ordered best first: confidence descending, ties broken by the
// configured priority order, never by registration order. With no
// hypotheses at all, it returns the browsing fallback at the configured
// minimum confidence.
func (c *Calculator) Combine(hyps []intent.Hypothesis) []ScoredState {
	if len(hyps) == 0 {
		return []ScoredState{c.Fallback()}
	}

	groups := make(map[intent.StateType][]intent.Hypothesis)
	for _, h := range hyps {
		groups[h.State] = append(groups[h.State], h)
	}

	scored := make([]ScoredState, 0, len(groups))
	for state, group := range groups {
		sort.SliceStable(group, func(i, j int) bool { return group[i].RuleID < group[j].RuleID })
		scored = append(scored, ScoredState{
			State:      state,
			Confidence: c.noisyOR(group),
			Hypotheses: group,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Confidence != scored[j].Confidence {
			return scored[i].Confidence > scored[j].Confidence
		}
		ri, rj := c.stateRank(scored[i].State), c.stateRank(scored[j].State)
		if ri != rj {
			return ri < rj
		}
		return scored[i].State < scored[j].State
	})
	return scored
}

// Fallback returns the default state used when no rule applies.
func (c *Calculator) Fallback() ScoredState {
	return ScoredState{State: intent.StateBrowsing, Confidence: c.fallback}
}

// Merge recombines scored-state sets produced by different rule
// configurations into one, using the same aggregation. Fallback entries
// carry no hypotheses and are dropped; if nothing else remains the merged
// result is again the fallback.
func (c *Calculator) Merge(sets ...[]ScoredState) []ScoredState {
	var hyps []intent.Hypothesis
	for _, set := range sets {
		for _, s := range set {
			hyps = append(hyps, s.Hypotheses...)
		}
	}
	sortHypotheses(hyps)
	return c.Combine(hyps)
}

func (c *Calculator) noisyOR(group []intent.Hypothesis) float64 {
	miss := 1.0
	for _, h := range group {
		miss *= 1 - clamp01(h.RawStrength*c.Weight(h.RuleID))
	}
	return 1 - miss
}

// stateRank maps a state to its tie-break position. Unlisted states rank
// after every configured one; among themselves they fall back to name order
// in Combine's comparator.
func (c *Calculator) stateRank(state intent.StateType) int {
	if r, ok := c.rank[state]; ok {
		return r
	}
	return len(c.rank)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
