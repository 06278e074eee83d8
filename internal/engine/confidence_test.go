package engine

import (
	"math"
	"testing"

	"github.com/intentlens/intentlens/internal/config"
	"github.com/intentlens/intentlens/internal/intent"
)

func hyp(rule string, state intent.StateType, strength float64) intent.Hypothesis {
	return intent.Hypothesis{State: state, RawStrength: strength, RuleID: rule}
}

func TestCombineFallback(t *testing.T) {
	c := NewCalculator(config.DefaultConfig())

	scored := c.Combine(nil)
	if len(scored) != 1 {
		t.Fatalf("Combine(nil) = %+v", scored)
	}
	if scored[0].State != intent.StateBrowsing || scored[0].Confidence != 0.30 {
		t.Errorf("fallback = %+v, want browsing at 0.30", scored[0])
	}
	if len(scored[0].Hypotheses) != 0 {
		t.Errorf("fallback carries hypotheses: %+v", scored[0].Hypotheses)
	}
}

func TestCombineNoisyOR(t *testing.T) {
	c := NewCalculator(config.DefaultConfig())

	scored := c.Combine([]intent.Hypothesis{
		hyp("a", intent.StateAbandonmentRisk, 0.5),
		hyp("b", intent.StateAbandonmentRisk, 0.5),
	})
	if len(scored) != 1 {
		t.Fatalf("Combine() = %+v", scored)
	}
	if math.Abs(scored[0].Confidence-0.75) > 1e-9 {
		t.Errorf("confidence = %v, want 0.75", scored[0].Confidence)
	}
}

func TestCombineMonotonic(t *testing.T) {
	c := NewCalculator(config.DefaultConfig())

	base := c.Combine([]intent.Hypothesis{
		hyp("a", intent.StateAbandonmentRisk, 0.6),
	})[0].Confidence

	more := c.Combine([]intent.Hypothesis{
		hyp("a", intent.StateAbandonmentRisk, 0.6),
		hyp("b", intent.StateAbandonmentRisk, 0.1),
	})[0].Confidence

	if more < base {
		t.Errorf("adding a hypothesis lowered confidence: %v -> %v", base, more)
	}
	if more >= 1 {
		t.Errorf("confidence reached certainty: %v", more)
	}
}

func TestCombineRuleWeights(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Rules = map[string]config.RuleSettings{
		"weak": {Weight: 0.5},
	}
	c := NewCalculator(cfg)

	scored := c.Combine([]intent.Hypothesis{hyp("weak", intent.StateHesitating, 0.8)})
	if math.Abs(scored[0].Confidence-0.4) > 1e-9 {
		t.Errorf("weighted confidence = %v, want 0.4", scored[0].Confidence)
	}
	if c.Weight("unconfigured") != 1.0 {
		t.Errorf("default weight = %v, want 1.0", c.Weight("unconfigured"))
	}
}

func TestCombineOrdering(t *testing.T) {
	c := NewCalculator(config.DefaultConfig())

	scored := c.Combine([]intent.Hypothesis{
		hyp("a", intent.StateBrowsing, 0.5),
		hyp("b", intent.StatePurchaseReady, 0.5),
		hyp("c", intent.StateHesitating, 0.7),
	})
	if len(scored) != 3 {
		t.Fatalf("Combine() = %+v", scored)
	}
	// Highest confidence first; equal confidences follow the priority order.
	if scored[0].State != intent.StateHesitating {
		t.Errorf("best = %s, want hesitating", scored[0].State)
	}
	if scored[1].State != intent.StatePurchaseReady || scored[2].State != intent.StateBrowsing {
		t.Errorf("tie-break order = %s, %s", scored[1].State, scored[2].State)
	}
}

func TestCombineUnknownStateRanksLast(t *testing.T) {
	c := NewCalculator(config.DefaultConfig())

	scored := c.Combine([]intent.Hypothesis{
		hyp("a", intent.StateType("custom_state"), 0.5),
		hyp("b", intent.StateBrowsing, 0.5),
	})
	if scored[0].State != intent.StateBrowsing {
		t.Errorf("configured state should outrank unknown: %+v", scored)
	}
}

func TestMerge(t *testing.T) {
	c := NewCalculator(config.DefaultConfig())

	setA := c.Combine([]intent.Hypothesis{hyp("a", intent.StateAbandonmentRisk, 0.5)})
	setB := c.Combine([]intent.Hypothesis{hyp("b", intent.StateAbandonmentRisk, 0.5)})

	merged := c.Merge(setA, setB)
	if len(merged) != 1 {
		t.Fatalf("Merge() = %+v", merged)
	}
	if math.Abs(merged[0].Confidence-0.75) > 1e-9 {
		t.Errorf("merged confidence = %v, want 0.75", merged[0].Confidence)
	}

	// Fallback-only sets merge back into the fallback.
	onlyFallback := c.Merge([]ScoredState{c.Fallback()})
	if onlyFallback[0].State != intent.StateBrowsing || onlyFallback[0].Confidence != 0.30 {
		t.Errorf("merged fallback = %+v", onlyFallback[0])
	}
}
