// Package explain builds the attribution records and deterministic
// narratives that make every emitted intent state auditable.
package explain

import (
	"sort"

	"github.com/intentlens/intentlens/internal/intent"
)

// BuildAttribution distributes a chosen state's confidence across the rules
// that supported it. weight maps a rule ID to its configured weight; each
// rule's share is its weighted strength normalized over the group, listed in
// descending contribution. An empty hypothesis set yields the explicit
// fallback attribution, so a default state is never silently unexplained.
func BuildAttribution(hyps []intent.Hypothesis, weight func(ruleID string) float64) []intent.Attribution {
	if len(hyps) == 0 {
		return []intent.Attribution{{RuleID: intent.FallbackRuleID, Weight: 1}}
	}

	type contrib struct {
		amount  float64
		signals []string
	}
	byRule := make(map[string]*contrib, len(hyps))
	var order []string
	total := 0.0
	for _, h := range hyps {
		c, ok := byRule[h.RuleID]
		if !ok {
			c = &contrib{}
			byRule[h.RuleID] = c
			order = append(order, h.RuleID)
		}
		amount := clamp01(h.RawStrength * weight(h.RuleID))
		c.amount += amount
		total += amount
		for _, sig := range h.Signals {
			c.signals = appendUnique(c.signals, sig.Name)
		}
	}

	att := make([]intent.Attribution, 0, len(order))
	for _, id := range order {
		c := byRule[id]
		share := 1.0 / float64(len(order))
		if total > 0 {
			share = c.amount / total
		}
		att = append(att, intent.Attribution{RuleID: id, Weight: share, Signals: c.signals})
	}
	sort.SliceStable(att, func(i, j int) bool {
		if att[i].Weight != att[j].Weight {
			return att[i].Weight > att[j].Weight
		}
		return att[i].RuleID < att[j].RuleID
	})
	return att
}

func appendUnique(list []string, name string) []string {
	for _, existing := range list {
		if existing == name {
			return list
		}
	}
	return append(list, name)
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
