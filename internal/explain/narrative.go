package explain

import (
	"fmt"
	"strings"

	"github.com/intentlens/intentlens/internal/intent"
)

// Narrative renders a one-sentence explanation of a chosen state. It is a
// pure function of the state, confidence and attribution: identical inputs
// always produce identical text.
func Narrative(state intent.StateType, confidence float64, att []intent.Attribution) string {
	if len(att) == 1 && att[0].RuleID == intent.FallbackRuleID {
		return fmt.Sprintf("Default %s state at minimum confidence: no rule produced a hypothesis for this session.", state)
	}
	if len(att) == 1 && att[0].RuleID == intent.HeldRuleID {
		return fmt.Sprintf("Holding prior %s state: no hypothesis this tick was strong enough to displace it.", state)
	}

	drivers := make([]string, 0, 2)
	for _, a := range att {
		if len(drivers) == 2 {
			break
		}
		drivers = append(drivers, fmt.Sprintf("%s (%.0f%%)", a.RuleID, a.Weight*100))
	}

	text := fmt.Sprintf("%s confidence %s driven by %s",
		confidenceBand(confidence), state, strings.Join(drivers, " and "))

	if sigs := att[0].Signals; len(sigs) > 0 {
		if len(sigs) > 3 {
			sigs = sigs[:3]
		}
		text += ", supported by " + strings.Join(sigs, ", ")
	}
	return text + "."
}

func confidenceBand(confidence float64) string {
	switch {
	case confidence >= 0.75:
		return "High"
	case confidence >= 0.5:
		return "Moderate"
	default:
		return "Low"
	}
}
