package engine

import (
	"time"

	"github.com/intentlens/intentlens/internal/intent"
	"github.com/intentlens/intentlens/internal/signals"
)

// Built-in rule IDs.
const (
	RuleBrowsing   = "browsing_activity"
	RuleCart       = "cart_momentum"
	RuleFriction   = "friction_pressure"
	RuleNavigation = "negative_navigation"
	RuleComparison = "comparison_shopping"
	RuleHesitation = "hesitation_dwell"
	RulePrice      = "price_sensitivity"
	RuleTrust      = "trust_content"
)

// BuiltinRules returns the built-in rule set. The engine treats these no
// differently from externally registered rules.
func BuiltinRules() []Rule {
	return []Rule{
		browsingRule{},
		cartMomentumRule{decisionWindow: 2 * time.Minute},
		frictionRule{},
		navigationRule{},
		comparisonRule{},
		hesitationRule{longDwell: 30},
		priceRule{},
		trustRule{},
	}
}

func hypothesis(rule string, state intent.StateType, strength float64, sigs []intent.Signal) intent.Hypothesis {
	return intent.Hypothesis{State: state, RawStrength: strength, RuleID: rule, Signals: sigs}
}

// browsingRule detects pure browsing: steady page views with no commerce
// activity and no competing signals.
type browsingRule struct{}

func (browsingRule) ID() string { return RuleBrowsing }

func (browsingRule) Evaluate(s *intent.Session, sigs SignalSet) []intent.Hypothesis {
	views := sigs.Value(signals.SignalNavPageViews)
	if views < 3 {
		return nil
	}
	counts := s.CountByType()
	if counts[intent.AddToCart] > 0 || counts[intent.CheckoutStarted] > 0 || counts[intent.Purchase] > 0 {
		return nil
	}
	if sigs.Value(signals.SignalFrictionScore) >= 0.3 || sigs.Value(signals.SignalCmpScore) >= 0.3 {
		return nil
	}
	strength := 0.4 + 0.05*minF(views, 8)
	return []intent.Hypothesis{hypothesis(RuleBrowsing, intent.StateBrowsing, strength,
		sigs.Pick(signals.SignalNavPageViews, signals.SignalNavUniquePages))}
}

// cartMomentumRule detects purchase readiness: cart or checkout activity,
// a short time to decision, and no friction.
type cartMomentumRule struct {
	decisionWindow time.Duration
}

func (cartMomentumRule) ID() string { return RuleCart }

func (r cartMomentumRule) Evaluate(s *intent.Session, sigs SignalSet) []intent.Hypothesis {
	counts := s.CountByType()
	support := sigs.Pick(signals.SignalFrictionScore)

	if counts[intent.Purchase] > 0 || counts[intent.CheckoutCompleted] > 0 {
		return []intent.Hypothesis{hypothesis(RuleCart, intent.StatePurchaseReady, 0.95, support)}
	}
	if counts[intent.CheckoutStarted] > 0 {
		return []intent.Hypothesis{hypothesis(RuleCart, intent.StatePurchaseReady, 0.85, support)}
	}
	if counts[intent.AddToCart] == 0 {
		return nil
	}

	strength := 0.6
	events := s.Events()
	var lastCart time.Time
	for _, ev := range events {
		if ev.Type == intent.AddToCart {
			lastCart = ev.Timestamp
		}
	}
	if lastCart.Sub(events[0].Timestamp) <= r.decisionWindow {
		strength += 0.10
	}
	if last := events[len(events)-1]; last.Type == intent.AddToCart || last.Type == intent.CheckoutStarted {
		strength += 0.10
	}
	friction := sigs.Value(signals.SignalFrictionScore)
	switch {
	case friction < 0.2:
		strength += 0.05
	case friction >= 0.4:
		strength -= 0.20
	}
	if strength < 0.3 {
		strength = 0.3
	}
	return []intent.Hypothesis{hypothesis(RuleCart, intent.StatePurchaseReady, strength, support)}
}

// frictionRule turns an elevated friction score into abandonment risk, and
// moderate friction plus stalled dwell into hesitation.
type frictionRule struct{}

func (frictionRule) ID() string { return RuleFriction }

func (frictionRule) Evaluate(s *intent.Session, sigs SignalSet) []intent.Hypothesis {
	score := sigs.Value(signals.SignalFrictionScore)
	if score == 0 {
		return nil
	}
	support := sigs.Pick(
		signals.SignalFrictionScore,
		signals.SignalFrictionRapidClicks,
		signals.SignalFrictionDeadClicks,
		signals.SignalFrictionCartAbandon,
		signals.SignalFrictionFormAbandon,
		signals.SignalFrictionErrors,
	)
	var hyps []intent.Hypothesis
	if score >= 0.35 {
		hyps = append(hyps, hypothesis(RuleFriction, intent.StateAbandonmentRisk, minF(score+0.25, 0.9), support))
	}
	counts := s.CountByType()
	progressed := counts[intent.CheckoutStarted] > 0 || counts[intent.CheckoutCompleted] > 0 || counts[intent.Purchase] > 0
	if !progressed && score >= 0.2 && sigs.Value(signals.SignalDwellLongCount) >= 2 {
		hyps = append(hyps, hypothesis(RuleFriction, intent.StateHesitating, minF(score+0.2, 0.6),
			sigs.Pick(signals.SignalFrictionScore, signals.SignalDwellLongCount)))
	}
	return hyps
}

// navigationRule reads loops and back-navigation as negative engagement.
type navigationRule struct{}

func (navigationRule) ID() string { return RuleNavigation }

func (navigationRule) Evaluate(_ *intent.Session, sigs SignalSet) []intent.Hypothesis {
	loops := sigs.Value(signals.SignalNavLoops)
	back := sigs.Value(signals.SignalNavBacktracks)
	strength := minF(0.15*loops+0.2*back, 0.7)
	if strength < 0.15 {
		return nil
	}
	return []intent.Hypothesis{hypothesis(RuleNavigation, intent.StateAbandonmentRisk, strength,
		sigs.Pick(signals.SignalNavLoops, signals.SignalNavBacktracks))}
}

// comparisonRule reads cross-item views and comparison-page dwell as option
// evaluation.
type comparisonRule struct{}

func (comparisonRule) ID() string { return RuleComparison }

func (comparisonRule) Evaluate(_ *intent.Session, sigs SignalSet) []intent.Hypothesis {
	strength := 0.8 * sigs.Value(signals.SignalCmpScore)
	if sigs.Value(signals.SignalDwellComparison) >= 10 {
		strength += 0.2
	}
	if strength < 0.15 {
		return nil
	}
	return []intent.Hypothesis{hypothesis(RuleComparison, intent.StateEvaluatingOptions, minF(strength, 0.9),
		sigs.Pick(signals.SignalCmpScore, signals.SignalCmpUniqueProducts, signals.SignalDwellComparison))}
}

// hesitationRule detects long dwell without progression toward checkout.
type hesitationRule struct {
	longDwell float64 // seconds
}

func (hesitationRule) ID() string { return RuleHesitation }

func (r hesitationRule) Evaluate(s *intent.Session, sigs SignalSet) []intent.Hypothesis {
	maxDwell := sigs.Value(signals.SignalDwellMax)
	if maxDwell < r.longDwell {
		return nil
	}
	counts := s.CountByType()
	if counts[intent.AddToCart] > 0 || counts[intent.CheckoutStarted] > 0 || counts[intent.Purchase] > 0 {
		return nil
	}
	long := sigs.Value(signals.SignalDwellLongCount)
	strength := minF(maxDwell/120+0.05*long, 0.65)
	return []intent.Hypothesis{hypothesis(RuleHesitation, intent.StateHesitating, strength,
		sigs.Pick(signals.SignalDwellMax, signals.SignalDwellLongCount))}
}

// priceRule reads repeated price inspection and discount seeking as price
// sensitivity.
type priceRule struct{}

func (priceRule) ID() string { return RulePrice }

func (priceRule) Evaluate(_ *intent.Session, sigs SignalSet) []intent.Hypothesis {
	score := sigs.Value(signals.SignalPriceScore)
	if score < 0.3 {
		return nil
	}
	strength := score
	if sigs.Value(signals.SignalPriceDiscount) > 0 {
		strength += 0.1
	}
	return []intent.Hypothesis{hypothesis(RulePrice, intent.StatePriceSensitive, minF(strength, 0.85),
		sigs.Pick(signals.SignalPriceScore, signals.SignalPriceChecks, signals.SignalPriceDiscount, signals.SignalPriceRange))}
}

// trustRule reads repeated visits to reviews, policies and similar trust
// content as trust seeking.
type trustRule struct{}

func (trustRule) ID() string { return RuleTrust }

func (trustRule) Evaluate(_ *intent.Session, sigs SignalSet) []intent.Hypothesis {
	visits := sigs.Value(signals.SignalNavTrustViews)
	if visits < 2 {
		return nil
	}
	return []intent.Hypothesis{hypothesis(RuleTrust, intent.StateTrustSeeking, minF(0.3+0.15*visits, 0.8),
		sigs.Pick(signals.SignalNavTrustViews))}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
