package signals

import (
	"strings"
	"time"

	"github.com/intentlens/intentlens/internal/intent"
)

// Signal names emitted by the friction extractor.
const (
	SignalFrictionRapidClicks = "friction_rapid_clicks" // longest same-target click burst
	SignalFrictionDeadClicks  = "friction_dead_clicks"
	SignalFrictionLongPauses  = "friction_long_pauses"
	SignalFrictionFormAbandon = "friction_form_abandon"
	SignalFrictionCartAbandon = "friction_cart_abandon"
	SignalFrictionErrors      = "friction_errors"
	SignalFrictionScore       = "friction_score" // composite in [0,1]
)

// FrictionExtractor aggregates high-intensity negative interaction signals
// into a friction score.
type FrictionExtractor struct {
	// RapidWindow is the window within which repeated clicks at the same
	// target count as one burst.
	RapidWindow time.Duration
	// BurstMin is the minimum burst length worth reporting.
	BurstMin int
	// LongPause is the gap length treated as a hesitation pause.
	LongPause time.Duration
	// CartIdle is how long a cart may sit untouched before it counts as
	// abandoned when no checkout followed.
	CartIdle time.Duration
}

// NewFrictionExtractor returns a friction extractor with default tuning.
func NewFrictionExtractor() *FrictionExtractor {
	return &FrictionExtractor{
		RapidWindow: 3 * time.Second,
		BurstMin:    3,
		LongPause:   60 * time.Second,
		CartIdle:    5 * time.Minute,
	}
}

func (x *FrictionExtractor) Name() string { return "friction" }

func (x *FrictionExtractor) Extract(s *intent.Session) []intent.Signal {
	events := s.Events()
	if len(events) == 0 {
		return nil
	}
	last := events[len(events)-1].Timestamp
	var sigs []intent.Signal

	burstLen, burstEvidence := x.longestClickBurst(events)
	if burstLen >= x.BurstMin {
		sigs = append(sigs, intent.Signal{
			Name:      SignalFrictionRapidClicks,
			Value:     float64(burstLen),
			Timestamp: events[burstEvidence[len(burstEvidence)-1]].Timestamp,
			Evidence:  burstEvidence,
		})
	} else {
		burstLen = 0
	}

	var deadEvidence []int
	for i, ev := range events {
		if ev.Type == intent.Click && ev.BoolProp("dead_click") {
			deadEvidence = append(deadEvidence, i)
		}
	}
	if len(deadEvidence) > 0 {
		sigs = append(sigs, intent.Signal{
			Name:      SignalFrictionDeadClicks,
			Value:     float64(len(deadEvidence)),
			Timestamp: events[deadEvidence[len(deadEvidence)-1]].Timestamp,
			Evidence:  deadEvidence,
		})
	}

	pauses := 0
	for _, gap := range s.Gaps() {
		if gap >= x.LongPause {
			pauses++
		}
	}
	if pauses > 0 {
		sigs = append(sigs, intent.Signal{Name: SignalFrictionLongPauses, Value: float64(pauses), Timestamp: last})
	}

	counts := s.CountByType()
	formAbandon := counts[intent.FormStart] > counts[intent.FormSubmit]
	if formAbandon {
		sigs = append(sigs, intent.Signal{Name: SignalFrictionFormAbandon, Value: 1, Timestamp: last})
	}

	cartAbandon := x.cartAbandoned(events, counts)
	if cartAbandon {
		sigs = append(sigs, intent.Signal{Name: SignalFrictionCartAbandon, Value: 1, Timestamp: last})
	}

	errors := 0
	for _, ev := range events {
		if strings.Contains(strings.ToLower(string(ev.Type)), "error") {
			errors++
		}
	}
	if errors > 0 {
		sigs = append(sigs, intent.Signal{Name: SignalFrictionErrors, Value: float64(errors), Timestamp: last})
	}

	score := x.score(burstLen, len(deadEvidence), pauses, formAbandon, cartAbandon, errors)
	if score > 0 {
		sigs = append(sigs, intent.Signal{Name: SignalFrictionScore, Value: score, Timestamp: last})
	}
	return sigs
}

// longestClickBurst finds the longest run of clicks at one target where each
// click follows the previous within the rapid window.
func (x *FrictionExtractor) longestClickBurst(events []intent.Event) (int, []int) {
	var best []int
	var run []int
	var runTarget string
	for i, ev := range events {
		if ev.Type != intent.Click {
			continue
		}
		target := ev.StringProp("target")
		if target == "" {
			target = ev.StringProp("element")
		}
		extend := len(run) > 0 && target == runTarget &&
			ev.Timestamp.Sub(events[run[len(run)-1]].Timestamp) <= x.RapidWindow
		if extend {
			run = append(run, i)
		} else {
			run = []int{i}
			runTarget = target
		}
		if len(run) > len(best) {
			best = append([]int(nil), run...)
		}
	}
	return len(best), best
}

func (x *FrictionExtractor) cartAbandoned(events []intent.Event, counts map[intent.EventType]int) bool {
	if counts[intent.AddToCart] == 0 {
		return false
	}
	if counts[intent.CheckoutStarted] > 0 || counts[intent.CheckoutCompleted] > 0 || counts[intent.Purchase] > 0 {
		return false
	}
	if counts[intent.RemoveFromCart] > 0 {
		return true
	}
	// Cart left idle: a long quiet stretch after the last cart action.
	var lastCart time.Time
	for _, ev := range events {
		if ev.Type == intent.AddToCart {
			lastCart = ev.Timestamp
		}
	}
	return events[len(events)-1].Timestamp.Sub(lastCart) >= x.CartIdle
}

func (x *FrictionExtractor) score(burstLen, deadClicks, pauses int, formAbandon, cartAbandon bool, errors int) float64 {
	score := 0.0
	if burstLen > 0 {
		score += min2(0.4, 0.08*float64(burstLen))
	}
	if deadClicks > 0 {
		score += min2(0.2, 0.05*float64(deadClicks))
	}
	if pauses > 0 {
		score += min2(0.2, 0.05*float64(pauses))
	}
	if formAbandon {
		score += 0.3
	}
	if cartAbandon {
		score += 0.3
	}
	if errors > 0 {
		score += min2(0.15, 0.1*float64(errors))
	}
	return clamp01(score)
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
