package signals

import "github.com/intentlens/intentlens/internal/intent"

// Signal names emitted by the price extractor.
const (
	SignalPriceChecks   = "price_checks" // events carrying a price property
	SignalPriceRange    = "price_range"
	SignalPriceDiscount = "price_discount_seeking"
	SignalPriceScore    = "price_score" // composite in [0,1]
)

var priceKeys = []string{"price", "amount", "value", "cost"}

var discountKeywords = []string{"discount", "coupon", "sale", "deal", "promo", "clearance"}

// PriceExtractor detects repeated price inspection and discount-seeking
// behavior.
type PriceExtractor struct {
	// WideRange is the viewed price spread that counts as price shopping.
	WideRange float64
}

// NewPriceExtractor returns a price extractor with default tuning.
func NewPriceExtractor() *PriceExtractor {
	return &PriceExtractor{WideRange: 100}
}

func (x *PriceExtractor) Name() string { return "price" }

func (x *PriceExtractor) Extract(s *intent.Session) []intent.Signal {
	events := s.Events()

	var viewed, cart, removed []float64
	var checkEvidence, discountEvidence []int
	for i, ev := range events {
		price, ok := priceOf(ev)
		if ok {
			checkEvidence = append(checkEvidence, i)
			switch ev.Type {
			case intent.AddToCart:
				cart = append(cart, price)
			case intent.RemoveFromCart:
				removed = append(removed, price)
			default:
				viewed = append(viewed, price)
			}
		}
		if containsAny(pageOf(ev), discountKeywords) ||
			containsAny(ev.StringProp("target"), discountKeywords) ||
			containsAny(string(ev.Type), discountKeywords) {
			discountEvidence = append(discountEvidence, i)
		}
	}

	if len(checkEvidence) == 0 && len(discountEvidence) == 0 {
		return nil
	}
	last := events[len(events)-1].Timestamp
	var sigs []intent.Signal

	if len(checkEvidence) > 0 {
		sigs = append(sigs, intent.Signal{
			Name:      SignalPriceChecks,
			Value:     float64(len(checkEvidence)),
			Timestamp: events[checkEvidence[len(checkEvidence)-1]].Timestamp,
			Evidence:  checkEvidence,
		})
	}
	spread := rangeOf(append(append([]float64(nil), viewed...), cart...))
	if spread > 0 {
		sigs = append(sigs, intent.Signal{Name: SignalPriceRange, Value: spread, Timestamp: last})
	}
	if len(discountEvidence) > 0 {
		sigs = append(sigs, intent.Signal{
			Name:      SignalPriceDiscount,
			Value:     float64(len(discountEvidence)),
			Timestamp: events[discountEvidence[len(discountEvidence)-1]].Timestamp,
			Evidence:  discountEvidence,
		})
	}

	score := 0.0
	if len(viewed) > 1 {
		score += 0.3
	}
	if lowerPricePreference(viewed, cart) {
		score += 0.3
	}
	if len(removed) > 0 {
		score += 0.2
	}
	if spread > x.WideRange {
		score += 0.2
	}
	if n := len(discountEvidence); n > 0 {
		score += min2(0.3, 0.1*float64(n))
	}
	if score > 0 {
		sigs = append(sigs, intent.Signal{Name: SignalPriceScore, Value: clamp01(score), Timestamp: last})
	}
	return sigs
}

func priceOf(ev intent.Event) (float64, bool) {
	for _, key := range priceKeys {
		if v, ok := ev.FloatProp(key); ok {
			return v, true
		}
	}
	return 0, false
}

func rangeOf(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	min, max := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return max - min
}

func lowerPricePreference(viewed, cart []float64) bool {
	if len(viewed) == 0 || len(cart) == 0 {
		return false
	}
	return avg(cart) < avg(viewed)
}

func avg(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
