package signals

import "github.com/intentlens/intentlens/internal/intent"

// Signal names emitted by the comparison extractor.
const (
	SignalCmpUniqueProducts   = "cmp_unique_products"
	SignalCmpUniqueCategories = "cmp_unique_categories"
	SignalCmpReturns          = "cmp_returns" // cross-item revisits (A, B, A)
	SignalCmpScore            = "cmp_score"   // composite in [0,1]
)

// ComparisonExtractor counts cross-item views that indicate option
// evaluation.
type ComparisonExtractor struct{}

// NewComparisonExtractor returns a comparison extractor.
func NewComparisonExtractor() *ComparisonExtractor { return &ComparisonExtractor{} }

func (x *ComparisonExtractor) Name() string { return "comparison" }

func (x *ComparisonExtractor) Extract(s *intent.Session) []intent.Signal {
	events := s.Events()

	products := make(map[string]struct{})
	categories := make(map[string]struct{})
	var viewIdx []int
	var returnEvidence []int
	seen := make(map[string]struct{})
	var prev string

	for i, ev := range events {
		if ev.Type != intent.ProductView {
			continue
		}
		id := ev.StringProp("product_id")
		if id == "" {
			id = ev.StringProp("productId")
		}
		if id == "" {
			continue
		}
		products[id] = struct{}{}
		if c := ev.StringProp("category"); c != "" {
			categories[c] = struct{}{}
		}
		if _, ok := seen[id]; ok && prev != "" && prev != id {
			returnEvidence = append(returnEvidence, i)
		}
		seen[id] = struct{}{}
		prev = id
		viewIdx = append(viewIdx, i)
	}

	if len(viewIdx) == 0 {
		return nil
	}
	last := events[viewIdx[len(viewIdx)-1]].Timestamp

	score := 0.0
	switch {
	case len(products) >= 3:
		score += 0.5
	case len(products) >= 2:
		score += 0.3
	}
	if len(categories) >= 2 {
		score += 0.3
	}
	if len(returnEvidence) > 0 {
		score += 0.2
	}

	sigs := []intent.Signal{
		{Name: SignalCmpUniqueProducts, Value: float64(len(products)), Timestamp: last, Evidence: viewIdx},
		{Name: SignalCmpScore, Value: clamp01(score), Timestamp: last},
	}
	if len(categories) > 0 {
		sigs = append(sigs, intent.Signal{Name: SignalCmpUniqueCategories, Value: float64(len(categories)), Timestamp: last})
	}
	if len(returnEvidence) > 0 {
		sigs = append(sigs, intent.Signal{
			Name:      SignalCmpReturns,
			Value:     float64(len(returnEvidence)),
			Timestamp: events[returnEvidence[len(returnEvidence)-1]].Timestamp,
			Evidence:  returnEvidence,
		})
	}
	return sigs
}
