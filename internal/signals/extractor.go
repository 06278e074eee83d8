// Package signals contains the built-in signal extractors: pure functions
// that scan a session's event log and emit typed measurements for the rule
// layer. Extractors tolerate missing or irrelevant properties by emitting
// nothing, and are order-stable: identical sessions yield identical signals.
package signals

import (
	"sort"
	"strings"

	"github.com/intentlens/intentlens/internal/intent"
)

// Extractor derives signals from a session snapshot. Implementations must be
// deterministic and side-effect free.
type Extractor interface {
	Name() string
	Extract(s *intent.Session) []intent.Signal
}

// Defaults returns the built-in extractor set with default tuning.
func Defaults() []Extractor {
	return []Extractor{
		NewDwellExtractor(),
		NewNavigationExtractor(),
		NewComparisonExtractor(),
		NewFrictionExtractor(),
		NewPriceExtractor(),
	}
}

// Sort orders a combined signal set for reproducible downstream processing.
func Sort(sigs []intent.Signal) {
	sort.SliceStable(sigs, func(i, j int) bool {
		if sigs[i].Name != sigs[j].Name {
			return sigs[i].Name < sigs[j].Name
		}
		return sigs[i].Timestamp.Before(sigs[j].Timestamp)
	})
}

func pageOf(ev intent.Event) string {
	if p := ev.StringProp("page"); p != "" {
		return p
	}
	if p := ev.StringProp("url"); p != "" {
		return p
	}
	return "unknown"
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
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
