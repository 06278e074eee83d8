package signals

import (
	"time"

	"github.com/intentlens/intentlens/internal/intent"
)

// Signal names emitted by the dwell extractor. Values are seconds unless
// noted otherwise.
const (
	SignalDwellAvg        = "dwell_avg"
	SignalDwellMax        = "dwell_max"
	SignalDwellLongCount  = "dwell_long_count" // count of gaps >= LongDwell
	SignalDwellComparison = "dwell_comparison" // seconds spent on comparison-type pages
)

var comparisonPageKeywords = []string{"compare", "comparison", "vs"}

// DwellExtractor measures time spent between events and on individual pages.
type DwellExtractor struct {
	// LongDwell is the minimum gap considered a deliberate engagement pause.
	LongDwell time.Duration
}

// NewDwellExtractor returns a dwell extractor with default tuning.
func NewDwellExtractor() *DwellExtractor {
	return &DwellExtractor{LongDwell: 5 * time.Second}
}

func (x *DwellExtractor) Name() string { return "dwell" }

func (x *DwellExtractor) Extract(s *intent.Session) []intent.Signal {
	events := s.Events()
	if len(events) < 2 {
		return nil
	}
	last := events[len(events)-1].Timestamp

	var total, max float64
	var maxIdx int
	var longEvidence []int
	for i := 1; i < len(events); i++ {
		gap := events[i].Timestamp.Sub(events[i-1].Timestamp).Seconds()
		total += gap
		if gap > max {
			max = gap
			maxIdx = i
		}
		if gap >= x.LongDwell.Seconds() {
			longEvidence = append(longEvidence, i)
		}
	}
	avg := total / float64(len(events)-1)

	sigs := []intent.Signal{
		{Name: SignalDwellAvg, Value: avg, Timestamp: last},
		{Name: SignalDwellMax, Value: max, Timestamp: events[maxIdx].Timestamp, Evidence: []int{maxIdx - 1, maxIdx}},
	}
	if len(longEvidence) > 0 {
		sigs = append(sigs, intent.Signal{
			Name:      SignalDwellLongCount,
			Value:     float64(len(longEvidence)),
			Timestamp: last,
			Evidence:  longEvidence,
		})
	}
	if sig, ok := x.comparisonDwell(events); ok {
		sigs = append(sigs, sig)
	}
	return sigs
}

// comparisonDwell accumulates time spent on pages that look like comparison
// content, attributing each page view's dwell until the next page view or
// the session's last event.
func (x *DwellExtractor) comparisonDwell(events []intent.Event) (intent.Signal, bool) {
	var views []int
	for i, ev := range events {
		if ev.Type == intent.PageView {
			views = append(views, i)
		}
	}
	var seconds float64
	var evidence []int
	for vi, i := range views {
		page := pageOf(events[i])
		if !containsAny(page, comparisonPageKeywords) && events[i].StringProp("page_type") != "comparison" {
			continue
		}
		until := events[len(events)-1].Timestamp
		if vi < len(views)-1 {
			until = events[views[vi+1]].Timestamp
		}
		seconds += until.Sub(events[i].Timestamp).Seconds()
		evidence = append(evidence, i)
	}
	if len(evidence) == 0 || seconds <= 0 {
		return intent.Signal{}, false
	}
	return intent.Signal{
		Name:      SignalDwellComparison,
		Value:     seconds,
		Timestamp: events[evidence[len(evidence)-1]].Timestamp,
		Evidence:  evidence,
	}, true
}
