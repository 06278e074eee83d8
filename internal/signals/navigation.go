package signals

import "github.com/intentlens/intentlens/internal/intent"

// Signal names emitted by the navigation extractor.
const (
	SignalNavPageViews   = "nav_page_views"
	SignalNavUniquePages = "nav_unique_pages"
	SignalNavLoops       = "nav_loops"       // revisits within the loop window
	SignalNavBacktracks  = "nav_backtracks"  // back-navigation events
	SignalNavTrustViews  = "nav_trust_views" // views of trust-related content
)

var trustPageKeywords = []string{
	"review", "testimonial", "policy", "policies", "returns",
	"shipping", "guarantee", "warranty", "faq", "about",
}

// NavigationExtractor detects navigation loops, back-navigation bursts and
// visits to trust-related content.
type NavigationExtractor struct {
	// LoopWindow bounds how far back a page revisit still counts as a loop.
	LoopWindow int
}

// NewNavigationExtractor returns a navigation extractor with default tuning.
func NewNavigationExtractor() *NavigationExtractor {
	return &NavigationExtractor{LoopWindow: 4}
}

func (x *NavigationExtractor) Name() string { return "navigation" }

func (x *NavigationExtractor) Extract(s *intent.Session) []intent.Signal {
	events := s.Events()

	var pages []string
	var viewIdx []int
	unique := make(map[string]struct{})
	var loopEvidence, backEvidence, trustEvidence []int

	for i, ev := range events {
		if containsAny(string(ev.Type), trustPageKeywords) {
			trustEvidence = append(trustEvidence, i)
		}
		if ev.Type != intent.PageView {
			continue
		}
		page := pageOf(ev)
		if _, seen := unique[page]; !seen {
			unique[page] = struct{}{}
		}
		// Loop: the same page reappears within the bounded window.
		start := len(pages) - x.LoopWindow
		if start < 0 {
			start = 0
		}
		for _, prev := range pages[start:] {
			if prev == page {
				loopEvidence = append(loopEvidence, i)
				break
			}
		}
		if ev.StringProp("navigation_type") == "back" {
			backEvidence = append(backEvidence, i)
		} else if n := len(pages); n >= 2 && pages[n-2] == page {
			// A-B-A is a backtrack even without an explicit marker.
			backEvidence = append(backEvidence, i)
		}
		if containsAny(page, trustPageKeywords) || ev.StringProp("page_type") == "trust" {
			trustEvidence = append(trustEvidence, i)
		}
		pages = append(pages, page)
		viewIdx = append(viewIdx, i)
	}

	if len(pages) == 0 && len(trustEvidence) == 0 {
		return nil
	}
	var sigs []intent.Signal
	if len(pages) > 0 {
		last := events[viewIdx[len(viewIdx)-1]].Timestamp
		sigs = append(sigs,
			intent.Signal{Name: SignalNavPageViews, Value: float64(len(pages)), Timestamp: last, Evidence: viewIdx},
			intent.Signal{Name: SignalNavUniquePages, Value: float64(len(unique)), Timestamp: last},
		)
		if len(loopEvidence) > 0 {
			sigs = append(sigs, intent.Signal{
				Name:      SignalNavLoops,
				Value:     float64(len(loopEvidence)),
				Timestamp: events[loopEvidence[len(loopEvidence)-1]].Timestamp,
				Evidence:  loopEvidence,
			})
		}
		if len(backEvidence) > 0 {
			sigs = append(sigs, intent.Signal{
				Name:      SignalNavBacktracks,
				Value:     float64(len(backEvidence)),
				Timestamp: events[backEvidence[len(backEvidence)-1]].Timestamp,
				Evidence:  backEvidence,
			})
		}
	}
	if len(trustEvidence) > 0 {
		trustEvidence = dedupInts(trustEvidence)
		sigs = append(sigs, intent.Signal{
			Name:      SignalNavTrustViews,
			Value:     float64(len(trustEvidence)),
			Timestamp: events[trustEvidence[len(trustEvidence)-1]].Timestamp,
			Evidence:  trustEvidence,
		})
	}
	return sigs
}

func dedupInts(in []int) []int {
	out := in[:0]
	var prev int = -1
	for _, v := range in {
		if v != prev {
			out = append(out, v)
		}
		prev = v
	}
	return out
}
