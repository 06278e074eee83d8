package signals

import (
	"testing"
	"time"

	"github.com/intentlens/intentlens/internal/intent"
)

func pv(offset time.Duration, page string) intent.Event {
	return ev(intent.PageView, offset, map[string]interface{}{"page": page})
}

func TestNavigationExtractor(t *testing.T) {
	x := NewNavigationExtractor()

	t.Run("no page views", func(t *testing.T) {
		s := buildSession(t, ev(intent.Click, 0, nil))
		if sigs := x.Extract(s); sigs != nil {
			t.Errorf("Extract() = %+v, want nil", sigs)
		}
	})

	t.Run("counts and uniques", func(t *testing.T) {
		s := buildSession(t,
			pv(0, "/a"),
			pv(10*time.Second, "/b"),
			pv(20*time.Second, "/a"),
		)
		sigs := x.Extract(s)
		wantSignal(t, sigs, SignalNavPageViews, 3)
		wantSignal(t, sigs, SignalNavUniquePages, 2)
	})

	t.Run("loops within window", func(t *testing.T) {
		s := buildSession(t,
			pv(0, "/a"),
			pv(10*time.Second, "/b"),
			pv(20*time.Second, "/a"),
			pv(30*time.Second, "/b"),
		)
		loops := wantSignal(t, x.Extract(s), SignalNavLoops, 2)
		if len(loops.Evidence) != 2 {
			t.Errorf("loop evidence = %v", loops.Evidence)
		}
	})

	t.Run("revisit outside window is not a loop", func(t *testing.T) {
		s := buildSession(t,
			pv(0, "/a"),
			pv(10*time.Second, "/b"),
			pv(20*time.Second, "/c"),
			pv(30*time.Second, "/d"),
			pv(40*time.Second, "/e"),
			pv(50*time.Second, "/a"),
		)
		wantNoSignal(t, x.Extract(s), SignalNavLoops)
	})

	t.Run("explicit back navigation", func(t *testing.T) {
		s := buildSession(t,
			pv(0, "/a"),
			ev(intent.PageView, 10*time.Second, map[string]interface{}{"page": "/b", "navigation_type": "back"}),
		)
		wantSignal(t, x.Extract(s), SignalNavBacktracks, 1)
	})

	t.Run("a-b-a pattern is a backtrack", func(t *testing.T) {
		s := buildSession(t,
			pv(0, "/a"),
			pv(10*time.Second, "/b"),
			pv(20*time.Second, "/a"),
		)
		back := wantSignal(t, x.Extract(s), SignalNavBacktracks, 1)
		if len(back.Evidence) != 1 || back.Evidence[0] != 2 {
			t.Errorf("backtrack evidence = %v", back.Evidence)
		}
	})

	t.Run("trust content views", func(t *testing.T) {
		s := buildSession(t,
			pv(0, "/product/1"),
			pv(10*time.Second, "/reviews/product-1"),
			pv(20*time.Second, "/shipping-policy"),
		)
		trust := wantSignal(t, x.Extract(s), SignalNavTrustViews, 2)
		if len(trust.Evidence) != 2 {
			t.Errorf("trust evidence = %v", trust.Evidence)
		}
	})

	t.Run("trust page_type marker", func(t *testing.T) {
		s := buildSession(t,
			ev(intent.PageView, 0, map[string]interface{}{"page": "/p/99", "page_type": "trust"}),
		)
		wantSignal(t, x.Extract(s), SignalNavTrustViews, 1)
	})
}
