package signals

import (
	"testing"
	"time"

	"github.com/intentlens/intentlens/internal/intent"
)

func TestDwellExtractor(t *testing.T) {
	x := NewDwellExtractor()

	t.Run("too few events", func(t *testing.T) {
		s := buildSession(t, ev(intent.PageView, 0, nil))
		if sigs := x.Extract(s); sigs != nil {
			t.Errorf("Extract() = %+v, want nil", sigs)
		}
	})

	t.Run("gap statistics", func(t *testing.T) {
		s := buildSession(t,
			ev(intent.PageView, 0, nil),
			ev(intent.Click, 2*time.Second, nil),
			ev(intent.Click, 12*time.Second, nil),
			ev(intent.PageView, 16*time.Second, nil),
		)
		sigs := x.Extract(s)

		wantSignal(t, sigs, SignalDwellAvg, (2.0+10.0+4.0)/3.0)
		max := wantSignal(t, sigs, SignalDwellMax, 10)
		if len(max.Evidence) != 2 || max.Evidence[0] != 1 || max.Evidence[1] != 2 {
			t.Errorf("dwell_max evidence = %v", max.Evidence)
		}
		long := wantSignal(t, sigs, SignalDwellLongCount, 1)
		if len(long.Evidence) != 1 || long.Evidence[0] != 2 {
			t.Errorf("dwell_long_count evidence = %v", long.Evidence)
		}
	})

	t.Run("no long gaps", func(t *testing.T) {
		s := buildSession(t,
			ev(intent.PageView, 0, nil),
			ev(intent.Click, time.Second, nil),
		)
		sigs := x.Extract(s)
		wantNoSignal(t, sigs, SignalDwellLongCount)
	})

	t.Run("comparison page dwell", func(t *testing.T) {
		s := buildSession(t,
			ev(intent.PageView, 0, map[string]interface{}{"page": "/home"}),
			ev(intent.PageView, 10*time.Second, map[string]interface{}{"page": "/compare/shoes"}),
			ev(intent.PageView, 40*time.Second, map[string]interface{}{"page": "/product/1"}),
		)
		cmp := wantSignal(t, x.Extract(s), SignalDwellComparison, 30)
		if len(cmp.Evidence) != 1 || cmp.Evidence[0] != 1 {
			t.Errorf("dwell_comparison evidence = %v", cmp.Evidence)
		}
	})

	t.Run("page_type marker counts as comparison", func(t *testing.T) {
		s := buildSession(t,
			ev(intent.PageView, 0, map[string]interface{}{"page": "/p/123", "page_type": "comparison"}),
			ev(intent.Click, 20*time.Second, nil),
		)
		wantSignal(t, x.Extract(s), SignalDwellComparison, 20)
	})
}
