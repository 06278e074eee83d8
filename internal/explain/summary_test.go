package explain

import (
	"strings"
	"testing"
	"time"

	"github.com/intentlens/intentlens/internal/intent"
)

var summaryStart = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func summarySession(t *testing.T, states ...intent.IntentState) *intent.Session {
	t.Helper()
	s := intent.NewSession("sess-1", "user-1", summaryStart)
	events := []intent.Event{
		{Type: intent.PageView, Timestamp: summaryStart, UserID: "user-1", SessionID: "sess-1"},
		{Type: intent.AddToCart, Timestamp: summaryStart.Add(90 * time.Second), UserID: "user-1", SessionID: "sess-1"},
	}
	if err := s.AppendAll(events); err != nil {
		t.Fatalf("AppendAll: %v", err)
	}
	for _, st := range states {
		s.Record(st)
	}
	return s
}

func hasInsight(insights []string, substr string) bool {
	for _, in := range insights {
		if strings.Contains(in, substr) {
			return true
		}
	}
	return false
}

func TestSummarizeBasics(t *testing.T) {
	s := summarySession(t, intent.IntentState{State: intent.StatePurchaseReady, Confidence: 0.85})

	sum := Summarize(s)
	if sum.SessionID != "sess-1" || sum.UserID != "user-1" {
		t.Errorf("identity = %q, %q", sum.SessionID, sum.UserID)
	}
	if sum.EventCount != 2 || sum.DurationSeconds != 90 {
		t.Errorf("counts = %d events, %vs", sum.EventCount, sum.DurationSeconds)
	}
	if sum.CurrentState == nil || sum.CurrentState.State != intent.StatePurchaseReady {
		t.Fatalf("current state = %+v", sum.CurrentState)
	}
	if !hasInsight(sum.Insights, "conversion opportunity") {
		t.Errorf("insights = %+v", sum.Insights)
	}
}

func TestSummarizeWithoutTrajectory(t *testing.T) {
	s := summarySession(t)
	sum := Summarize(s)
	if sum.CurrentState != nil {
		t.Errorf("CurrentState = %+v, want nil", sum.CurrentState)
	}
	if len(sum.Insights) != 0 {
		t.Errorf("insights = %+v, want none", sum.Insights)
	}
}

func TestSummarizeInsights(t *testing.T) {
	t.Run("low confidence", func(t *testing.T) {
		s := summarySession(t, intent.IntentState{State: intent.StateBrowsing, Confidence: 0.3})
		if !hasInsight(Summarize(s).Insights, "ambiguous") {
			t.Errorf("insights = %+v", Summarize(s).Insights)
		}
	})

	t.Run("abandonment risk", func(t *testing.T) {
		s := summarySession(t, intent.IntentState{State: intent.StateAbandonmentRisk, Confidence: 0.7})
		if !hasInsight(Summarize(s).Insights, "intervention") {
			t.Errorf("insights = %+v", Summarize(s).Insights)
		}
	})

	t.Run("volatile trajectory", func(t *testing.T) {
		s := summarySession(t,
			intent.IntentState{State: intent.StateBrowsing, Confidence: 0.6},
			intent.IntentState{State: intent.StateEvaluatingOptions, Confidence: 0.6},
			intent.IntentState{State: intent.StateHesitating, Confidence: 0.6},
			intent.IntentState{State: intent.StatePriceSensitive, Confidence: 0.6},
			intent.IntentState{State: intent.StateTrustSeeking, Confidence: 0.6},
		)
		if !hasInsight(Summarize(s).Insights, "evolving") {
			t.Errorf("insights = %+v", Summarize(s).Insights)
		}
	})

	t.Run("stable trajectory", func(t *testing.T) {
		s := summarySession(t,
			intent.IntentState{State: intent.StateBrowsing, Confidence: 0.6},
			intent.IntentState{State: intent.StateBrowsing, Confidence: 0.65},
		)
		if hasInsight(Summarize(s).Insights, "evolving") {
			t.Errorf("insights = %+v", Summarize(s).Insights)
		}
	})
}
