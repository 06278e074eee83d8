package explain

import (
	"github.com/intentlens/intentlens/internal/intent"
)

// Summary is a structured overview of one session and its trajectory.
type Summary struct {
	SessionID       string               `json:"session_id"`
	UserID          string               `json:"user_id"`
	DurationSeconds float64              `json:"duration_seconds"`
	EventCount      int                  `json:"event_count"`
	CurrentState    *intent.IntentState  `json:"current_state,omitempty"`
	Trajectory      []intent.IntentState `json:"trajectory"`
	Insights        []string             `json:"insights,omitempty"`
}

// Summarize builds a session summary with key insights for downstream
// consumers. Insight text is deterministic for a given trajectory.
func Summarize(s *intent.Session) Summary {
	summary := Summary{
		SessionID:       s.ID,
		UserID:          s.UserID,
		DurationSeconds: s.Duration().Seconds(),
		EventCount:      s.Len(),
		Trajectory:      s.Trajectory(),
	}
	current, ok := s.Current()
	if !ok {
		return summary
	}
	summary.CurrentState = &current

	if current.Confidence < 0.5 {
		summary.Insights = append(summary.Insights,
			"low confidence in current intent state: behavior is ambiguous")
	}
	switch current.State {
	case intent.StateAbandonmentRisk:
		summary.Insights = append(summary.Insights,
			"user shows signs of abandonment: intervention may be needed")
	case intent.StatePurchaseReady:
		summary.Insights = append(summary.Insights,
			"user appears ready to purchase: conversion opportunity")
	}
	if changes := stateChanges(summary.Trajectory); changes > 3 {
		summary.Insights = append(summary.Insights,
			"multiple state changes: intent is evolving rapidly")
	}
	return summary
}

func stateChanges(trajectory []intent.IntentState) int {
	changes := 0
	for i := 1; i < len(trajectory); i++ {
		if trajectory[i].State != trajectory[i-1].State {
			changes++
		}
	}
	return changes
}
