package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/intentlens/intentlens/internal/engine"
	"github.com/intentlens/intentlens/internal/explain"
	"github.com/intentlens/intentlens/internal/ingest"
	"github.com/intentlens/intentlens/internal/intent"
	"github.com/intentlens/intentlens/internal/store"
	"github.com/spf13/cobra"
)

var (
	explainSource  string
	explainSession string
	explainJSON    bool
)

var explainCmd = &cobra.Command{
	Use:   "explain [file]",
	Short: "Explain a session's inferred intent",
	Long: `Explain a session's inferred intent.

Either replays a raw event file (JSON array or NDJSON) through the engine,
or loads a previously stored session with --session. Prints a summary with
the current intent state, its attribution, the trajectory, and insights.

Example:
  intentlens explain events.json --source amplitude
  intentlens explain --session sess-42 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().StringVarP(&explainSource, "source", "s", "", "Source format (generic, segment, amplitude)")
	explainCmd.Flags().StringVar(&explainSession, "session", "", "Explain a stored session instead of reading events")
	explainCmd.Flags().BoolVar(&explainJSON, "json", false, "Output the summary as JSON")
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogging(cfg)

	var session *intent.Session
	if explainSession != "" {
		st, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		defer func() { _ = st.Close() }()
		session, err = st.LoadSession(explainSession)
		if err != nil {
			return err
		}
	} else {
		raws, err := readRawEvents(args)
		if err != nil {
			return err
		}
		if len(raws) == 0 {
			return fmt.Errorf("no input events")
		}
		normalizer, err := ingest.ForSource(explainSource)
		if err != nil {
			return err
		}
		events, err := normalizer.NormalizeAll(raws)
		if err != nil {
			return fmt.Errorf("failed to normalize events: %w", err)
		}

		eng, err := engine.New(cfg)
		if err != nil {
			return err
		}
		session = intent.NewSession(events[0].SessionID, events[0].UserID, events[0].Timestamp)
		for _, ev := range events {
			if err := session.Append(ev); err != nil {
				return fmt.Errorf("rejected event: %w", err)
			}
			eng.Tick(session)
		}
	}

	summary := explain.Summarize(session)
	if explainJSON {
		return writeJSON(os.Stdout, summary)
	}
	printSummary(summary)
	return nil
}

func printSummary(s explain.Summary) {
	fmt.Printf("Session %s (user %s)\n", s.SessionID, s.UserID)
	fmt.Printf("  Events:   %d over %.0fs\n", s.EventCount, s.DurationSeconds)

	if s.CurrentState == nil {
		fmt.Println("  No intent state inferred.")
		return
	}
	cur := s.CurrentState
	fmt.Printf("  Intent:   %s (%.2f)\n", cur.State, cur.Confidence)
	fmt.Printf("  Why:      %s\n", cur.Narrative)
	for _, att := range cur.Attribution {
		line := fmt.Sprintf("    - %s (%.0f%%)", att.RuleID, att.Weight*100)
		if len(att.Signals) > 0 {
			line += ": " + strings.Join(att.Signals, ", ")
		}
		fmt.Println(line)
	}

	if len(s.Trajectory) > 1 {
		fmt.Println("  Trajectory:")
		for _, st := range s.Trajectory {
			fmt.Printf("    %s  %-18s %.2f\n", st.Timestamp.Format("15:04:05"), st.State, st.Confidence)
		}
	}
	for _, insight := range s.Insights {
		fmt.Printf("  Insight:  %s\n", insight)
	}
}
