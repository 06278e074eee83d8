package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/intentlens/intentlens/internal/logger"
	"github.com/intentlens/intentlens/internal/store"
	"github.com/spf13/cobra"
)

var (
	sessionsLimit int
	sessionsJSON  bool
	sessionsTTL   string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage stored sessions",
	Long: `Manage sessions persisted by 'intentlens infer --store'.

Example:
  intentlens sessions list
  intentlens sessions show <session-id>
  intentlens sessions delete <session-id>
  intentlens sessions cleanup --ttl 168h`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a stored session's events and trajectory",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a stored session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete sessions older than the retention window",
	RunE:  runSessionsCleanup,
}

func init() {
	sessionsListCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Maximum number of sessions to show")
	sessionsShowCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Output as JSON")
	sessionsCleanupCmd.Flags().StringVar(&sessionsTTL, "ttl", "", "Retention window (e.g. '168h'), defaults to configured session_ttl")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsCleanupCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func openStore() (store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	initLogging(cfg)

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return st, nil
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	recs, err := st.ListSessions()
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No stored sessions found.")
		return nil
	}
	if len(recs) > sessionsLimit {
		recs = recs[:sessionsLimit]
	}

	fmt.Printf("%-24s %-16s %-20s %7s  %s\n", "SESSION", "USER", "LAST SEEN", "EVENTS", "STATE")
	for _, rec := range recs {
		state := rec.LastState
		if state == "" {
			state = "-"
		}
		fmt.Printf("%-24s %-16s %-20s %7d  %s\n",
			rec.SessionID, rec.UserID,
			rec.LastSeenAt.Format("2006-01-02 15:04:05"),
			rec.EventCount, state)
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	session, err := st.LoadSession(args[0])
	if err != nil {
		return err
	}

	if sessionsJSON {
		return writeJSON(os.Stdout, struct {
			SessionID  string      `json:"session_id"`
			UserID     string      `json:"user_id"`
			Events     interface{} `json:"events"`
			Trajectory interface{} `json:"trajectory"`
		}{
			SessionID:  session.ID,
			UserID:     session.UserID,
			Events:     session.Events(),
			Trajectory: session.Trajectory(),
		})
	}

	fmt.Printf("Session %s (user %s)\n", session.ID, session.UserID)
	fmt.Println("Events:")
	for i := 0; i < session.Len(); i++ {
		ev := session.Event(i)
		fmt.Printf("  %s  %s\n", ev.Timestamp.Format("15:04:05"), ev.Type)
	}
	trajectory := session.Trajectory()
	if len(trajectory) > 0 {
		fmt.Println("Trajectory:")
		for _, s := range trajectory {
			fmt.Printf("  %s  %-18s %.2f\n", s.Timestamp.Format("15:04:05"), s.State, s.Confidence)
		}
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.DeleteSession(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s\n", args[0])
	return nil
}

func runSessionsCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogging(cfg)

	ttl := cfg.SessionTTL(30 * 24 * time.Hour)
	if sessionsTTL != "" {
		parsed, err := time.ParseDuration(sessionsTTL)
		if err != nil {
			return fmt.Errorf("invalid --ttl value: %w", err)
		}
		ttl = parsed
	}

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() { _ = st.Close() }()

	n, err := st.CleanupOldSessions(ttl)
	if err != nil {
		return err
	}
	logger.Debug().Int64("removed", n).Msg("Session cleanup finished")
	fmt.Printf("Removed %d sessions older than %s\n", n, ttl)
	return nil
}
