package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/intentlens/intentlens/internal/config"
	"github.com/intentlens/intentlens/internal/engine"
	"github.com/intentlens/intentlens/internal/ingest"
	"github.com/intentlens/intentlens/internal/intent"
	"github.com/intentlens/intentlens/internal/logger"
	"github.com/intentlens/intentlens/internal/store"
	"github.com/spf13/cobra"
)

var (
	inferSource     string
	inferSession    string
	inferTrajectory bool
	inferStore      bool
)

var inferCmd = &cobra.Command{
	Use:   "infer [file]",
	Short: "Infer intent states from a stream of behavior events",
	Long: `Infer intent states from a stream of behavior events.

Reads raw events from a file or stdin, either as a JSON array or as
newline-delimited JSON objects. Events are normalized for the given source
format, appended to a session, and scored after each event. The final
intent state is written to stdout as JSON.

Example:
  cat events.json | intentlens infer --source segment
  intentlens infer events.ndjson --trajectory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInfer,
}

func init() {
	inferCmd.Flags().StringVarP(&inferSource, "source", "s", "", "Source format (generic, segment, amplitude)")
	inferCmd.Flags().StringVar(&inferSession, "session", "", "Override session ID for all events")
	inferCmd.Flags().BoolVar(&inferTrajectory, "trajectory", false, "Output the full intent trajectory instead of the final state")
	inferCmd.Flags().BoolVar(&inferStore, "store", false, "Persist the session and trajectory to the session store")
	rootCmd.AddCommand(inferCmd)
}

func runInfer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	initLogging(cfg)

	raws, err := readRawEvents(args)
	if err != nil {
		return err
	}
	if len(raws) == 0 {
		return fmt.Errorf("no input events")
	}

	normalizer, err := ingest.ForSource(inferSource)
	if err != nil {
		return err
	}
	events, err := normalizer.NormalizeAll(raws)
	if err != nil {
		return fmt.Errorf("failed to normalize events: %w", err)
	}
	if inferSession != "" {
		for i := range events {
			events[i].SessionID = inferSession
		}
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}

	st := openStoreIfEnabled(cfg)
	if st != nil {
		defer func() { _ = st.Close() }()
	}

	session, err := buildSession(st, events[0])
	if err != nil {
		return err
	}

	for _, ev := range events {
		if err := session.Append(ev); err != nil {
			return fmt.Errorf("rejected event: %w", err)
		}
		state := eng.Tick(session)
		if st != nil {
			if err := st.AppendEvent(ev); err != nil {
				logger.Warn().Err(err).Msg("Failed to persist event")
			}
			if err := st.SaveState(session.ID, state); err != nil {
				logger.Warn().Err(err).Msg("Failed to persist intent state")
			}
		}
	}

	if inferTrajectory {
		return writeJSON(os.Stdout, session.Trajectory())
	}
	current, ok := session.Current()
	if !ok {
		return fmt.Errorf("no intent state produced")
	}
	return writeJSON(os.Stdout, current)
}

// buildSession resumes a stored session when the store is active, so
// repeated runs extend the trajectory instead of restarting it.
func buildSession(st store.Store, first intent.Event) (*intent.Session, error) {
	if st == nil {
		return intent.NewSession(first.SessionID, first.UserID, first.Timestamp), nil
	}
	if _, err := st.GetOrCreateSession(first.SessionID, first.UserID, first.Timestamp); err != nil {
		return nil, err
	}
	session, err := st.LoadSession(first.SessionID)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func openStoreIfEnabled(cfg *config.Config) store.Store {
	if !inferStore && !cfg.Store.Enabled {
		return nil
	}
	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open session store, continuing without persistence")
		return nil
	}
	if ttl := cfg.SessionTTL(30 * 24 * time.Hour); ttl > 0 {
		if n, err := st.CleanupOldSessions(ttl); err == nil && n > 0 {
			logger.Debug().Int64("removed", n).Msg("Cleaned up stale sessions")
		}
	}
	return st
}

func readRawEvents(args []string) ([]map[string]interface{}, error) {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
	} else {
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
	}

	return decodeRawEvents(data)
}

// decodeRawEvents accepts either a JSON array of objects or
// newline-delimited JSON objects.
func decodeRawEvents(data []byte) ([]map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var raws []map[string]interface{}
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("failed to parse event array: %w", err)
		}
		return raws, nil
	}

	var raws []map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	for dec.More() {
		var raw map[string]interface{}
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse event %d: %w", len(raws)+1, err)
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
