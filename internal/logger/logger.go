// Package logger provides the process-wide zerolog logger. Output goes to
// stderr so stdout stays reserved for command output.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger = zerolog.New(io.Discard)

// Init initializes the global logger at the given level, optionally teeing
// to a file.
func Init(level string, logFile string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		writers = append(writers, file)
	}

	log = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return nil
}

// InitQuiet discards all log output. Used by tests and machine-readable
// command modes.
func InitQuiet() {
	log = zerolog.New(io.Discard)
}

// Debug starts a debug-level log event.
func Debug() *zerolog.Event { return log.Debug() }

// Info starts an info-level log event.
func Info() *zerolog.Event { return log.Info() }

// Warn starts a warn-level log event.
func Warn() *zerolog.Event { return log.Warn() }

// Error starts an error-level log event.
func Error() *zerolog.Event { return log.Error() }

// Fatal starts a fatal-level log event; the process exits when sent.
func Fatal() *zerolog.Event { return log.Fatal() }
