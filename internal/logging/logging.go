// Package logging configures the structured logger shared by all packages.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Logger is the process-wide logger. It discards output until Initialize
// enables debug logging.
var Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))

var logFile *os.File

// Initialize sets up Logger. With debug off and no file, logs are discarded.
// With debug on and no file, a new <uuid>.log is created under the state dir.
func Initialize(debug bool, file string) error {
	if os.Getenv("SPEEDTYPE_DEBUG") == "1" {
		debug = true
	}
	if !debug && file == "" {
		Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
		return nil
	}

	path := file
	if path == "" {
		path = filepath.Join(stateDir(), fmt.Sprintf("%s.log", uuid.New().String()))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	Close()
	logFile = f

	Logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	Logger.Info("debug logging initialized", "log_file", path)
	return nil
}

// Close releases the log file, if any.
func Close() {
	if logFile == nil {
		return
	}
	if err := logFile.Close(); err != nil {
		// Best-effort close of the log file.
		_ = err
	}
	logFile = nil
}

// stateDir follows XDG_STATE_HOME, falling back to ~/.local/state.
func stateDir() string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return filepath.Join(v, "speedtype")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "speedtype-logs")
	}
	return filepath.Join(home, ".local", "state", "speedtype")
}
