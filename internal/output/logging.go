package output

import (
	"io"
	"log/slog"
)

// SetupLogger creates the process logger for the given verbosity. Output
// is written to w (typically os.Stderr).
//
// Log level mapping:
//   - quiet=true: slog.LevelError, so only failures are shown
//   - debug=true: slog.LevelDebug, with source locations
//   - verbose=true: slog.LevelInfo
//   - Default (all false): slog.LevelWarn (skipped directories, unreadable baselines)
//
// Priority: quiet > debug > verbose > default
func SetupLogger(quiet, verbose, debug bool, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}

	switch {
	case quiet:
		opts.Level = slog.LevelError
	case debug:
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	case verbose:
		opts.Level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(w, opts)).With("app", "bailiff")
}
