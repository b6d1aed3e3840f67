package cli

import (
	"io"
	"log/slog"
)

// NewLogger returns the diagnostics logger: text for interactive commands,
// JSON for the server. verbose lowers the level to debug.
func NewLogger(w io.Writer, verbose, json bool) *slog.Logger {
	level := slog.LevelWarn
	if json {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
