package logging

import (
	"io"
	"log/slog"
	"os"
)

// New builds the process logger. format selects the slog handler ("json"
// or anything else for text); debug lowers the level to capture per-request
// detail.
func New(format string, debug bool, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}
