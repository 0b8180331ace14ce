package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns the process-wide JSON logger. Debug lowers the level and
// records the source location of each entry.
func New(debug bool) *slog.Logger {
	return NewWithWriter(os.Stdout, debug)
}

func NewWithWriter(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: debug,
		Level:     level,
	}))
}
