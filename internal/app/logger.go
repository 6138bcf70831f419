package app

import (
	"log/slog"
	"os"
	"strings"

	"github.com/avolkova/journal/internal/config"
)

// NewLogger builds the process logger from LogConfig and installs it as the
// slog default. Format "json" is for production; anything else falls back to
// the text handler with source locations for local work. Output goes to
// stderr so entry pages and logs never interleave on stdout.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(strings.TrimSpace(cfg.Level)) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level, AddSource: true})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
