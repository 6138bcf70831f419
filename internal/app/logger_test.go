package app

import (
	"log/slog"
	"testing"

	"github.com/avolkova/journal/internal/config"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
		muted   slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 4},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
		{"nonsense", slog.LevelInfo, slog.LevelDebug},
		{"", slog.LevelInfo, slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			logger := NewLogger(config.LogConfig{Level: tt.level, Format: "json"})
			if logger == nil {
				t.Fatal("logger should not be nil")
			}
			if !logger.Enabled(t.Context(), tt.enabled) {
				t.Errorf("level %s should be enabled", tt.enabled)
			}
			if logger.Enabled(t.Context(), tt.muted) {
				t.Errorf("level %s should be muted", tt.muted)
			}
		})
	}
}

func TestNewLogger_SetsDefault(t *testing.T) {
	logger := NewLogger(config.LogConfig{Level: "info", Format: "json"})

	if slog.Default() != logger {
		t.Error("NewLogger should install itself as the slog default")
	}
}
