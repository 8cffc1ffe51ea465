package logging

import (
	"log/slog"
	"testing"

	"github.com/f0x0/foxcontrol/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNew_DebugFiltering(t *testing.T) {
	log := New(config.LoggingConfig{Level: "warn", Format: "text", Output: "stdout"}, "test")

	if log.Enabled(nil, slog.LevelInfo) { //nolint:staticcheck // nil context accepted by slog
		t.Error("info should be filtered at warn level")
	}
	if !log.Enabled(nil, slog.LevelError) { //nolint:staticcheck
		t.Error("error should pass at warn level")
	}
}

func TestWith_ReturnsIndependentLogger(t *testing.T) {
	base := Default()
	child := base.With("component", "device")

	if child == nil || child.Logger == base.Logger {
		t.Error("With() should return a new logger instance")
	}
}
