package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
		muted   slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 1},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
	}

	for _, tt := range tests {
		for _, format := range []string{"text", "json", "color"} {
			logger := setupLogger(tt.level, format)
			assert.True(t, logger.Enabled(context.Background(), tt.enabled), "%s/%s", tt.level, format)
			assert.False(t, logger.Enabled(context.Background(), tt.muted), "%s/%s", tt.level, format)
		}
	}
}

func TestColorHandler_DerivedHandlersKeepLevel(t *testing.T) {
	h := &colorHandler{level: slog.LevelWarn}

	derived := h.WithAttrs([]slog.Attr{slog.String("component", "device")}).WithGroup("link")

	assert.False(t, derived.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, derived.Enabled(context.Background(), slog.LevelError))
	assert.Same(t, h, h.WithGroup(""))
}
