package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/panic-sell/equip-spells-as-shouts/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":    LevelTrace,
		"DEBUG":    slog.LevelDebug,
		"info":     slog.LevelInfo,
		"warning":  slog.LevelWarn,
		"error":    slog.LevelError,
		"critical": LevelCritical,
		"off":      LevelOff,
		"verbose":  slog.LevelInfo,
		"":         slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestSetupWriter_TraceLevel(t *testing.T) {
	var buf bytes.Buffer
	log := SetupWriter(&config.Config{Environment: "development"}, LevelTrace, &buf)
	defer slog.SetDefault(Discard())

	Trace(log, "slot can be assigned to", "shout", "00000900")
	assert.Contains(t, buf.String(), "level=TRACE")
	assert.Contains(t, buf.String(), "slot can be assigned to")
}

func TestSetupWriter_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := SetupWriter(&config.Config{Environment: "production"}, slog.LevelInfo, &buf)
	defer slog.SetDefault(Discard())

	log.Debug("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
