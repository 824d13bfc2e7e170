package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("slug healed", "event_type", "slug_healed", "question_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "slug healed", entry["msg"])
	assert.Equal(t, "slug_healed", entry["event_type"])
	assert.Equal(t, "abc", entry["question_id"])
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "", Output: &buf})
	require.NoError(t, err)

	logger.Warn("cache backend error", "component", "cache")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "component=cache")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), input)
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	logger := NewNop()
	assert.Same(t, logger, OrNop(logger))
}
