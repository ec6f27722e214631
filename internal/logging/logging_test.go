package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureJSON points the global logger at a buffer for the test.
func captureJSON(t *testing.T, level string) *bytes.Buffer {
	t.Helper()

	previous := Logger()
	previousLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		SetLogger(previous)
		zerolog.SetGlobalLevel(previousLevel)
	})

	buf := &bytes.Buffer{}
	Init(Config{Level: level, Format: "json", Output: buf})
	return buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal(line, &entry))
		out = append(out, entry)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"DEBUG":    zerolog.DebugLevel,
		" info ":   zerolog.InfoLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"off":      zerolog.Disabled,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
	}

	for raw, want := range tests {
		assert.Equal(t, want, parseLevel(raw), raw)
	}
}

func TestInitJSONRespectsLevel(t *testing.T) {
	buf := captureJSON(t, "warn")

	Info().Msg("hidden")
	Warn().Str("session", "main").Msg("shown")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
	assert.Equal(t, "main", lines[0]["session"])
	assert.Equal(t, "warn", lines[0]["level"])
}

func TestCtxAddsCorrelationID(t *testing.T) {
	buf := captureJSON(t, "info")

	ctx := ContextWithCorrelationID(context.Background(), "abc12345")
	Ctx(ctx).Info().Msg("with id")
	Ctx(context.Background()).Info().Msg("without id")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "abc12345", lines[0]["correlation_id"])
	assert.NotContains(t, lines[1], "correlation_id")
}

func TestGenerateCorrelationID(t *testing.T) {
	a := GenerateCorrelationID()
	b := GenerateCorrelationID()

	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)

	ctx := ContextWithNewCorrelationID(context.Background())
	assert.Len(t, CorrelationIDFromContext(ctx), 8)
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestSlogHandlerWritesThroughZerolog(t *testing.T) {
	buf := captureJSON(t, "info")

	logger := NewSlogLogger().With("service", "classification-pipeline").WithGroup("restart")
	logger.Warn("service failed", "attempt", 2, "backoff", 15*time.Second, "terminal", false)
	logger.Debug("dropped below level")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "service failed", entry["message"])
	assert.Equal(t, "classification-pipeline", entry["service"])
	assert.EqualValues(t, 2, entry["restart.attempt"])
	assert.Equal(t, false, entry["restart.terminal"])
	assert.Contains(t, entry, "restart.backoff")
}

func TestSlogHandlerEnabled(t *testing.T) {
	captureJSON(t, "error")

	h := NewSlogHandler()
	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
	assert.Same(t, h, h.WithGroup(""))
}
