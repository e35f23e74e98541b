package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.With("model", "eye").WithGroup("req").Info("prediction served",
		"duration", 15*time.Millisecond,
		slog.Group("input", "kind", "base64"),
	)

	out := buf.String()
	assert.Contains(t, out, "prediction served")
	assert.Contains(t, out, "model"+reset+"=eye")
	assert.Contains(t, out, "req.duration"+reset+"=15ms")
	assert.Contains(t, out, "req.input.kind"+reset+"=base64")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "json", slog.LevelInfo).Warn("token rejected", "reason", "expired")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "expired", record["reason"])
}
