package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/synthlab/backend/pkg/config"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		level     string
		wantLevel zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := New(&config.Config{Env: "development", LogLevel: tt.level, LogFormat: "json"})
			require.NotNil(t, log)
			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())
		})
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"DEBUG", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"off", zerolog.Disabled},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer

	NewWithWriter(&buf, "staging").Info("session created")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "session created", entry["message"])
	assert.Equal(t, "staging", entry["env"])
	assert.Equal(t, "synthlab", entry["service"])
	assert.Equal(t, "info", entry["level"])
}

func TestWithSessionAndComponent(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer

	NewWithWriter(&buf, "test").
		WithComponent("prediction.session").
		WithSession("abc-123").
		Debug("state transition")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "prediction.session", entry["component"])
	assert.Equal(t, "abc-123", entry["session_id"])
}

func TestWithFields(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer

	NewWithWriter(&buf, "test").WithFields(map[string]interface{}{
		"symbol":  "AAPL",
		"horizon": 7,
	}).Info("prediction submitted")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "AAPL", entry["symbol"])
	assert.Equal(t, float64(7), entry["horizon"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer

	NewWithWriter(&buf, "test").WithError(errors.New("backend unreachable")).Error("prediction failed")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "backend unreachable", entry["error"])
	assert.Equal(t, "prediction failed", entry["message"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithField("k", "v").Error("discarded")
	})
}
