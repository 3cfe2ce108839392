package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).Component("snapshot")

	l.Warn("upstream failed",
		String("feed", "volatility"),
		Int("bars", 1),
		Float64("vix", 18.5),
		Bool("synthetic", true),
		Duration("took_ms", 1500*time.Millisecond),
		Error(errors.New("timeout")),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "warn", got["level"])
	assert.Equal(t, "upstream failed", got["message"])
	assert.Equal(t, "snapshot", got["component"])
	assert.Equal(t, "volatility", got["feed"])
	assert.Equal(t, 1.0, got["bars"])
	assert.Equal(t, 18.5, got["vix"])
	assert.Equal(t, true, got["synthetic"])
	assert.Equal(t, 1500.0, got["took_ms"])
	assert.Equal(t, "timeout", got["error"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	l, err := New(&Config{Level: "warn", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = New(&Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNopIsSafe(t *testing.T) {
	var l *Logger
	OrNop(l).Info("discarded", String("k", "v"))
	Nop().Component("x").Error("discarded")
}
