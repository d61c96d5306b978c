package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Format: "json", Output: &buf})
	defer Configure(Config{Level: "info", Format: "text"})

	logger := WithFields(Fields{"component": "test"})
	logger.Debug("frame analyzed", Fields{"frame": 3})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "frame analyzed", entry["msg"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, float64(3), entry["frame"])
	assert.Equal(t, "debug", entry["level"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "warn", Format: "text", Output: &buf})
	defer Configure(Config{Level: "info", Format: "text"})

	logger := NewDefaultLogger()
	logger.Info("hidden")
	logger.Error(errors.New("boom"), "visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.True(t, strings.Contains(out, "boom"))
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "chatty", Output: &buf})
	defer Configure(Config{Level: "info", Format: "text"})

	NewDefaultLogger().Debug("dropped")
	NewDefaultLogger().Info("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
