package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONLoggerRedactsSecrets(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	logger, err := New("info", FormatJSON, &out)
	require.NoError(t, err)

	logger.WithField("secret", Secret("Abcdef12")).Info("acquired")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
	assert.Equal(t, "acquired", entry["msg"])
	assert.Equal(t, "[REDACTED]", entry["secret"])
	assert.NotContains(t, out.String(), "Abcdef12")
}

func TestNewTextLoggerRespectsLevel(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	logger, err := New("warn", FormatText, &out)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown")
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	t.Parallel()

	_, err := New("loud", FormatText, &bytes.Buffer{})
	assert.ErrorContains(t, err, "parse log level")

	_, err = New("info", "xml", &bytes.Buffer{})
	assert.ErrorContains(t, err, "unsupported log format")
}

func TestRedact(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "auth P1:[REDACTED] ok", Redact("auth P1:s3cret ok", "s3cret", ""))
}
