package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("LOG_LEVEL", "debug")
	InitWithWriter(&buf)

	ForStorefront("TR").Info().Str("product", "UP0006").Msg("lookup done")
	ForRates().Warn().Msg("serving stale table")
	LogError("bot", errors.New("send failed"), "chat %d", 42)

	out := buf.String()
	assert.Contains(t, out, "storefront")
	assert.Contains(t, out, "TR")
	assert.Contains(t, out, "lookup done")
	assert.Contains(t, out, "serving stale table")
	assert.Contains(t, out, "send failed")
	assert.Contains(t, out, "chat 42")
}

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, "warn", getLogLevel().String())

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("PSBOT_ENVIRONMENT", "production")
	assert.Equal(t, "info", getLogLevel().String())

	t.Setenv("PSBOT_ENVIRONMENT", "development")
	assert.Equal(t, "debug", getLogLevel().String())
}
