package config

import (
	"os"
	"testing"
	"time"

	apperrors "sjsage522/pspricebot/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	t.Setenv("BOT_TOKEN", "123:abc")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", config.BotToken)
	assert.Equal(t, "https://store.playstation.com", config.StoreBaseURL)
	assert.Equal(t, 15*time.Second, config.FetchTimeout)
	assert.Equal(t, 3*time.Hour, config.RateTTL)
	assert.Equal(t, "AZN", config.TargetCurrency)
	assert.Equal(t, RateModeAuto, config.RateMode)
	assert.Equal(t, 3, config.Concurrency)
	assert.Equal(t, 3500, config.ChatMessageLimit)
	assert.Equal(t, "localhost:6379", config.RedisAddr)
	assert.Equal(t, "", config.MemcacheAddr)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("RATE_MODE", "MANUAL")
	t.Setenv("MANUAL_RATES", "try:30.5,UAH:24.1")
	t.Setenv("TARGET_CURRENCY", "usd")
	t.Setenv("CONCURRENCY", "2")
	t.Setenv("RATE_TTL", "1h")
	t.Setenv("ROUNDING_POLICY", "ceil")
	t.Setenv("MEMCACHE_ADDR", "memcache.example.com:11211")

	config, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, RateModeManual, config.RateMode)
	assert.Equal(t, map[string]float64{"TRY": 30.5, "UAH": 24.1}, config.ManualRates)
	assert.Equal(t, "USD", config.TargetCurrency)
	assert.Equal(t, 2, config.Concurrency)
	assert.Equal(t, time.Hour, config.RateTTL)
	assert.Equal(t, "ceil", config.RoundingPolicy)
	assert.Equal(t, "memcache.example.com:11211", config.MemcacheAddr)
	assert.NoError(t, config.Validate())
}

func TestLoadConfigMissingToken(t *testing.T) {
	for _, token := range []string{"", "   "} {
		t.Setenv("BOT_TOKEN", token)

		_, err := LoadConfig()
		assert.Error(t, err, "token %q", token)
		assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConfiguration))
	}

	// unset entirely
	t.Setenv("BOT_TOKEN", "")
	require.NoError(t, os.Unsetenv("BOT_TOKEN"))
	_, err := LoadConfig()
	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConfiguration))

	assert.Error(t, (&Config{BotToken: " "}).Validate())
}

func TestValidate(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	base, err := LoadConfig()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown rate mode", func(c *Config) { c.RateMode = "sometimes" }},
		{"manual without rates", func(c *Config) { c.RateMode = RateModeManual; c.ManualRates = nil }},
		{"unknown rounding", func(c *Config) { c.RoundingPolicy = "floor" }},
		{"unknown reply mode", func(c *Config) { c.ReplyMode = "voice" }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"default above max", func(c *Config) { c.CategoryDefaultLimit = 100 }},
		{"message limit too big", func(c *Config) { c.ChatMessageLimit = 5000 }},
		{"negative manual rate", func(c *Config) { c.ManualRates = map[string]float64{"TRY": -1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			err := c.Validate()
			assert.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.ErrorTypeConfiguration))
		})
	}
}
