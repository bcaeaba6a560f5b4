package config

import (
	"fmt"
	"strings"
	"time"

	apperrors "sjsage522/pspricebot/pkg/errors"

	"github.com/kelseyhightower/envconfig"
)

// Rate refresh modes
const (
	RateModeAuto   = "auto"
	RateModeManual = "manual"
)

// Reply modes
const (
	ReplyModeText = "text"
	ReplyModeCard = "card"
)

// Session backends
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Config represents the application configuration
type Config struct {
	// Telegram
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`

	// Environment
	Environment string `envconfig:"PSBOT_ENVIRONMENT" default:"development"`

	// Storefront
	StoreBaseURL        string        `envconfig:"STORE_BASE_URL" default:"https://store.playstation.com"`
	FetchTimeout        time.Duration `envconfig:"FETCH_TIMEOUT" default:"15s"`
	BrowserFetch        bool          `envconfig:"BROWSER_FETCH" default:"false"`
	BrowserTimeout      time.Duration `envconfig:"BROWSER_TIMEOUT" default:"60s"`
	BrowserBin          string        `envconfig:"BROWSER_BIN"`
	StorefrontBlockTime time.Duration `envconfig:"STOREFRONT_BLOCK_TIME" default:"5m"`
	HTTPProxyURL        string        `envconfig:"HTTP_PROXY_URL"`

	// Exchange rates
	RateMode           string             `envconfig:"RATE_MODE" default:"auto"`
	RateAPIURL         string             `envconfig:"RATE_API_URL" default:"https://open.er-api.com/v6/latest"`
	TargetCurrency     string             `envconfig:"TARGET_CURRENCY" default:"AZN"`
	ManualRates        map[string]float64 `envconfig:"MANUAL_RATES"`
	RateTTL            time.Duration      `envconfig:"RATE_TTL" default:"3h"`
	RateRefreshTimeout time.Duration      `envconfig:"RATE_REFRESH_TIMEOUT" default:"15s"`
	RateRetryBackoff   time.Duration      `envconfig:"RATE_RETRY_BACKOFF" default:"1m"`
	RateRefreshCron    string             `envconfig:"RATE_REFRESH_CRON" default:"0 0 * * * *"`
	RoundingPolicy     string             `envconfig:"ROUNDING_POLICY" default:"round"`

	// Replies
	ReplyMode        string  `envconfig:"REPLY_MODE" default:"text"`
	ChatMessageLimit int     `envconfig:"CHAT_MESSAGE_LIMIT" default:"3500"`
	ChatRateLimit    float64 `envconfig:"CHAT_RATE_LIMIT" default:"1"`

	// Category scans
	CategoryDefaultLimit int           `envconfig:"CATEGORY_DEFAULT_LIMIT" default:"20"`
	CategoryMaxLimit     int           `envconfig:"CATEGORY_MAX_LIMIT" default:"60"`
	CategoryMaxPages     int           `envconfig:"CATEGORY_MAX_PAGES" default:"3"`
	Concurrency          int           `envconfig:"CONCURRENCY" default:"3"`
	RequestDelay         time.Duration `envconfig:"REQUEST_DELAY" default:"300ms"`

	// Sessions
	SessionBackend string        `envconfig:"SESSION_BACKEND" default:"memory"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"10m"`

	// Redis configuration
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	// Memcache configuration, empty means in-process cache
	MemcacheAddr string `envconfig:"MEMCACHE_ADDR"`

	// Status server, empty disables it
	StatusAddr     string   `envconfig:"STATUS_ADDR" default:":8080"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, apperrors.NewConfiguration("failed to process environment", err)
	}
	// required only checks that the variable exists
	cfg.BotToken = strings.TrimSpace(cfg.BotToken)
	if cfg.BotToken == "" {
		return nil, apperrors.NewConfiguration("BOT_TOKEN is required", nil)
	}
	cfg.TargetCurrency = strings.ToUpper(strings.TrimSpace(cfg.TargetCurrency))
	cfg.RateMode = strings.ToLower(cfg.RateMode)
	cfg.ReplyMode = strings.ToLower(cfg.ReplyMode)
	cfg.SessionBackend = strings.ToLower(cfg.SessionBackend)
	cfg.RoundingPolicy = strings.ToLower(cfg.RoundingPolicy)

	if len(cfg.ManualRates) > 0 {
		normalized := make(map[string]float64, len(cfg.ManualRates))
		for code, rate := range cfg.ManualRates {
			normalized[strings.ToUpper(strings.TrimSpace(code))] = rate
		}
		cfg.ManualRates = normalized
	}
	return &cfg, nil
}

// Validate checks enum and range settings
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BotToken) == "" {
		return apperrors.NewConfiguration("BOT_TOKEN is required", nil)
	}
	switch c.RateMode {
	case RateModeAuto, RateModeManual:
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown RATE_MODE %q", c.RateMode), nil)
	}
	if c.RateMode == RateModeManual && len(c.ManualRates) == 0 {
		return apperrors.NewConfiguration("RATE_MODE=manual requires MANUAL_RATES", nil)
	}
	switch c.RoundingPolicy {
	case "round", "ceil":
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown ROUNDING_POLICY %q", c.RoundingPolicy), nil)
	}
	switch c.ReplyMode {
	case ReplyModeText, ReplyModeCard:
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown REPLY_MODE %q", c.ReplyMode), nil)
	}
	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown SESSION_BACKEND %q", c.SessionBackend), nil)
	}
	if c.Concurrency < 1 {
		return apperrors.NewConfiguration("CONCURRENCY must be at least 1", nil)
	}
	if c.CategoryDefaultLimit < 1 || c.CategoryMaxLimit < c.CategoryDefaultLimit {
		return apperrors.NewConfiguration("CATEGORY_DEFAULT_LIMIT must be between 1 and CATEGORY_MAX_LIMIT", nil)
	}
	if c.CategoryMaxPages < 1 {
		return apperrors.NewConfiguration("CATEGORY_MAX_PAGES must be at least 1", nil)
	}
	if c.ChatMessageLimit < 100 || c.ChatMessageLimit > 4096 {
		return apperrors.NewConfiguration("CHAT_MESSAGE_LIMIT must be between 100 and 4096", nil)
	}
	if c.FetchTimeout <= 0 || c.BrowserTimeout <= 0 || c.RateRefreshTimeout <= 0 {
		return apperrors.NewConfiguration("timeouts must be positive", nil)
	}
	if c.RateTTL <= 0 {
		return apperrors.NewConfiguration("RATE_TTL must be positive", nil)
	}
	for code, rate := range c.ManualRates {
		if rate <= 0 {
			return apperrors.NewConfiguration(fmt.Sprintf("manual rate for %s must be positive", code), nil)
		}
	}
	return nil
}

// IsProduction reports whether the bot runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
