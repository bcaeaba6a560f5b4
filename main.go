package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sjsage522/pspricebot/config"
	"sjsage522/pspricebot/helpers"
	"sjsage522/pspricebot/internal/bot"
	"sjsage522/pspricebot/internal/browser"
	"sjsage522/pspricebot/internal/pricing"
	"sjsage522/pspricebot/internal/render"
	"sjsage522/pspricebot/internal/status"
	"sjsage522/pspricebot/internal/storefront"
	"sjsage522/pspricebot/logger"
	"sjsage522/pspricebot/services/cache"
	"sjsage522/pspricebot/services/session"

	"github.com/joho/godotenv"
)

// telegramTimeout must outlast the long-poll timeout
const telegramTimeout = 90 * time.Second

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("rate_mode", cfg.RateMode).
		Str("reply_mode", cfg.ReplyMode).
		Str("target_currency", cfg.TargetCurrency).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	tgClient, err := helpers.NewClient(telegramTimeout, cfg.HTTPProxyURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Telegram client")
	}
	telegram, err := bot.NewTelegram(cfg.BotToken, tgClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}

	if services.Refresher != nil {
		services.Refresher.Start()
	}
	if cfg.StatusAddr != "" {
		services.Status = status.NewServer(cfg.StatusAddr, status.NewHandler(services.Rates, status.Options{
			AllowedOrigins:    cfg.AllowedOrigins,
			RequestsPerSecond: 5,
		}))
		services.Status.Start()
	}

	b := newBot(cfg, services, telegram)

	botDone := make(chan struct{})
	go func() {
		log.Info().Msg("Starting price bot")
		telegram.Run(ctx, b)
		close(botDone)
	}()

	// Wait for shutdown signal or the update loop ending
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-botDone
	case <-botDone:
		log.Warn().Msg("Update loop exited")
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	b.Wait()
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Sessions  session.Store
	Browser   *browser.Browser
	Rates     *pricing.RateCache
	Refresher *pricing.Refresher
	Store     *storefront.Client
	Renderer  render.Renderer
	Status    *status.Server
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Refresher != nil {
		s.Refresher.Stop()
	}
	if s.Status != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Status.Shutdown(ctx); err != nil {
			logger.Warn("Status server shutdown: %v", err)
		}
	}
	if s.Sessions != nil {
		s.Sessions.Close()
	}
	if s.Browser != nil {
		s.Browser.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize cache service
	services.Cache = cache.New(cfg.MemcacheAddr)
	if cfg.MemcacheAddr != "" {
		logger.Info("Using Memcache at %s", cfg.MemcacheAddr)
	} else {
		logger.Info("Using in-process cache")
	}

	// Initialize session store
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		redisStore := session.NewRedisStore(cfg.RedisAddr, cfg.RedisDB, cfg.SessionTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisStore.Ping(ctx); err != nil {
			return nil, err
		}
		services.Sessions = redisStore
		logger.Info("Connected to Redis at %s (DB: %d)", cfg.RedisAddr, cfg.RedisDB)
	default:
		services.Sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	httpClient, err := helpers.NewClient(cfg.FetchTimeout, cfg.HTTPProxyURL)
	if err != nil {
		return nil, err
	}

	if cfg.BrowserFetch || cfg.ReplyMode == config.ReplyModeCard {
		services.Browser = browser.New(cfg.BrowserBin)
	}

	storeOpts := storefront.Options{
		BaseURL:     cfg.StoreBaseURL,
		HTTP:        storefront.NewHTTPFetcher(httpClient, services.Cache, cfg.StorefrontBlockTime),
		Concurrency: cfg.Concurrency,
		Delay:       cfg.RequestDelay,
		MaxPages:    cfg.CategoryMaxPages,
	}
	if cfg.BrowserFetch {
		storeOpts.Browser = storefront.NewBrowserFetcher(services.Browser, cfg.BrowserTimeout)
	}
	services.Store = storefront.NewClient(storeOpts)

	services.Rates = pricing.NewRateCache(pricing.NewERAPISource(cfg.RateAPIURL, httpClient), pricing.CacheOptions{
		Base:           cfg.TargetCurrency,
		TTL:            cfg.RateTTL,
		RefreshTimeout: cfg.RateRefreshTimeout,
		RetryBackoff:   cfg.RateRetryBackoff,
		Manual:         cfg.ManualRates,
		ManualOnly:     cfg.RateMode == config.RateModeManual,
		Snapshot:       services.Cache,
	})
	if cfg.RateMode == config.RateModeAuto && cfg.RateRefreshCron != "" {
		refresher, err := pricing.NewRefresher(services.Rates, cfg.RateRefreshCron)
		if err != nil {
			return nil, err
		}
		services.Refresher = refresher
	}

	if cfg.ReplyMode == config.ReplyModeCard {
		services.Renderer = render.NewRodRenderer(services.Browser, cfg.BrowserTimeout)
	}

	return services, nil
}

// newBot wires the bot over the services
func newBot(cfg *config.Config, services *Services, messenger bot.Messenger) *bot.Bot {
	return bot.New(messenger, services.Store, services.Rates, services.Sessions, bot.Options{
		Converter:     pricing.NewConverter(cfg.TargetCurrency, cfg.RoundingPolicy),
		ReplyMode:     cfg.ReplyMode,
		Renderer:      services.Renderer,
		StoreBaseURL:  cfg.StoreBaseURL,
		MessageLimit:  cfg.ChatMessageLimit,
		DefaultLimit:  cfg.CategoryDefaultLimit,
		MaxLimit:      cfg.CategoryMaxLimit,
		ChatRateLimit: cfg.ChatRateLimit,
	})
}
