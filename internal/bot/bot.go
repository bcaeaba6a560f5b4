// Package bot answers chat messages with PlayStation Store regional prices.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"sjsage522/pspricebot/config"
	"sjsage522/pspricebot/internal/pricing"
	"sjsage522/pspricebot/internal/render"
	"sjsage522/pspricebot/internal/storefront"
	"sjsage522/pspricebot/logger"
	"sjsage522/pspricebot/services/session"
	"sjsage522/pspricebot/services/worker"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/google/uuid"
)

const exampleLink = "https://store.playstation.com/tr-tr/product/UP0006-PPSA27360_00-26STANDARDBUNDLE"

const (
	msgChecking        = "⏳ Checking prices (TR + UA)..."
	msgAskProduct      = "Send me the product link."
	msgAskCategory     = "Send me the category link."
	msgBadProduct      = "That does not look like a PlayStation Store product link. Send a link or /cancel."
	msgBadCategory     = "That does not look like a PlayStation Store category link. Send a link or /cancel."
	msgCancelled       = "Cancelled."
	msgNothingToCancel = "Nothing to cancel."
	msgUnknownCommand  = "Unknown command. Try /help."
	msgPlainText       = "Send me a PlayStation Store product or category link. /help shows the commands."
	msgProductNotFound = "Product not found in the TR or UA store."
	msgStoreDown       = "Could not reach the store right now. Try again later."
	msgCategoryFailed  = "Could not load this category. Try again later."
	msgCategoryEmpty   = "No products found in this category."
	msgRatesDown       = "Exchange rates are unavailable right now."
	msgInternalError   = "Something went wrong. Try again later."
)

// Messenger sends replies to a chat
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error
}

// Storefront looks products and categories up
type Storefront interface {
	LookupProduct(ctx context.Context, q storefront.ProductQuery) storefront.ProductResult
	ScanCategory(ctx context.Context, categoryID string, limit int) (storefront.CategoryResult, error)
}

// RateProvider supplies the exchange rate table
type RateProvider interface {
	Get(ctx context.Context) (pricing.RateTable, error)
}

// Message is an inbound chat message
type Message struct {
	ChatID int64
	Text   string
}

// Options tune the bot
type Options struct {
	Converter    pricing.Converter
	ReplyMode    string
	Renderer     render.Renderer
	StoreBaseURL string

	MessageLimit int
	DefaultLimit int
	MaxLimit     int

	// ChatRateLimit is messages per second per chat, 0 disables flood control
	ChatRateLimit float64

	// Currencies listed by /rates
	Currencies []string
}

// Bot routes messages to lookups and replies
type Bot struct {
	messenger Messenger
	store     Storefront
	rates     RateProvider
	sessions  session.Store
	format    Formatter
	opts      Options

	serial  *worker.KeyedSerializer[int64]
	limiter *limiter.Limiter
	now     func() time.Time
}

// New creates a bot
func New(messenger Messenger, store Storefront, rates RateProvider, sessions session.Store, opts Options) *Bot {
	if opts.MessageLimit <= 0 {
		opts.MessageLimit = 3500
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	if len(opts.Currencies) == 0 {
		for _, r := range storefront.DefaultRegions {
			opts.Currencies = append(opts.Currencies, r.Currency())
		}
	}

	b := &Bot{
		messenger: messenger,
		store:     store,
		rates:     rates,
		sessions:  sessions,
		format:    Formatter{Converter: opts.Converter},
		opts:      opts,
		serial:    worker.NewKeyedSerializer[int64](),
		now:       time.Now,
	}
	if opts.ChatRateLimit > 0 {
		b.limiter = tollbooth.NewLimiter(opts.ChatRateLimit, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
		b.limiter.SetBurst(3)
	}
	return b
}

// Dispatch queues msg behind earlier messages of the same chat. Messages
// over the per-chat rate are dropped.
func (b *Bot) Dispatch(ctx context.Context, msg Message) {
	if b.limiter != nil && b.limiter.LimitReached(strconv.FormatInt(msg.ChatID, 10)) {
		logger.ForBot().Debug().Int64("chat_id", msg.ChatID).Msg("Message dropped by flood control")
		return
	}
	b.serial.Submit(msg.ChatID, func() { b.Handle(ctx, msg) })
}

// Wait blocks until every queued message is handled
func (b *Bot) Wait() {
	b.serial.Wait()
}

// Handle processes one message synchronously
func (b *Bot) Handle(ctx context.Context, msg Message) {
	log := logger.ForBot().WithFields(logger.Fields{
		"chat_id":    msg.ChatID,
		"request_id": uuid.NewString(),
	})
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Handler panicked")
			b.reply(ctx, log, msg.ChatID, msgInternalError)
		}
	}()

	start := b.now()
	route := Classify(msg.Text)
	log.Debug().Int("route", int(route.Kind)).Str("command", route.Command).Msg("Message received")

	switch route.Kind {
	case RouteStart:
		b.clearSession(ctx, log, msg.ChatID)
		b.reply(ctx, log, msg.ChatID, b.helpText())
	case RouteHelp:
		b.reply(ctx, log, msg.ChatID, b.helpText())
	case RouteProduct:
		if route.Link == "" {
			b.startWizard(ctx, log, msg.ChatID, session.State{Step: session.StepAwaitProductLink}, msgAskProduct)
			return
		}
		b.clearSession(ctx, log, msg.ChatID)
		b.handleProduct(ctx, log, msg.ChatID, route.Link)
	case RouteCategory:
		if route.Link == "" {
			b.startWizard(ctx, log, msg.ChatID, session.State{Step: session.StepAwaitCategoryLink, Limit: route.Limit}, msgAskCategory)
			return
		}
		if route.Limit == 0 {
			route.Limit = b.pendingLimit(ctx, msg.ChatID)
		}
		b.clearSession(ctx, log, msg.ChatID)
		b.handleCategory(ctx, log, msg.ChatID, route.Link, route.Limit)
	case RouteRates:
		b.handleRates(ctx, log, msg.ChatID)
	case RouteCancel:
		b.handleCancel(ctx, log, msg.ChatID)
	case RouteUnknownCommand:
		b.reply(ctx, log, msg.ChatID, msgUnknownCommand)
	default:
		b.handleText(ctx, log, msg)
	}

	log.Debug().Dur("elapsed", b.now().Sub(start)).Msg("Message handled")
}

func (b *Bot) helpText() string {
	return fmt.Sprintf(`👋 Send me a PlayStation Store link and I will compare Turkey and Ukraine prices in %s.

Example:
%s

Commands:
/p <product link> checks one product
/cat <category link> [limit] checks a category, up to %d products
/rates shows exchange rates
/cancel cancels a pending command`, b.opts.Converter.Target, exampleLink, b.opts.MaxLimit)
}

func (b *Bot) handleText(ctx context.Context, log *logger.Logger, msg Message) {
	state, ok, err := b.sessions.Get(ctx, msg.ChatID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read session")
	}
	if !ok {
		b.reply(ctx, log, msg.ChatID, msgPlainText)
		return
	}

	switch state.Step {
	case session.StepAwaitProductLink:
		if _, valid := storefront.ExtractProductID(msg.Text); !valid {
			b.reply(ctx, log, msg.ChatID, msgBadProduct)
			return
		}
		b.clearSession(ctx, log, msg.ChatID)
		b.handleProduct(ctx, log, msg.ChatID, msg.Text)
	case session.StepAwaitCategoryLink:
		if _, valid := storefront.ExtractCategoryID(msg.Text); !valid {
			b.reply(ctx, log, msg.ChatID, msgBadCategory)
			return
		}
		b.clearSession(ctx, log, msg.ChatID)
		b.handleCategory(ctx, log, msg.ChatID, msg.Text, state.Limit)
	default:
		b.reply(ctx, log, msg.ChatID, msgPlainText)
	}
}

func (b *Bot) startWizard(ctx context.Context, log *logger.Logger, chatID int64, state session.State, prompt string) {
	state.UpdatedAt = b.now()
	if err := b.sessions.Set(ctx, chatID, state); err != nil {
		log.Warn().Err(err).Msg("Failed to store session")
		b.reply(ctx, log, chatID, msgInternalError)
		return
	}
	b.reply(ctx, log, chatID, prompt)
}

func (b *Bot) handleCancel(ctx context.Context, log *logger.Logger, chatID int64) {
	_, ok, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read session")
	}
	if !ok {
		b.reply(ctx, log, chatID, msgNothingToCancel)
		return
	}
	b.clearSession(ctx, log, chatID)
	b.reply(ctx, log, chatID, msgCancelled)
}

// pendingLimit returns the limit given to a bare /cat still waiting for its link
func (b *Bot) pendingLimit(ctx context.Context, chatID int64) int {
	state, ok, err := b.sessions.Get(ctx, chatID)
	if err != nil || !ok || state.Step != session.StepAwaitCategoryLink {
		return 0
	}
	return state.Limit
}

func (b *Bot) clearSession(ctx context.Context, log *logger.Logger, chatID int64) {
	if err := b.sessions.Delete(ctx, chatID); err != nil {
		log.Warn().Err(err).Msg("Failed to clear session")
	}
}

// rateTable returns nil when no rates are available
func (b *Bot) rateTable(ctx context.Context, log *logger.Logger) *pricing.RateTable {
	table, err := b.rates.Get(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Replying without conversion")
		return nil
	}
	return &table
}

func (b *Bot) reply(ctx context.Context, log *logger.Logger, chatID int64, text string) {
	if err := b.messenger.SendText(ctx, chatID, text); err != nil {
		log.Error().Err(err).Msg("Failed to send reply")
	}
}

// sendText sends text in chunks below the message limit
func (b *Bot) sendText(ctx context.Context, log *logger.Logger, chatID int64, text string) {
	for _, chunk := range SplitMessage(text, b.opts.MessageLimit) {
		if err := b.messenger.SendText(ctx, chatID, chunk); err != nil {
			log.Error().Err(err).Msg("Failed to send reply chunk")
			return
		}
	}
}

func (b *Bot) cardMode() bool {
	return b.opts.ReplyMode == config.ReplyModeCard && b.opts.Renderer != nil
}
