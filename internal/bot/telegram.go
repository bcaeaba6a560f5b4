package bot

import (
	"context"
	"net/http"

	"sjsage522/pspricebot/logger"
	apperrors "sjsage522/pspricebot/pkg/errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const pollTimeout = 60

// Telegram is the Bot API adapter
type Telegram struct {
	api *tgbotapi.BotAPI
}

// NewTelegram connects with token; client carries the proxy and timeout
func NewTelegram(token string, client *http.Client) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, apperrors.NewConfiguration("failed to authorize bot token", err)
	}
	return &Telegram{api: api}, nil
}

// Username returns the bot account name
func (t *Telegram) Username() string {
	return t.api.Self.UserName
}

// SendText sends a plain message without link previews
func (t *Telegram) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.api.Send(msg); err != nil {
		return apperrors.NewNetwork("telegram", "sendMessage failed", err)
	}
	return nil
}

// SendPhoto uploads a PNG with a caption
func (t *Telegram) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "card.png", Bytes: png})
	photo.Caption = caption
	if _, err := t.api.Send(photo); err != nil {
		return apperrors.NewNetwork("telegram", "sendPhoto failed", err)
	}
	return nil
}

// Run long-polls updates and dispatches text messages until ctx is done
func (t *Telegram) Run(ctx context.Context, b *Bot) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := t.api.GetUpdatesChan(u)

	log := logger.ForBot()
	log.Info().Str("username", t.Username()).Msg("Polling for updates")

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Chat == nil || update.Message.Text == "" {
				continue
			}
			b.Dispatch(ctx, Message{ChatID: update.Message.Chat.ID, Text: update.Message.Text})
		}
	}
}
