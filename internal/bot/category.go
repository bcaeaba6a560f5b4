package bot

import (
	"context"
	"fmt"

	"sjsage522/pspricebot/internal/storefront"
	"sjsage522/pspricebot/logger"
)

// clampLimit applies the default for a missing limit and caps it at the max
func (b *Bot) clampLimit(limit int) int {
	if limit <= 0 {
		return b.opts.DefaultLimit
	}
	if limit > b.opts.MaxLimit {
		return b.opts.MaxLimit
	}
	return limit
}

func (b *Bot) handleCategory(ctx context.Context, log *logger.Logger, chatID int64, link string, limit int) {
	id, ok := storefront.ExtractCategoryID(link)
	if !ok {
		b.reply(ctx, log, chatID, msgBadCategory)
		return
	}
	limit = b.clampLimit(limit)
	log = log.WithFields(logger.Fields{"category_id": id, "limit": limit})
	b.reply(ctx, log, chatID, fmt.Sprintf("🔎 Scanning category, up to %d products (TR + UA)...", limit))

	res, err := b.store.ScanCategory(ctx, id, limit)
	if err != nil {
		log.Warn().Err(err).Msg("Category scan failed")
		b.reply(ctx, log, chatID, msgCategoryFailed)
		return
	}
	if len(res.Items) == 0 {
		b.reply(ctx, log, chatID, msgCategoryEmpty)
		return
	}
	log.Info().Int("items", len(res.Items)).Bool("truncated", res.Truncated).Msg("Category scanned")

	table := b.rateTable(ctx, log)
	b.sendText(ctx, log, chatID, b.format.Category(res, table))
}

func (b *Bot) handleRates(ctx context.Context, log *logger.Logger, chatID int64) {
	table, err := b.rates.Get(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("No rates for /rates")
		b.reply(ctx, log, chatID, msgRatesDown)
		return
	}
	b.reply(ctx, log, chatID, b.format.Rates(table, b.opts.Currencies))
}
