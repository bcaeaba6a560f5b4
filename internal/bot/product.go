package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"sjsage522/pspricebot/helpers"
	"sjsage522/pspricebot/internal/pricing"
	"sjsage522/pspricebot/internal/render"
	"sjsage522/pspricebot/internal/storefront"
	"sjsage522/pspricebot/logger"
)

func (b *Bot) handleProduct(ctx context.Context, log *logger.Logger, chatID int64, link string) {
	id, ok := storefront.ExtractProductID(link)
	if !ok {
		b.reply(ctx, log, chatID, msgBadProduct)
		return
	}
	log = log.WithField("product_id", id)
	b.reply(ctx, log, chatID, msgChecking)

	res := b.store.LookupProduct(ctx, storefront.NewProductQuery(id))
	if !res.AnyOK() {
		log.Info().Msg("No region returned product data")
		b.reply(ctx, log, chatID, productFailureText(res))
		return
	}

	table := b.rateTable(ctx, log)
	text := b.format.Product(res, table)

	if b.cardMode() {
		err := b.sendCard(ctx, log, chatID, res, table, text)
		if err == nil {
			return
		}
		log.Warn().Err(err).Msg("Card reply failed, falling back to text")
	}
	b.sendText(ctx, log, chatID, text)
}

func productFailureText(res storefront.ProductResult) string {
	for _, info := range res.Regions {
		if info.Status != storefront.StatusNotFound {
			return msgStoreDown
		}
	}
	return msgProductNotFound
}

// sendCard renders and sends the card. Text that does not fit the caption
// follows as a separate message.
func (b *Bot) sendCard(ctx context.Context, log *logger.Logger, chatID int64, res storefront.ProductResult, table *pricing.RateTable, text string) error {
	png, err := b.opts.Renderer.Render(ctx, b.cardRequest(res, table))
	if err != nil {
		return err
	}

	caption := text
	overflow := utf8.RuneCountInString(text) > MaxCaption
	if overflow {
		caption = helpers.Truncate(helpers.FirstNonEmpty(res.Title(), res.ProductID), MaxCaption)
	}
	if err := b.messenger.SendPhoto(ctx, chatID, png, caption); err != nil {
		return err
	}
	if overflow {
		b.sendText(ctx, log, chatID, text)
	}
	return nil
}

func (b *Bot) cardRequest(res storefront.ProductResult, table *pricing.RateTable) render.RenderRequest {
	req := render.RenderRequest{
		Title:    helpers.FirstNonEmpty(res.Title(), res.ProductID),
		ImageURL: res.ImageURL(),
		Platform: strings.Join(res.Platforms(), ", "),
		EndDate:  endText(res),
		URL:      b.productURL(res),
	}
	if pct := maxDiscount(res); pct > 0 {
		req.Discount = fmt.Sprintf("-%d%%", pct)
	}
	for _, info := range res.Regions {
		p := b.format.regionPrice(info, table)
		req.Lines = append(req.Lines, render.PriceLine{
			Label:     p.Label,
			Price:     p.Price,
			OldPrice:  p.OldPrice,
			Converted: p.Converted,
		})
	}
	return req
}

// productURL links the first region that answered
func (b *Bot) productURL(res storefront.ProductResult) string {
	for _, info := range res.Regions {
		if info.OK() && info.Locale != "" {
			return storefront.ProductPageURL(b.opts.StoreBaseURL, info.Locale, res.ProductID)
		}
	}
	return storefront.ProductPageURL(b.opts.StoreBaseURL, storefront.DefaultRegions[0].Locales()[0], res.ProductID)
}
