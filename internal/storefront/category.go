package storefront

import (
	"bytes"
	"context"

	"sjsage522/pspricebot/helpers"
	"sjsage522/pspricebot/internal/extract"
	"sjsage522/pspricebot/logger"
	apperrors "sjsage522/pspricebot/pkg/errors"
	"sjsage522/pspricebot/services/worker"
)

// ScanCategory collects up to limit product ids from the category pages and
// prices each of them. Products are looked up by the worker pool with the
// client's concurrency and delay; within one product the regions run one
// after another so in-flight fetches never exceed the concurrency. Only a
// category where no page could be fetched is an error.
func (c *Client) ScanCategory(ctx context.Context, categoryID string, limit int) (CategoryResult, error) {
	log := logger.ForStorefront("category")
	result := CategoryResult{CategoryID: categoryID}

	ids, truncated, err := c.collectProductIDs(ctx, categoryID, limit)
	if err != nil {
		return result, err
	}
	result.Truncated = truncated

	log.Info().Str("category", categoryID).Int("products", len(ids)).Msg("Scanning category")

	lookups := worker.MapLimit(ctx, c.opts.Concurrency, c.opts.Delay, ids, func(ctx context.Context, id string) (ProductResult, error) {
		return c.lookupSequential(ctx, NewProductQuery(id)), nil
	})

	result.Items = make([]ProductResult, len(ids))
	for i, r := range lookups {
		if r.Err != nil {
			// A panicking or canceled lookup is reported as failed for every region
			failed := ProductResult{ProductID: ids[i]}
			for _, region := range DefaultRegions {
				failed.Regions = append(failed.Regions, RegionPriceInfo{Region: region, Status: StatusFailed, Err: r.Err, Currency: region.Currency()})
			}
			result.Items[i] = failed
			continue
		}
		result.Items[i] = r.Value
	}
	return result, nil
}

// collectProductIDs walks category pages until limit ids are found, a page
// adds nothing new, or MaxPages is reached. Locales are tried in region order
// and the first that serves page 1 is kept for the following pages.
func (c *Client) collectProductIDs(ctx context.Context, categoryID string, limit int) ([]string, bool, error) {
	if limit < 1 {
		limit = 1
	}
	var locales []string
	for _, region := range DefaultRegions {
		locales = append(locales, region.Locales()...)
	}

	seen := make(map[string]bool)
	var ids []string
	var lastErr error
	chosen := ""
	truncated := false

	for page := 1; page <= c.opts.MaxPages && len(ids) < limit; page++ {
		candidates := locales
		if chosen != "" {
			candidates = []string{chosen}
		}

		var pageIDs []string
		pageOK := false
		for _, locale := range candidates {
			body, err := c.opts.HTTP.Fetch(ctx, CategoryPageURL(c.opts.BaseURL, locale, categoryID, page), helpers.AcceptHTML)
			if err != nil {
				lastErr = err
				continue
			}
			found, err := extract.ExtractCategoryProductIDs(bytes.NewReader(body))
			if err != nil {
				lastErr = err
				continue
			}
			if page == 1 && len(found) == 0 {
				lastErr = apperrors.NewNotFound("storefront", "category page lists no products")
				continue
			}
			pageIDs, pageOK = found, true
			chosen = locale
			break
		}
		if !pageOK {
			break
		}

		added := 0
		for _, id := range pageIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			if len(ids) >= limit {
				truncated = true
				break
			}
			ids = append(ids, id)
			added++
		}
		if added == 0 {
			break
		}
	}

	if chosen == "" {
		if lastErr == nil {
			lastErr = apperrors.NewNotFound("storefront", "category not found")
		}
		return nil, false, lastErr
	}
	return ids, truncated, nil
}
