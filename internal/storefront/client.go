package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"sjsage522/pspricebot/helpers"
	"sjsage522/pspricebot/internal/extract"
	"sjsage522/pspricebot/internal/pricing"
	"sjsage522/pspricebot/logger"
	apperrors "sjsage522/pspricebot/pkg/errors"
)

// Options configures a Client
type Options struct {
	BaseURL string
	// HTTP is required; Browser is an optional fallback for HTML pages
	HTTP    Fetcher
	Browser Fetcher
	// Concurrency and Delay bound category fan-out
	Concurrency int
	Delay       time.Duration
	// MaxPages bounds category page walks
	MaxPages int
}

// Client looks products up on the storefront
type Client struct {
	opts Options
}

// NewClient creates a storefront client
func NewClient(opts Options) *Client {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 1
	}
	return &Client{opts: opts}
}

// attempt is one way of getting a product document
type attempt struct {
	source string
	run    func(ctx context.Context) (extract.ProductSummary, error)
}

// LookupRegion prices productID in region. For every locale variant it
// tries the chihiro JSON, then the product page, then the browser, and
// stops at the first summary with a price. Failures are reported in the
// result, never returned.
func (c *Client) LookupRegion(ctx context.Context, productID string, region Region) RegionPriceInfo {
	log := logger.ForStorefront(string(region))

	var partial *RegionPriceInfo
	var lastErr error
	allNotFound := true

	langs := region.Languages()
	locales := region.Locales()
	for i, locale := range locales {
		for _, a := range c.attempts(productID, region, langs[i], locale) {
			if err := ctx.Err(); err != nil {
				return RegionPriceInfo{Region: region, Status: StatusFailed, Err: err}
			}

			summary, err := a.run(ctx)
			if err != nil {
				lastErr = err
				if !apperrors.Is(err, apperrors.ErrorTypeNotFound) {
					allNotFound = false
				}
				log.Debug().Err(err).Str("locale", locale).Str("source", a.source).Msg("Lookup attempt failed")
				continue
			}

			info := toRegionInfo(region, locale, a.source, summary)
			if info.DisplayPrice != "" {
				log.Debug().Str("locale", locale).Str("source", a.source).Str("price", info.DisplayPrice).Msg("Lookup done")
				return info
			}
			if partial == nil {
				partial = &info
			}
		}
	}

	if partial != nil {
		return *partial
	}
	if allNotFound {
		return RegionPriceInfo{Region: region, Status: StatusNotFound, Err: lastErr, Currency: region.Currency()}
	}
	log.Warn().Err(lastErr).Str("product", productID).Msg("Region lookup failed")
	return RegionPriceInfo{Region: region, Status: StatusFailed, Err: lastErr, Currency: region.Currency()}
}

func (c *Client) attempts(productID string, region Region, lang, locale string) []attempt {
	chihiro := ChihiroURL(c.opts.BaseURL, region.Country(), lang, productID)
	page := ProductPageURL(c.opts.BaseURL, locale, productID)

	list := []attempt{
		{source: "chihiro", run: func(ctx context.Context) (extract.ProductSummary, error) {
			body, err := c.opts.HTTP.Fetch(ctx, chihiro, helpers.AcceptJSON)
			if err != nil {
				return extract.ProductSummary{}, err
			}
			var doc any
			if err := json.Unmarshal(body, &doc); err != nil {
				return extract.ProductSummary{}, apperrors.NewParsing("storefront", "invalid chihiro JSON", err)
			}
			return extract.ExtractProductSummary(doc)
		}},
		{source: "html", run: func(ctx context.Context) (extract.ProductSummary, error) {
			body, err := c.opts.HTTP.Fetch(ctx, page, helpers.AcceptHTML)
			if err != nil {
				return extract.ProductSummary{}, err
			}
			return extract.ExtractFromHTML(bytes.NewReader(body))
		}},
	}
	if c.opts.Browser != nil {
		list = append(list, attempt{source: "browser", run: func(ctx context.Context) (extract.ProductSummary, error) {
			body, err := c.opts.Browser.Fetch(ctx, page, helpers.AcceptHTML)
			if err != nil {
				return extract.ProductSummary{}, err
			}
			return extract.ExtractFromHTML(bytes.NewReader(body))
		}})
	}
	return list
}

func toRegionInfo(region Region, locale, source string, s extract.ProductSummary) RegionPriceInfo {
	info := RegionPriceInfo{
		Region:          region,
		Status:          StatusOK,
		Locale:          locale,
		Source:          source,
		Title:           s.Name,
		ImageURL:        s.ImageURL,
		Platforms:       s.Platforms,
		Currency:        region.Currency(),
		DisplayPrice:    s.Price.Current,
		DiscountPercent: s.Price.DiscountPercent(),
		EndRaw:          s.Price.EndRaw,
		EndTime:         s.Price.EndTime,
	}
	if s.Price.Discounted() {
		info.BasePrice = s.Price.Base
	}
	info.Value, info.HasValue = pricing.ParseMoney(info.DisplayPrice)
	if info.BasePrice != "" {
		info.BaseValue, info.HasBaseValue = pricing.ParseMoney(info.BasePrice)
	}
	return info
}

// LookupProduct looks the regions of q up concurrently and returns them in query order
func (c *Client) LookupProduct(ctx context.Context, q ProductQuery) ProductResult {
	result := ProductResult{ProductID: q.ProductID, Regions: make([]RegionPriceInfo, len(q.Regions))}

	var wg sync.WaitGroup
	for i, region := range q.Regions {
		wg.Add(1)
		go func(i int, region Region) {
			defer wg.Done()
			result.Regions[i] = c.LookupRegion(ctx, q.ProductID, region)
		}(i, region)
	}
	wg.Wait()

	return result
}

// lookupSequential looks the regions up one after another
func (c *Client) lookupSequential(ctx context.Context, q ProductQuery) ProductResult {
	result := ProductResult{ProductID: q.ProductID, Regions: make([]RegionPriceInfo, 0, len(q.Regions))}
	for _, region := range q.Regions {
		result.Regions = append(result.Regions, c.LookupRegion(ctx, q.ProductID, region))
	}
	return result
}
