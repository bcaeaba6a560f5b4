package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sjsage522/pspricebot/helpers"
	"sjsage522/pspricebot/internal/browser"
	"sjsage522/pspricebot/logger"
	apperrors "sjsage522/pspricebot/pkg/errors"
	"sjsage522/pspricebot/services/cache"

	"github.com/go-rod/rod/lib/proto"
)

// blockKey marks the storefront as blocking us
const blockKey = "psbot_storefront_blocked"

// Fetcher retrieves one storefront document
type Fetcher interface {
	Fetch(ctx context.Context, url, accept string) ([]byte, error)
}

// HTTPFetcher fetches over plain HTTP. After a blocked response every fetch
// fails fast until the block key in the cache expires.
type HTTPFetcher struct {
	client    *http.Client
	cacheSvc  cache.CacheService
	blockTime time.Duration
}

// NewHTTPFetcher creates a fetcher; cacheSvc may be nil to disable blocking
func NewHTTPFetcher(client *http.Client, cacheSvc cache.CacheService, blockTime time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: client, cacheSvc: cacheSvc, blockTime: blockTime}
}

// Fetch implements Fetcher
func (f *HTTPFetcher) Fetch(ctx context.Context, url, accept string) ([]byte, error) {
	if f.blocked() {
		return nil, apperrors.NewBlocked("storefront", f.blockTime)
	}

	body, err := helpers.Fetch(ctx, f.client, url, accept)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrorTypeBlocked) && f.cacheSvc != nil && f.blockTime > 0 {
			if setErr := f.cacheSvc.Set(blockKey, []byte(fmt.Sprintf("%d", f.blockTime/time.Second)), f.blockTime); setErr != nil {
				logger.ForCache().Warn().Err(setErr).Msg("Failed to set storefront block key")
			}
			logger.ForStorefront("any").Warn().Dur("block_time", f.blockTime).Str("url", url).Msg("Storefront blocked us")
		}
		return nil, err
	}
	return body, nil
}

func (f *HTTPFetcher) blocked() bool {
	if f.cacheSvc == nil {
		return false
	}
	_, err := f.cacheSvc.Get(blockKey)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.ForCache().Debug().Err(err).Msg("Block key lookup failed")
	}
	return false
}

// BrowserFetcher loads pages in headless Chromium and returns the rendered HTML
type BrowserFetcher struct {
	browser *browser.Browser
	timeout time.Duration
}

// NewBrowserFetcher creates a fetcher over b with a per-page timeout
func NewBrowserFetcher(b *browser.Browser, timeout time.Duration) *BrowserFetcher {
	return &BrowserFetcher{browser: b, timeout: timeout}
}

// Fetch implements Fetcher; accept is ignored
func (f *BrowserFetcher) Fetch(ctx context.Context, url, _ string) ([]byte, error) {
	b, err := f.browser.Get()
	if err != nil {
		return nil, err
	}

	pageCtx, cancel := browser.PageContext(ctx, f.timeout)
	defer cancel()

	page, err := b.Context(pageCtx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, apperrors.NewNetwork("browser", fmt.Sprintf("failed to open %s", url), err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return nil, apperrors.NewNetwork("browser", fmt.Sprintf("failed to load %s", url), err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, apperrors.NewNetwork("browser", "failed to read page HTML", err)
	}
	return []byte(html), nil
}
