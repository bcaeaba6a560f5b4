// Package browser owns the shared headless Chromium used for page fetches
// and card rendering.
package browser

import (
	"context"
	"os"
	"sync"
	"time"

	"sjsage522/pspricebot/logger"
	apperrors "sjsage522/pspricebot/pkg/errors"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// systemChromium is used when present and no binary is configured
const systemChromium = "/usr/bin/chromium-browser"

// Browser launches Chromium on first use and reuses it afterwards
type Browser struct {
	bin string

	mu      sync.Mutex
	browser *rod.Browser
}

// New creates a lazy browser; bin may be empty to auto-detect
func New(bin string) *Browser {
	return &Browser{bin: bin}
}

// Get returns the running browser, launching it if needed. A failed launch
// is retried on the next call.
func (b *Browser) Get() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false)

	bin := b.bin
	if bin == "" {
		if _, err := os.Stat(systemChromium); err == nil {
			bin = systemChromium
		}
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, apperrors.NewConfiguration("failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, apperrors.NewConfiguration("failed to connect to browser", err)
	}

	logger.ForRenderer().Info().Str("control_url", controlURL).Msg("Browser launched")
	b.browser = browser
	return browser, nil
}

// Close shuts the browser down if it was launched
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}

// PageContext bounds one page operation by timeout. Callers must call the
// returned cancel when done; a non-positive timeout only adds cancellation.
func PageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
