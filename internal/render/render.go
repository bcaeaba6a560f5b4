// Package render turns a price lookup into a PNG card.
package render

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"strings"
	"time"

	"sjsage522/pspricebot/internal/browser"
	"sjsage522/pspricebot/logger"
	apperrors "sjsage522/pspricebot/pkg/errors"

	"github.com/go-rod/rod/lib/proto"
)

// Card geometry and the pause for remote images before capture
const (
	Width       = 1080
	Height      = 1350
	ScaleFactor = 2
	AssetWait   = 800 * time.Millisecond
)

const placeholder = "—"

//go:embed card.html
var cardHTML string

var cardTemplate = template.Must(template.New("card").Parse(cardHTML))

// PriceLine is one region on the card
type PriceLine struct {
	Label     string
	Price     string
	OldPrice  string
	Converted string
}

// RenderRequest is the card view-model; every field is display text
type RenderRequest struct {
	Title    string
	ImageURL string
	Platform string
	Lines    []PriceLine
	EndDate  string
	Discount string
	URL      string
}

// Renderer produces a card image
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// BuildHTML fills the card template. Blank fields show a dash.
func BuildHTML(req RenderRequest) (string, error) {
	view := req
	view.Title = orPlaceholder(req.Title)
	view.Platform = orPlaceholder(req.Platform)
	view.EndDate = orPlaceholder(req.EndDate)
	view.URL = orPlaceholder(req.URL)
	view.Lines = make([]PriceLine, len(req.Lines))
	for i, line := range req.Lines {
		line.Price = orPlaceholder(line.Price)
		view.Lines[i] = line
	}

	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, view); err != nil {
		return "", apperrors.NewRender("failed to execute card template", err)
	}
	return buf.String(), nil
}

// RodRenderer rasterizes cards in headless Chromium
type RodRenderer struct {
	browser *browser.Browser
	timeout time.Duration
}

// NewRodRenderer creates a renderer bounded by timeout per card
func NewRodRenderer(b *browser.Browser, timeout time.Duration) *RodRenderer {
	return &RodRenderer{browser: b, timeout: timeout}
}

// Render implements Renderer
func (r *RodRenderer) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	log := logger.ForRenderer()
	start := time.Now()

	html, err := BuildHTML(req)
	if err != nil {
		return nil, err
	}

	b, err := r.browser.Get()
	if err != nil {
		return nil, apperrors.NewRender("browser unavailable", err)
	}

	pageCtx, cancel := browser.PageContext(ctx, r.timeout)
	defer cancel()

	page, err := b.Context(pageCtx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, apperrors.NewRender("failed to open page", err)
	}
	defer page.Close()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             Width,
		Height:            Height,
		DeviceScaleFactor: ScaleFactor,
	}); err != nil {
		return nil, apperrors.NewRender("failed to set viewport", err)
	}

	if err := page.SetDocumentContent(html); err != nil {
		return nil, apperrors.NewRender("failed to set content", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, apperrors.NewRender("card did not load", err)
	}

	select {
	case <-time.After(AssetWait):
	case <-pageCtx.Done():
		return nil, apperrors.NewRender("canceled while waiting for assets", pageCtx.Err())
	}

	png, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, apperrors.NewRender("screenshot failed", err)
	}

	log.Debug().Dur("elapsed", time.Since(start)).Int("bytes", len(png)).Msg("Card rendered")
	return png, nil
}
