package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"net/url"
	"slices"
	"time"

	apperrors "sjsage522/pspricebot/pkg/errors"

	"golang.org/x/net/html/charset"
)

// Accept headers for the two kinds of storefront requests
const (
	AcceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8"
	AcceptJSON = "application/json, text/plain, */*"
)

// HTTP header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	}

	referers = []string{
		"https://www.google.com/",
		"https://store.playstation.com/",
		"https://www.bing.com/",
	}

	acceptLanguages = []string{
		"en-US,en;q=0.9",
		"tr-TR,tr;q=0.9,en;q=0.8",
		"uk-UA,uk;q=0.9,ru;q=0.8,en;q=0.7",
	}

	blockedStatuses = []int{http.StatusTooManyRequests, 430, http.StatusForbidden}

	// MaxBodySize caps how much of an upstream response is read
	MaxBodySize int64 = 8 << 20
)

// NewClient returns an HTTP client with the given timeout, routed through
// proxyURL when it is non-empty
func NewClient(timeout time.Duration, proxyURL string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, apperrors.NewConfiguration("invalid HTTP_PROXY_URL", err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// Fetch sends an HTTP GET request with randomized browser-like headers,
// converts the response body to UTF-8 (if needed), and returns it.
// Rate limiting and anti-bot statuses come back as blocked errors.
func Fetch(ctx context.Context, client *http.Client, target, accept string) ([]byte, error) {
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperrors.NewNetwork("http", "failed to create request", err)
	}

	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", acceptLanguages[rnd.Intn(len(acceptLanguages))])
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetwork("http", fmt.Sprintf("failed to fetch %s", target), err)
	}
	defer resp.Body.Close()

	if slices.Contains(blockedStatuses, resp.StatusCode) {
		retryAfter := resp.Header.Get("Retry-After")
		return nil, apperrors.New(apperrors.ErrorTypeBlocked, "http",
			fmt.Sprintf("status %d; retry after %q", resp.StatusCode, retryAfter), nil)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewNotFound("http", fmt.Sprintf("fetch %s: status 404", target))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNetwork("http", fmt.Sprintf("fetch %s unexpected status code: %d", target, resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, apperrors.NewNetwork("http", "failed to read response body", err)
	}
	if int64(len(bodyBytes)) > MaxBodySize {
		return nil, apperrors.NewParsing("http", fmt.Sprintf("response from %s exceeds %d bytes", target, MaxBodySize), nil)
	}

	return toUTF8(bodyBytes, resp.Header.Get("Content-Type"))
}

func toUTF8(body []byte, contentType string) ([]byte, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return body, nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, encoding.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, apperrors.NewParsing("http", "failed to read converted UTF-8 body", err)
	}
	return buf.Bytes(), nil
}
