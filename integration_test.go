package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"sjsage522/pspricebot/config"
	"sjsage522/pspricebot/internal/bot"
	"sjsage522/pspricebot/internal/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testProduct  = "UP0006-PPSA27360_00-26STANDARDBUNDLE"
	otherProduct = "EP9000-PPSA01234_00-ASTROBOTPS500000"
	testCategory = "4cbf39e2-5749-4970-ba81-93a489e4570c"
)

func chihiro(name, price string) string {
	return fmt.Sprintf(`{"name":%q,"images":[{"url":"https://img.test/cover.png"}],"playable_platform":["PS5"],"default_sku":{"display_price":%q}}`, name, price)
}

// upstream fakes the storefront and the rate service on one server
func upstream(t *testing.T, rateCalls *int32) *httptest.Server {
	t.Helper()
	routes := map[string]string{
		"/store/api/chihiro/00_09_000/container/TR/tr/999/" + testProduct:  chihiro("EA SPORTS FC 26", "1.679,40 TL"),
		"/store/api/chihiro/00_09_000/container/UA/uk/999/" + testProduct:  chihiro("EA SPORTS FC 26", "UAH 2 399"),
		"/store/api/chihiro/00_09_000/container/TR/tr/999/" + otherProduct: chihiro("Astro Bot", "2.099,00 TL"),
		"/tr-tr/category/" + testCategory + "/1": fmt.Sprintf(
			`<html><body><a href="/tr-tr/product/%s">FC</a><a href="/tr-tr/product/%s">Astro</a></body></html>`,
			testProduct, otherProduct),
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v6/latest/AZN" {
			atomic.AddInt32(rateCalls, 1)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"result":"success","base_code":"AZN","time_last_update_unix":1717200000,"rates":{"AZN":1,"TRY":20,"UAH":24}}`))
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if strings.Contains(r.URL.Path, "/category/") {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		} else {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
		}
		w.Write([]byte(body))
	}))
}

type recordingMessenger struct {
	mu    sync.Mutex
	texts []string
}

func (m *recordingMessenger) SendText(_ context.Context, _ int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *recordingMessenger) SendPhoto(context.Context, int64, []byte, string) error {
	return nil
}

func (m *recordingMessenger) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}

func setupIntegration(t *testing.T) (*Services, *config.Config, *int32) {
	t.Helper()
	var rateCalls int32
	server := upstream(t, &rateCalls)
	t.Cleanup(server.Close)

	t.Setenv("BOT_TOKEN", "123:test")
	t.Setenv("STORE_BASE_URL", server.URL)
	t.Setenv("RATE_API_URL", server.URL+"/v6/latest")
	t.Setenv("CATEGORY_MAX_PAGES", "1")
	t.Setenv("REQUEST_DELAY", "0s")
	t.Setenv("RATE_REFRESH_CRON", "")
	t.Setenv("CHAT_RATE_LIMIT", "0")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	services, err := initializeServices(cfg)
	require.NoError(t, err)
	t.Cleanup(services.Cleanup)
	assert.Nil(t, services.Refresher)
	assert.Nil(t, services.Renderer)

	return services, cfg, &rateCalls
}

func TestIntegrationProductLookup(t *testing.T) {
	services, cfg, rateCalls := setupIntegration(t)
	messenger := &recordingMessenger{}
	b := newBot(cfg, services, messenger)

	b.Handle(context.Background(), bot.Message{ChatID: 1, Text: "https://store.playstation.com/tr-tr/product/" + testProduct})

	reply := messenger.last()
	assert.Contains(t, reply, "🎮 EA SPORTS FC 26")
	assert.Contains(t, reply, "TR: 1.679,40 TL ≈ 83.97 AZN")
	assert.Contains(t, reply, "UA: UAH 2 399 ≈ 99.96 AZN")

	// a second lookup is served from the fresh rate table
	b.Handle(context.Background(), bot.Message{ChatID: 1, Text: "/p https://store.playstation.com/tr-tr/product/" + testProduct})
	assert.Equal(t, int32(1), atomic.LoadInt32(rateCalls))

	// the rates loaded by the lookup are visible on the status endpoint
	rec := httptest.NewRecorder()
	status.NewHandler(services.Rates, status.Options{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rates", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"TRY":20`)
}

func TestIntegrationCategoryScan(t *testing.T) {
	services, cfg, _ := setupIntegration(t)
	messenger := &recordingMessenger{}
	b := newBot(cfg, services, messenger)

	b.Handle(context.Background(), bot.Message{ChatID: 2, Text: "/cat https://store.playstation.com/tr-tr/category/" + testCategory + "/1 5"})

	reply := messenger.last()
	assert.Contains(t, reply, "2 products")
	assert.Contains(t, reply, "1. EA SPORTS FC 26 | TR: 1.679,40 TL ≈ 83.97 AZN")
	assert.Contains(t, reply, "2. Astro Bot | TR: 2.099,00 TL ≈ 104.95 AZN | UA: not found")
}

func TestIntegrationUnknownProduct(t *testing.T) {
	services, cfg, _ := setupIntegration(t)
	messenger := &recordingMessenger{}
	b := newBot(cfg, services, messenger)

	b.Handle(context.Background(), bot.Message{ChatID: 3, Text: "/p https://store.playstation.com/tr-tr/product/EP0000-NONE00000_00-MISSINGGAME00000"})
	assert.Equal(t, "Product not found in the TR or UA store.", messenger.last())
}
