package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"sjsage522/pspricebot/internal/pricing"
	"sjsage522/pspricebot/internal/render"
	"sjsage522/pspricebot/internal/storefront"
	"sjsage522/pspricebot/services/session"
)

type sent struct {
	ChatID  int64
	Text    string
	Photo   []byte
	Caption string
}

// MockMessenger records replies
type MockMessenger struct {
	mu       sync.Mutex
	Sent     []sent
	PhotoErr error
}

func (m *MockMessenger) SendText(_ context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sent{ChatID: chatID, Text: text})
	return nil
}

func (m *MockMessenger) SendPhoto(_ context.Context, chatID int64, png []byte, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PhotoErr != nil {
		return m.PhotoErr
	}
	m.Sent = append(m.Sent, sent{ChatID: chatID, Photo: png, Caption: caption})
	return nil
}

func (m *MockMessenger) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.Sent {
		if s.Photo == nil {
			out = append(out, s.Text)
		}
	}
	return out
}

func (m *MockMessenger) Last() sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return sent{}
	}
	return m.Sent[len(m.Sent)-1]
}

// MockStorefront returns canned results
type MockStorefront struct {
	mu          sync.Mutex
	Product     storefront.ProductResult
	Category    storefront.CategoryResult
	CategoryErr error
	Panic       bool
	Products    []string
	Limits      []int
}

func (m *MockStorefront) LookupProduct(_ context.Context, q storefront.ProductQuery) storefront.ProductResult {
	if m.Panic {
		panic("lookup exploded")
	}
	m.mu.Lock()
	m.Products = append(m.Products, q.ProductID)
	m.mu.Unlock()
	res := m.Product
	res.ProductID = q.ProductID
	return res
}

func (m *MockStorefront) ScanCategory(_ context.Context, categoryID string, limit int) (storefront.CategoryResult, error) {
	m.mu.Lock()
	m.Limits = append(m.Limits, limit)
	m.mu.Unlock()
	if m.CategoryErr != nil {
		return storefront.CategoryResult{}, m.CategoryErr
	}
	res := m.Category
	res.CategoryID = categoryID
	return res, nil
}

// MockRates serves a fixed table or an error
type MockRates struct {
	Table pricing.RateTable
	Err   error
}

func (m *MockRates) Get(context.Context) (pricing.RateTable, error) {
	return m.Table, m.Err
}

// MockRenderer returns a fixed image
type MockRenderer struct {
	Err      error
	Requests []render.RenderRequest
}

func (m *MockRenderer) Render(_ context.Context, req render.RenderRequest) ([]byte, error) {
	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return []byte("\x89PNG"), nil
}

var errUpstream = errors.New("upstream down")

func testRates() *MockRates {
	return &MockRates{Table: pricing.NewRateTable("AZN", map[string]float64{"TRY": 20, "UAH": 24}, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), "test")}
}

func discountedTR() storefront.RegionPriceInfo {
	return storefront.RegionPriceInfo{
		Region:          storefront.RegionTR,
		Status:          storefront.StatusOK,
		Locale:          "tr-tr",
		Title:           "Astro Bot",
		ImageURL:        "https://image.api.playstation.com/astro.png",
		Platforms:       []string{"PS5"},
		Currency:        "TRY",
		DisplayPrice:    "1.679,40 TL",
		BasePrice:       "2.799,00 TL",
		Value:           1679.40,
		HasValue:        true,
		BaseValue:       2799,
		HasBaseValue:    true,
		DiscountPercent: 40,
		EndTime:         time.Date(2024, 6, 19, 23, 59, 0, 0, time.UTC),
	}
}

func regularUA() storefront.RegionPriceInfo {
	return storefront.RegionPriceInfo{
		Region:       storefront.RegionUA,
		Status:       storefront.StatusOK,
		Locale:       "uk-ua",
		Title:        "Astro Bot UA",
		Currency:     "UAH",
		DisplayPrice: "2 399,00 UAH",
		Value:        2399,
		HasValue:     true,
	}
}

func notFound(region storefront.Region) storefront.RegionPriceInfo {
	return storefront.RegionPriceInfo{Region: region, Status: storefront.StatusNotFound}
}

func failed(region storefront.Region) storefront.RegionPriceInfo {
	return storefront.RegionPriceInfo{Region: region, Status: storefront.StatusFailed, Err: errUpstream}
}

func newTestBot(store Storefront, rates RateProvider, opts Options) (*Bot, *MockMessenger) {
	messenger := &MockMessenger{}
	if opts.Converter.Target == "" {
		opts.Converter = pricing.NewConverter("AZN", "round")
	}
	return New(messenger, store, rates, session.NewMemoryStore(time.Minute), opts), messenger
}
