package storefront

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "sjsage522/pspricebot/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testProduct = "UP0006-PPSA27360_00-26STANDARDBUNDLE"
	testBase    = "https://store.test"
)

func chihiroJSON(name, price string) string {
	return `{"name":"` + name + `","images":[{"url":"https://img.test/cover.png"}],"playable_platform":["PS5"],"default_sku":{"display_price":"` + price + `"}}`
}

func TestLookupRegionChihiro(t *testing.T) {
	fetcher := NewMockFetcher().
		On("/container/TR/tr/999/"+testProduct, chihiroJSON("EA SPORTS FC 26", "2.799,00 TL"))

	c := NewClient(Options{BaseURL: testBase, HTTP: fetcher})
	info := c.LookupRegion(context.Background(), testProduct, RegionTR)

	assert.Equal(t, StatusOK, info.Status)
	assert.Equal(t, "chihiro", info.Source)
	assert.Equal(t, "tr-tr", info.Locale)
	assert.Equal(t, "EA SPORTS FC 26", info.Title)
	assert.Equal(t, "TRY", info.Currency)
	assert.Equal(t, "2.799,00 TL", info.DisplayPrice)
	assert.True(t, info.HasValue)
	assert.Equal(t, 2799.0, info.Value)
	assert.Equal(t, []string{testBase + "/store/api/chihiro/00_09_000/container/TR/tr/999/" + testProduct}, fetcher.Calls())
}

func TestLookupRegionLocaleFallback(t *testing.T) {
	fetcher := NewMockFetcher().
		On("/container/UA/ru/999/"+testProduct, chihiroJSON("EA SPORTS FC 26", "UAH 2 199"))

	c := NewClient(Options{BaseURL: testBase, HTTP: fetcher})
	info := c.LookupRegion(context.Background(), testProduct, RegionUA)

	require.Equal(t, StatusOK, info.Status)
	assert.Equal(t, "ru-ua", info.Locale)
	assert.Equal(t, 2199.0, info.Value)
	assert.Equal(t, []string{
		testBase + "/store/api/chihiro/00_09_000/container/UA/uk/999/" + testProduct,
		testBase + "/uk-ua/product/" + testProduct,
		testBase + "/store/api/chihiro/00_09_000/container/UA/ru/999/" + testProduct,
	}, fetcher.Calls())
}

func TestLookupRegionHTMLFallback(t *testing.T) {
	page := `<html><script id="__NEXT_DATA__" type="application/json">{"product":{"name":"Astro Bot","media":[{"url":"https://img.test/astro.png"}],
	"price":{"basePrice":"₺1.999,00","discountedPrice":"₺1.399,30","discountText":"-30%"}}}</script></html>`
	fetcher := NewMockFetcher().
		Fail("/container/TR/tr/999/"+testProduct, apperrors.NewParsing("http", "garbage", nil)).
		On("/tr-tr/product/"+testProduct, page)

	c := NewClient(Options{BaseURL: testBase, HTTP: fetcher})
	info := c.LookupRegion(context.Background(), testProduct, RegionTR)

	require.Equal(t, StatusOK, info.Status)
	assert.Equal(t, "html", info.Source)
	assert.Equal(t, "₺1.399,30", info.DisplayPrice)
	assert.Equal(t, "₺1.999,00", info.BasePrice)
	assert.True(t, info.Discounted())
	assert.Equal(t, 30, info.DiscountPercent)
	assert.InDelta(t, 1399.30, info.Value, 1e-9)
	assert.InDelta(t, 1999.00, info.BaseValue, 1e-9)
}

func TestLookupRegionBrowserFallback(t *testing.T) {
	page := `<html><script type="application/json">{"name":"Astro Bot","price":{"basePrice":"₺1.999,00"}}</script></html>`
	httpFetcher := NewMockFetcher().
		Fail("/tr-tr/product/"+testProduct, apperrors.NewBlocked("storefront", time.Minute))
	browserFetcher := NewMockFetcher().On("/tr-tr/product/"+testProduct, page)

	c := NewClient(Options{BaseURL: testBase, HTTP: httpFetcher, Browser: browserFetcher})
	info := c.LookupRegion(context.Background(), testProduct, RegionTR)

	require.Equal(t, StatusOK, info.Status)
	assert.Equal(t, "browser", info.Source)
	assert.Equal(t, "₺1.999,00", info.DisplayPrice)
}

func TestLookupRegionNotFoundAndFailed(t *testing.T) {
	c := NewClient(Options{BaseURL: testBase, HTTP: NewMockFetcher()})
	info := c.LookupRegion(context.Background(), testProduct, RegionUA)
	assert.Equal(t, StatusNotFound, info.Status)
	assert.Equal(t, "UAH", info.Currency)

	boom := apperrors.NewNetwork("http", "timeout", errors.New("deadline"))
	failing := NewMockFetcher().Fail(testProduct, boom)
	c = NewClient(Options{BaseURL: testBase, HTTP: failing})
	info = c.LookupRegion(context.Background(), testProduct, RegionTR)
	assert.Equal(t, StatusFailed, info.Status)
	assert.True(t, apperrors.Is(info.Err, apperrors.ErrorTypeNetwork))
}

func TestLookupRegionPartial(t *testing.T) {
	fetcher := NewMockFetcher().
		On("/container/TR/tr/999/"+testProduct, `{"name":"Unreleased Game","default_sku":{"name":"Standard"}}`)

	c := NewClient(Options{BaseURL: testBase, HTTP: fetcher})
	info := c.LookupRegion(context.Background(), testProduct, RegionTR)

	assert.Equal(t, StatusOK, info.Status)
	assert.Equal(t, "Unreleased Game", info.Title)
	assert.Equal(t, "", info.DisplayPrice)
	assert.False(t, info.HasValue)
	// Every attempt was tried before settling for the partial result
	assert.Len(t, fetcher.Calls(), 2)
}

func TestLookupProduct(t *testing.T) {
	fetcher := NewMockFetcher().
		On("/container/TR/tr/999/"+testProduct, chihiroJSON("EA SPORTS FC 26", "2.799,00 TL")).
		On("/container/UA/uk/999/"+testProduct, chihiroJSON("EA SPORTS FC 26 UA", "UAH 2 199"))

	c := NewClient(Options{BaseURL: testBase, HTTP: fetcher})
	result := c.LookupProduct(context.Background(), NewProductQuery(testProduct))

	require.Len(t, result.Regions, 2)
	assert.Equal(t, RegionTR, result.Regions[0].Region)
	assert.Equal(t, RegionUA, result.Regions[1].Region)
	assert.Equal(t, "EA SPORTS FC 26", result.Title())
	assert.Equal(t, "https://img.test/cover.png", result.ImageURL())
	assert.Equal(t, []string{"PS5"}, result.Platforms())
	assert.True(t, result.AnyOK())
}

func TestLookupProductTitleFallsBackToUA(t *testing.T) {
	fetcher := NewMockFetcher().
		On("/container/UA/uk/999/"+testProduct, chihiroJSON("EA SPORTS FC 26 UA", "UAH 2 199"))

	c := NewClient(Options{BaseURL: testBase, HTTP: fetcher})
	result := c.LookupProduct(context.Background(), NewProductQuery(testProduct))

	tr, _ := result.Region(RegionTR)
	assert.Equal(t, StatusNotFound, tr.Status)
	assert.Equal(t, "EA SPORTS FC 26 UA", result.Title())
}
