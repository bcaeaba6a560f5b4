package bot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"sjsage522/pspricebot/internal/pricing"
	"sjsage522/pspricebot/internal/storefront"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, SplitMessage("short", 100))
	assert.Equal(t, []string{"a\nb"}, SplitMessage("a\nb", 0))

	text := "line one\nline two\nline three"
	assert.Equal(t, []string{"line one", "line two", "line three"}, SplitMessage(text, 12))
	assert.Equal(t, []string{"line one\nline two", "line three"}, SplitMessage(text, 18))

	long := strings.Repeat("ж", 25)
	chunks := SplitMessage(long, 10)
	assert.Equal(t, []string{strings.Repeat("ж", 10), strings.Repeat("ж", 10), strings.Repeat("ж", 5)}, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
	}
}

func TestRegionPriceStates(t *testing.T) {
	f := Formatter{Converter: pricing.NewConverter("AZN", "ceil")}
	table := testRates().Table

	tests := []struct {
		name string
		info storefront.RegionPriceInfo
		want string
	}{
		{"not found", notFound(storefront.RegionTR), "TR: not found"},
		{"failed", failed(storefront.RegionUA), "UA: unavailable"},
		{"name only", storefront.RegionPriceInfo{Region: storefront.RegionTR, Status: storefront.StatusOK, Title: "Demo"}, "TR: price unavailable"},
		{"ceil rounding", regularUA(), "UA: 2 399,00 UAH ≈ 100.00 AZN"},
		{"unknown currency", storefront.RegionPriceInfo{Region: storefront.RegionTR, Status: storefront.StatusOK, Currency: "XYZ", DisplayPrice: "10 XYZ", Value: 10, HasValue: true}, "TR: 10 XYZ"},
		{"unparsed display", storefront.RegionPriceInfo{Region: storefront.RegionTR, Status: storefront.StatusOK, Currency: "TRY", DisplayPrice: "Free"}, "TR: Free"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.regionPrice(tt.info, &table).line())
		})
	}
}

func TestFormatRates(t *testing.T) {
	f := Formatter{Converter: pricing.NewConverter("AZN", "round")}
	out := f.Rates(testRates().Table, []string{"TRY", "UAH", "AZN", "EUR"})

	assert.Contains(t, out, "Rates per 1 AZN (test, 2024-06-01 12:00 UTC)")
	assert.Contains(t, out, "TRY: 20.00")
	assert.Contains(t, out, "EUR: n/a")
	assert.NotContains(t, out, "AZN: 1.00")
}
