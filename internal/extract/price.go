package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Alias groups searched by ExtractPrice, most specific first
var (
	basePriceKeys  = []string{"basePrice", "base_price", "originalPrice", "strikethroughPrice", "regularPrice"}
	discountedKeys = []string{"discountedPrice", "discounted_price", "finalPrice", "salePrice", "display_price", "displayPrice"}
	currencyKeys   = []string{"currencyCode", "currency_code", "currency"}
	endKeys        = []string{"endTime", "end_time", "offer_end_date", "promotionEndTime", "end_date"}
	discountKeys   = []string{"discountText", "discount_percentage"}

	baseMinorKeys       = []string{"basePriceValue"}
	discountedMinorKeys = []string{"discountedValue"}
)

var digitsPattern = regexp.MustCompile(`\d+`)

// PriceInfo is the price data found under a product node. Prices are
// display strings; parse them with pricing.ParseMoney.
type PriceInfo struct {
	Base         string
	Current      string
	Currency     string
	EndRaw       string
	EndTime      time.Time
	DiscountText string
}

// Discounted reports whether a base price differs from the current one
func (p PriceInfo) Discounted() bool {
	return p.Base != "" && p.Current != "" && p.Base != p.Current
}

// DiscountPercent returns the number in DiscountText, 0 when absent
func (p PriceInfo) DiscountPercent() int {
	m := digitsPattern.FindString(p.DiscountText)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return n
}

// ExtractPrice collects price fields from node's subtree. The first non-null
// hit per alias group wins; the current price falls back to the base price,
// then to a scalar price field on node itself.
// Minor-unit values are used only when no display string exists.
func ExtractPrice(node map[string]any) PriceInfo {
	info := PriceInfo{
		Base:         findScalar(node, basePriceKeys),
		Current:      findScalar(node, discountedKeys),
		Currency:     findScalar(node, currencyKeys),
		EndRaw:       findScalar(node, endKeys),
		DiscountText: findScalar(node, discountKeys),
	}

	if info.Base == "" {
		info.Base = minorUnits(findScalar(node, baseMinorKeys))
	}
	if info.Current == "" {
		info.Current = minorUnits(findScalar(node, discountedMinorKeys))
	}
	if info.Current == "" {
		info.Current = info.Base
	}
	if info.Current == "" {
		info.Current = ownScalar(node, priceKeys)
	}
	if info.EndRaw != "" {
		info.EndTime, _ = ParseTimestamp(info.EndRaw)
	}
	return info
}

// findScalar returns the first non-empty scalar under any of keys, checking
// each map's own keys before descending into its children
func findScalar(node map[string]any, keys []string) string {
	var out string
	walk(node, func(m map[string]any) bool {
		for _, k := range keys {
			if s, ok := scalar(m[k]); ok {
				out = s
				return false
			}
		}
		return true
	})
	return out
}

func scalar(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return "", false
	default:
		return "", false
	}
}

func minorUnits(raw string) string {
	if raw == "" {
		return ""
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return ""
	}
	return strconv.FormatFloat(v/100, 'f', 2, 64)
}

// ownScalar returns the first scalar directly under node for keys, such as
// a plain "price": "1.599,00 TL"
func ownScalar(node map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := scalar(node[k]); ok {
			return s
		}
	}
	return ""
}

// ParseTimestamp reads RFC3339 strings and Unix millisecond values
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if ms <= 0 {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f > 0 {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
