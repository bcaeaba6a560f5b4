// Package extract pulls product data out of loosely structured storefront
// documents: the chihiro container JSON, embedded page JSON and HTML meta tags.
package extract

import (
	"strconv"
	"strings"
	"time"

	apperrors "sjsage522/pspricebot/pkg/errors"
)

// ErrNoProductData means no node in the document looks like a product
var ErrNoProductData = apperrors.NewNotFound("extract", "no usable product data")

// ProductSummary is what the bot needs to know about one product in one locale
type ProductSummary struct {
	Name      string
	ImageURL  string
	Platforms []string
	Price     PriceInfo
}

// EndTime returns the promotion end, zero when unknown
func (s ProductSummary) EndTime() time.Time {
	return s.Price.EndTime
}

// ExtractProductSummary reads a decoded JSON document. The chihiro container
// shape is tried first, then the heuristic node search.
func ExtractProductSummary(doc any) (ProductSummary, error) {
	if m, ok := doc.(map[string]any); ok {
		if s, ok := fromChihiro(m); ok {
			return s, nil
		}
	}

	c, ok := FindProductNode(doc)
	if !ok {
		return ProductSummary{}, ErrNoProductData
	}
	return fromCandidate(c), nil
}

func fromCandidate(c Candidate) ProductSummary {
	return ProductSummary{
		Name:      c.Name,
		ImageURL:  findImage(c.Node),
		Platforms: stringList(c.Node, "platforms", "playable_platform"),
		Price:     ExtractPrice(c.Node),
	}
}

// fromChihiro handles /store/api/chihiro container responses
func fromChihiro(m map[string]any) (ProductSummary, bool) {
	name := firstString(m, []string{"name", "localized_name", "title_name", "long_name"})
	sku, _ := m["default_sku"].(map[string]any)
	if name == "" || sku == nil {
		return ProductSummary{}, false
	}

	price := PriceInfo{
		Current: firstNonEmpty(
			stringAt(sku, "display_price"),
			stringAt(sku, "price", "display"),
			stringAt(sku, "prices", "0", "display_price"),
		),
		EndRaw: firstNonEmpty(
			stringAt(sku, "price", "offer_end_date"),
			stringAt(sku, "prices", "0", "offer_end_date"),
			stringAt(sku, "price", "end_date"),
			stringAt(sku, "prices", "0", "end_date"),
		),
		DiscountText: firstNonEmpty(
			stringAt(sku, "price", "discount_percentage"),
			stringAt(sku, "prices", "0", "discount_percentage"),
		),
	}

	// An active reward carries the sale price; display_price is then the base
	if reward := stringAt(sku, "rewards", "0", "display_price"); reward != "" {
		price.Base = price.Current
		price.Current = reward
		if price.EndRaw == "" {
			price.EndRaw = stringAt(sku, "rewards", "0", "end_date")
		}
		if price.DiscountText == "" {
			price.DiscountText = stringAt(sku, "rewards", "0", "discount")
		}
	}
	if price.EndRaw != "" {
		price.EndTime, _ = ParseTimestamp(price.EndRaw)
	}

	return ProductSummary{
		Name:      name,
		ImageURL:  findImage(m),
		Platforms: stringList(m, "playable_platform"),
		Price:     price,
	}, true
}

// stringAt follows path through maps and slices (numeric segments index
// slices) and returns the scalar at the end
func stringAt(v any, path ...string) string {
	cur := v
	for _, seg := range path {
		switch node := cur.(type) {
		case map[string]any:
			cur = node[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return ""
			}
			cur = node[i]
		default:
			return ""
		}
	}
	s, _ := scalar(cur)
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// findImage returns the first image URL among the node's images-like fields
func findImage(m map[string]any) string {
	for _, k := range imageKeys {
		if u := imageURL(m[k]); u != "" {
			return u
		}
	}
	return ""
}

func imageURL(v any) string {
	switch val := v.(type) {
	case string:
		if strings.HasPrefix(val, "http") {
			return val
		}
	case map[string]any:
		for _, k := range []string{"url", "src"} {
			if s, ok := val[k].(string); ok && strings.HasPrefix(s, "http") {
				return s
			}
		}
	case []any:
		for _, item := range val {
			if u := imageURL(item); u != "" {
				return u
			}
		}
	}
	return ""
}

func stringList(m map[string]any, keys ...string) []string {
	for _, k := range keys {
		list, ok := m[k].([]any)
		if !ok {
			continue
		}
		var out []string
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
