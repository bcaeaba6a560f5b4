package storefront

import (
	"regexp"
	"strings"
)

// LinkKind classifies free text
type LinkKind int

const (
	LinkNone LinkKind = iota
	LinkProduct
	LinkCategory
)

// StoreHost is the storefront host links must point at
const StoreHost = "store.playstation.com"

var (
	productIDPattern  = regexp.MustCompile(`/product/([A-Za-z0-9_-]+)`)
	categoryIDPattern = regexp.MustCompile(`/category/([A-Za-z0-9_-]+)`)
)

// ExtractProductID returns the token after /product/ with any query string
// or fragment removed
func ExtractProductID(input string) (string, bool) {
	return extractID(productIDPattern, input)
}

// ExtractCategoryID returns the token after /category/
func ExtractCategoryID(input string) (string, bool) {
	return extractID(categoryIDPattern, input)
}

func extractID(re *regexp.Regexp, input string) (string, bool) {
	m := re.FindStringSubmatch(input)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ClassifyLink reports whether text holds a storefront product or category link
func ClassifyLink(text string) LinkKind {
	if !strings.Contains(strings.ToLower(text), StoreHost) {
		return LinkNone
	}
	if _, ok := ExtractProductID(text); ok {
		return LinkProduct
	}
	if _, ok := ExtractCategoryID(text); ok {
		return LinkCategory
	}
	return LinkNone
}
