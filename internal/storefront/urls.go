package storefront

import (
	"fmt"
	"net/url"
	"strings"
)

// ChihiroURL builds the container JSON endpoint for one product
func ChihiroURL(base, country, lang, productID string) string {
	return fmt.Sprintf("%s/store/api/chihiro/00_09_000/container/%s/%s/999/%s",
		strings.TrimRight(base, "/"), strings.ToUpper(country), strings.ToLower(lang), url.PathEscape(productID))
}

// ProductPageURL builds the HTML product page in locale, e.g. "tr-tr"
func ProductPageURL(base, locale, productID string) string {
	return fmt.Sprintf("%s/%s/product/%s", strings.TrimRight(base, "/"), locale, url.PathEscape(productID))
}

// CategoryPageURL builds one page of a category grid; pages start at 1
func CategoryPageURL(base, locale, categoryID string, page int) string {
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf("%s/%s/category/%s/%d", strings.TrimRight(base, "/"), locale, url.PathEscape(categoryID), page)
}
