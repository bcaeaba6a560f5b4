// Package storefront looks up PlayStation Store products and categories
// per region.
package storefront

import (
	"strings"
)

// Region is a storefront country the bot compares prices in
type Region string

const (
	RegionTR Region = "TR"
	RegionUA Region = "UA"
)

// DefaultRegions are looked up for every product, in reply order
var DefaultRegions = []Region{RegionTR, RegionUA}

type regionInfo struct {
	country   string
	currency  string
	languages []string
}

var regions = map[Region]regionInfo{
	RegionTR: {country: "TR", currency: "TRY", languages: []string{"tr"}},
	RegionUA: {country: "UA", currency: "UAH", languages: []string{"uk", "ru", "en"}},
}

// ParseRegion returns the region for a code such as "tr"
func ParseRegion(code string) (Region, bool) {
	r := Region(strings.ToUpper(strings.TrimSpace(code)))
	_, ok := regions[r]
	return r, ok
}

// Country returns the chihiro country code
func (r Region) Country() string {
	return regions[r].country
}

// Currency returns the ISO currency code prices are shown in
func (r Region) Currency() string {
	return regions[r].currency
}

// Languages returns the languages to try, in fallback order
func (r Region) Languages() []string {
	return append([]string(nil), regions[r].languages...)
}

// Locales returns the storefront path locales, e.g. "uk-ua", in fallback order
func (r Region) Locales() []string {
	info := regions[r]
	out := make([]string, 0, len(info.languages))
	for _, lang := range info.languages {
		out = append(out, lang+"-"+strings.ToLower(info.country))
	}
	return out
}
