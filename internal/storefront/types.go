package storefront

import (
	"time"
)

// Status is the outcome of one region lookup
type Status string

const (
	StatusOK       Status = "ok"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

// ProductQuery names a product and the regions to price it in
type ProductQuery struct {
	ProductID string
	Regions   []Region
}

// NewProductQuery builds a query; no regions means DefaultRegions
func NewProductQuery(productID string, regions ...Region) ProductQuery {
	if len(regions) == 0 {
		regions = DefaultRegions
	}
	return ProductQuery{ProductID: productID, Regions: append([]Region(nil), regions...)}
}

// RegionPriceInfo is the price of one product in one region
type RegionPriceInfo struct {
	Region Region
	Status Status
	Err    error

	// Locale and Source tell which attempt produced the data
	Locale string
	Source string

	Title     string
	ImageURL  string
	Platforms []string

	Currency     string
	DisplayPrice string
	BasePrice    string
	// Value is the parsed DisplayPrice, valid when HasValue
	Value    float64
	HasValue bool
	// BaseValue is the parsed BasePrice, valid when HasBaseValue
	BaseValue    float64
	HasBaseValue bool

	DiscountPercent int
	EndRaw          string
	EndTime         time.Time
}

// OK reports whether the lookup produced data
func (r RegionPriceInfo) OK() bool {
	return r.Status == StatusOK
}

// Discounted reports whether a higher base price is known
func (r RegionPriceInfo) Discounted() bool {
	if r.HasBaseValue && r.HasValue {
		return r.BaseValue > r.Value
	}
	return r.BasePrice != "" && r.BasePrice != r.DisplayPrice
}

// ProductResult joins the region lookups of one product
type ProductResult struct {
	ProductID string
	Regions   []RegionPriceInfo
}

// Region returns the lookup for region
func (p ProductResult) Region(region Region) (RegionPriceInfo, bool) {
	for _, r := range p.Regions {
		if r.Region == region {
			return r, true
		}
	}
	return RegionPriceInfo{}, false
}

// Title returns the first non-empty title in region order
func (p ProductResult) Title() string {
	for _, r := range p.Regions {
		if r.OK() && r.Title != "" {
			return r.Title
		}
	}
	return ""
}

// ImageURL returns the first image in region order
func (p ProductResult) ImageURL() string {
	for _, r := range p.Regions {
		if r.ImageURL != "" {
			return r.ImageURL
		}
	}
	return ""
}

// Platforms returns the first non-empty platform list in region order
func (p ProductResult) Platforms() []string {
	for _, r := range p.Regions {
		if len(r.Platforms) > 0 {
			return r.Platforms
		}
	}
	return nil
}

// AnyOK reports whether at least one region produced data
func (p ProductResult) AnyOK() bool {
	for _, r := range p.Regions {
		if r.OK() {
			return true
		}
	}
	return false
}

// EndTime returns the earliest known promotion end
func (p ProductResult) EndTime() (time.Time, string) {
	var best time.Time
	raw := ""
	for _, r := range p.Regions {
		if !r.EndTime.IsZero() && (best.IsZero() || r.EndTime.Before(best)) {
			best = r.EndTime
		}
		if raw == "" {
			raw = r.EndRaw
		}
	}
	return best, raw
}

// CategoryResult is the outcome of a category scan
type CategoryResult struct {
	CategoryID string
	// Truncated is set when the category held more products than the limit
	Truncated bool
	Items     []ProductResult
}
