package bot

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"sjsage522/pspricebot/helpers"
	"sjsage522/pspricebot/internal/pricing"
	"sjsage522/pspricebot/internal/storefront"
)

// MaxCaption is the Telegram photo caption limit
const MaxCaption = 1024

const endLayout = "2006-01-02 15:04 UTC"

var regionFlags = map[storefront.Region]string{
	storefront.RegionTR: "🇹🇷",
	storefront.RegionUA: "🇺🇦",
}

// Formatter renders lookups as chat text
type Formatter struct {
	Converter pricing.Converter
}

// regionPrice is the display text of one region
type regionPrice struct {
	Label     string
	Price     string
	OldPrice  string
	Converted string
}

func (f Formatter) regionPrice(info storefront.RegionPriceInfo, table *pricing.RateTable) regionPrice {
	p := regionPrice{Label: string(info.Region)}
	switch {
	case info.Status == storefront.StatusNotFound:
		p.Price = "not found"
		return p
	case !info.OK():
		p.Price = "unavailable"
		return p
	case info.DisplayPrice == "" && !info.HasValue:
		p.Price = "price unavailable"
		return p
	}

	p.Price = info.DisplayPrice
	if p.Price == "" {
		p.Price = pricing.FormatAmount(info.Value, info.Currency)
	}
	if info.Discounted() {
		p.OldPrice = info.BasePrice
	}
	if table != nil && info.HasValue {
		if v, ok := f.Converter.Convert(info.Value, info.Currency, *table); ok {
			p.Converted = pricing.FormatAmount(v, f.Converter.Target)
		}
	}
	return p
}

func (p regionPrice) line() string {
	var b strings.Builder
	b.WriteString(p.Label)
	b.WriteString(": ")
	b.WriteString(p.Price)
	if p.OldPrice != "" {
		fmt.Fprintf(&b, " (was %s)", p.OldPrice)
	}
	if p.Converted != "" {
		fmt.Fprintf(&b, " ≈ %s", p.Converted)
	}
	return b.String()
}

// Product formats a product reply. A nil table shows raw prices only.
func (f Formatter) Product(res storefront.ProductResult, table *pricing.RateTable) string {
	var b strings.Builder
	title := helpers.FirstNonEmpty(res.Title(), res.ProductID)
	fmt.Fprintf(&b, "🎮 %s\n", title)
	if platforms := res.Platforms(); len(platforms) > 0 {
		fmt.Fprintf(&b, "🕹 %s\n", strings.Join(platforms, ", "))
	}
	b.WriteString("\n")

	converted := false
	for _, info := range res.Regions {
		p := f.regionPrice(info, table)
		if p.Converted != "" {
			converted = true
		}
		if flag, ok := regionFlags[info.Region]; ok {
			b.WriteString(flag + " ")
		}
		b.WriteString(p.line())
		b.WriteString("\n")
	}

	if pct := maxDiscount(res); pct > 0 {
		fmt.Fprintf(&b, "\n🔻 Discount: %d%%", pct)
	}
	if end := endText(res); end != "" {
		fmt.Fprintf(&b, "\n⏳ Offer ends: %s", end)
	}

	switch {
	case table == nil:
		b.WriteString("\n\nExchange rates are unavailable, prices are shown as listed.")
	case converted:
		fmt.Fprintf(&b, "\n\n%s amounts are approximate.", f.Converter.Target)
	}
	return strings.TrimRight(b.String(), "\n")
}

// CategoryLine formats one product of a category scan on a single line
func (f Formatter) CategoryLine(n int, res storefront.ProductResult, table *pricing.RateTable) string {
	title := helpers.Truncate(helpers.FirstNonEmpty(res.Title(), res.ProductID), 60)
	parts := make([]string, 0, len(res.Regions))
	for _, info := range res.Regions {
		parts = append(parts, f.regionPrice(info, table).line())
	}
	line := fmt.Sprintf("%d. %s | %s", n, title, strings.Join(parts, " | "))
	if pct := maxDiscount(res); pct > 0 {
		line += fmt.Sprintf(" 🔻%d%%", pct)
	}
	return line
}

// Category formats a scan as a header plus one line per product
func (f Formatter) Category(res storefront.CategoryResult, table *pricing.RateTable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📂 Category %s: %d products", res.CategoryID, len(res.Items))
	if res.Truncated {
		b.WriteString(" (limit reached)")
	}
	b.WriteString("\n\n")
	for i, item := range res.Items {
		b.WriteString(f.CategoryLine(i+1, item, table))
		b.WriteString("\n")
	}
	if table == nil {
		b.WriteString("\nExchange rates are unavailable, prices are shown as listed.")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Rates formats the table for the given currencies
func (f Formatter) Rates(table pricing.RateTable, codes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💱 Rates per 1 %s (%s, %s)\n", table.Base, table.Source, table.FetchedAt.UTC().Format(endLayout))
	for _, code := range codes {
		if code == table.Base {
			continue
		}
		rate, ok := table.Rate(code)
		if !ok {
			fmt.Fprintf(&b, "%s: n/a\n", code)
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", code, pricing.FormatAmount(rate, ""))
	}
	return strings.TrimRight(b.String(), "\n")
}

func maxDiscount(res storefront.ProductResult) int {
	best := 0
	for _, info := range res.Regions {
		if info.OK() && info.DiscountPercent > best {
			best = info.DiscountPercent
		}
	}
	return best
}

func endText(res storefront.ProductResult) string {
	end, raw := res.EndTime()
	return helpers.FirstNonEmpty(formatEnd(end), raw)
}

func formatEnd(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(endLayout)
}

// SplitMessage cuts text into chunks of at most limit runes, breaking on
// line boundaries where possible
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if chunk := strings.TrimRight(cur.String(), "\n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		cur.Reset()
		curLen = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if curLen+n > limit {
			flush()
		}
		for n > limit {
			runes := []rune(line)
			chunks = append(chunks, string(runes[:limit]))
			line = string(runes[limit:])
			n = len(runes) - limit
		}
		cur.WriteString(line)
		curLen += n
	}
	flush()
	return chunks
}
