package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMoney parses a display price such as "1.299,99 TL", "₴1,299.00" or
// "299,99" into a number. The rightmost of comma and dot is the decimal
// separator when both appear; a lone comma is decimal; a lone dot is decimal
// unless exactly three digits follow it ("1.299 TL"); a separator repeated
// with no other kind present is a thousands separator. Strings without
// digits report ok=false, never zero.
func ParseMoney(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), ",.")
	if cleaned == "" {
		return 0, false
	}

	commas := strings.Count(cleaned, ",")
	dots := strings.Count(cleaned, ".")

	var normalized string
	switch {
	case commas > 0 && dots > 0:
		dec, thousands := ",", "."
		if strings.LastIndex(cleaned, ".") > strings.LastIndex(cleaned, ",") {
			dec, thousands = ".", ","
		}
		tmp := strings.ReplaceAll(cleaned, thousands, "")
		i := strings.LastIndex(tmp, dec)
		normalized = strings.ReplaceAll(tmp[:i], dec, "") + "." + tmp[i+1:]
	case commas == 1:
		normalized = strings.Replace(cleaned, ",", ".", 1)
	case commas > 1:
		normalized = strings.ReplaceAll(cleaned, ",", "")
	case dots > 1:
		normalized = strings.ReplaceAll(cleaned, ".", "")
	case dots == 1 && len(cleaned)-strings.Index(cleaned, ".")-1 == 3:
		normalized = strings.Replace(cleaned, ".", "", 1)
	default:
		normalized = cleaned
	}

	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// FormatAmount renders v with two decimals followed by the currency code
func FormatAmount(v float64, currency string) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	if currency == "" {
		return s
	}
	return s + " " + currency
}
