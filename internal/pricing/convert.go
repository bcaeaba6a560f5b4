package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Rounding selects how converted amounts are rounded
type Rounding string

const (
	// RoundHalfUp rounds to two decimals
	RoundHalfUp Rounding = "round"
	// RoundCeil rounds up to whole units
	RoundCeil Rounding = "ceil"
)

// Converter converts amounts into Target
type Converter struct {
	Target   string
	Rounding Rounding
}

// NewConverter creates a converter; unknown rounding names fall back to RoundHalfUp
func NewConverter(target string, rounding string) Converter {
	r := Rounding(strings.ToLower(rounding))
	if r != RoundCeil {
		r = RoundHalfUp
	}
	return Converter{Target: strings.ToUpper(target), Rounding: r}
}

// Convert returns amount in currency expressed in the converter's target.
// The table holds units per one unit of table.Base, so amount/rate[currency]
// gives base units; a target other than the base is reached through
// rate[target]. A missing or unusable rate reports ok=false.
func (c Converter) Convert(amount float64, currency string, table RateTable) (float64, bool) {
	if amount < 0 {
		return 0, false
	}
	from, ok := table.Rate(currency)
	if !ok {
		return 0, false
	}
	to, ok := table.Rate(c.Target)
	if !ok {
		return 0, false
	}

	v := decimal.NewFromFloat(amount).
		Div(decimal.NewFromFloat(from)).
		Mul(decimal.NewFromFloat(to))

	switch c.Rounding {
	case RoundCeil:
		v = v.Ceil()
	default:
		v = v.Round(2)
	}
	return v.InexactFloat64(), true
}
