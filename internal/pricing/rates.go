package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"sjsage522/pspricebot/helpers"
	apperrors "sjsage522/pspricebot/pkg/errors"
)

// RateTable maps currency codes to units of that currency per one unit of
// Base. Build it with NewRateTable and do not mutate it afterwards.
type RateTable struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
	Source    string             `json:"source"`
}

// NewRateTable copies rates into a new table; codes are upper-cased and the
// base currency always maps to 1
func NewRateTable(base string, rates map[string]float64, fetchedAt time.Time, source string) RateTable {
	base = strings.ToUpper(base)
	copied := make(map[string]float64, len(rates)+1)
	for code, rate := range rates {
		copied[strings.ToUpper(code)] = rate
	}
	copied[base] = 1
	return RateTable{Base: base, Rates: copied, FetchedAt: fetchedAt, Source: source}
}

// Rate returns the rate for code. Zero, negative and non-finite entries are
// reported as absent.
func (t RateTable) Rate(code string) (float64, bool) {
	rate, ok := t.Rates[strings.ToUpper(code)]
	if !ok || rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, false
	}
	return rate, true
}

// IsZero reports whether the table holds no rates
func (t RateTable) IsZero() bool {
	return len(t.Rates) == 0
}

// Codes returns the currency codes in the table, sorted
func (t RateTable) Codes() []string {
	codes := make([]string, 0, len(t.Rates))
	for code := range t.Rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// RateSource fetches a rate table relative to base
type RateSource interface {
	Fetch(ctx context.Context, base string) (RateTable, error)
}

// ERAPISource reads rates from open.er-api.com style endpoints
type ERAPISource struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

type erAPIResponse struct {
	Result             string             `json:"result"`
	BaseCode           string             `json:"base_code"`
	TimeLastUpdateUnix int64              `json:"time_last_update_unix"`
	Rates              map[string]float64 `json:"rates"`
	ErrorType          string             `json:"error-type"`
}

// NewERAPISource creates a source for baseURL, e.g. https://open.er-api.com/v6/latest
func NewERAPISource(baseURL string, client *http.Client) *ERAPISource {
	return &ERAPISource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		now:     time.Now,
	}
}

// Fetch implements RateSource
func (s *ERAPISource) Fetch(ctx context.Context, base string) (RateTable, error) {
	target := fmt.Sprintf("%s/%s", s.baseURL, url.PathEscape(strings.ToUpper(base)))
	body, err := helpers.Fetch(ctx, s.client, target, helpers.AcceptJSON)
	if err != nil {
		return RateTable{}, err
	}

	var resp erAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return RateTable{}, apperrors.NewParsing("rates", "failed to decode rate response", err)
	}
	if resp.Result != "success" || len(resp.Rates) == 0 {
		return RateTable{}, apperrors.NewParsing("rates",
			fmt.Sprintf("rate service returned result=%q error=%q", resp.Result, resp.ErrorType), nil)
	}

	return NewRateTable(base, resp.Rates, s.now(), "open.er-api"), nil
}
