package currency

import (
	"maps"
	"time"

	"github.com/shopspring/decimal"
)

// FallbackUSDRates are units of each currency per one US dollar, used until a
// live table has been fetched and whenever fetching fails.
var FallbackUSDRates = map[string]decimal.Decimal{
	"NGN": decimal.NewFromInt(1500),
	"ZAR": decimal.RequireFromString("18.5"),
	"KES": decimal.NewFromInt(127),
	"GHS": decimal.NewFromInt(14),
	"EGP": decimal.NewFromInt(48),
	"MAD": decimal.RequireFromString("9.9"),
	"UGX": decimal.NewFromInt(3800),
	"TZS": decimal.NewFromInt(2600),
	"ETB": decimal.NewFromInt(114),
	"RWF": decimal.NewFromInt(1320),
	"XOF": decimal.NewFromInt(600),
	"SLE": decimal.NewFromInt(22),
	"LSL": decimal.RequireFromString("18.5"),
	"LRD": decimal.NewFromInt(193),
	"NAD": decimal.RequireFromString("18.5"),
	"BWP": decimal.RequireFromString("13.7"),
	"USD": decimal.NewFromInt(1),
}

// Rates is a USD-based exchange rate table
type Rates struct {
	Base      string                     `json:"base"`
	Values    map[string]decimal.Decimal `json:"rates"`
	FetchedAt time.Time                  `json:"fetched_at"`
}

// DefaultRates returns a table built from the fallback values
func DefaultRates() Rates {
	return Rates{Base: USD, Values: maps.Clone(FallbackUSDRates)}
}

// MergeRates overlays live values on top of the fallback table, ignoring
// non-positive rates.
func MergeRates(live map[string]decimal.Decimal, fetchedAt time.Time) Rates {
	r := DefaultRates()
	for code, v := range live {
		if v.IsPositive() {
			r.Values[normalize(code)] = v
		}
	}
	r.FetchedAt = fetchedAt
	return r
}

// Rate returns units of code per USD, falling back to the NGN rate
func (r Rates) Rate(code string) decimal.Decimal {
	if v, ok := r.Values[normalize(code)]; ok && v.IsPositive() {
		return v
	}
	if v, ok := r.Values[DefaultCurrency]; ok && v.IsPositive() {
		return v
	}
	return decimal.NewFromInt(1)
}

// ConvertToUSD converts amount to USD rounded to cents. Non-positive amounts
// convert to zero.
func (r Rates) ConvertToUSD(amount decimal.Decimal, code string) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	if normalize(code) == USD {
		return amount.Round(2)
	}
	return amount.Div(r.Rate(code)).Round(2)
}

// IsFresh reports whether the table was fetched within ttl
func (r Rates) IsFresh(now time.Time, ttl time.Duration) bool {
	if r.FetchedAt.IsZero() {
		return false
	}
	return now.Sub(r.FetchedAt) < ttl
}
