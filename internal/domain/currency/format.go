package currency

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

type formatOptions struct {
	includeCode bool
	minDigits   *int
	maxDigits   *int
}

// FormatOption customises Format
type FormatOption func(*formatOptions)

// WithCode appends the ISO code after prefix-symbol currencies
func WithCode() FormatOption {
	return func(o *formatOptions) { o.includeCode = true }
}

// WithFractionDigits overrides the currency's default number of decimals
func WithFractionDigits(minDigits, maxDigits int) FormatOption {
	return func(o *formatOptions) {
		o.minDigits = &minDigits
		o.maxDigits = &maxDigits
	}
}

// Format renders an amount the way shoppers in that market expect:
// ₦1,500 and R18.50 for symbol currencies, KES 1,500 for code currencies.
// Unsupported codes are formatted as naira.
func Format(amount decimal.Decimal, code string, opts ...FormatOption) string {
	o := formatOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	code = normalize(code)
	if !IsSupported(code) {
		code = DefaultCurrency
	}
	meta := CurrencyMeta(code)

	minDigits, maxDigits := meta.Decimals, meta.Decimals
	if o.minDigits != nil {
		minDigits = *o.minDigits
	}
	if o.maxDigits != nil {
		maxDigits = *o.maxDigits
	}
	if minDigits > maxDigits {
		maxDigits = minDigits
	}

	rounded := amount.Round(int32(maxDigits)).InexactFloat64()
	formatted := printer.Sprint(number.Decimal(rounded,
		number.MinFractionDigits(minDigits),
		number.MaxFractionDigits(maxDigits),
	))

	if meta.Format == FormatPrefixSymbol {
		out := meta.Symbol + formatted
		if o.includeCode || meta.AlwaysShowCode {
			out += " " + code
		}
		return out
	}
	return code + " " + formatted
}

// FormatUSDApprox renders "≈ $12.50 USD", or "" for non-positive amounts
func FormatUSDApprox(amount decimal.Decimal) string {
	if !amount.IsPositive() {
		return ""
	}
	return "≈ " + Format(amount, USD, WithCode(), WithFractionDigits(2, 2))
}
