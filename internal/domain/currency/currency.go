// Package currency holds country and currency metadata for the African markets
// WaZhop sells into, plus money formatting and USD conversion.
package currency

import "strings"

const (
	// DefaultCountryCode is used whenever a country cannot be resolved
	DefaultCountryCode = "NG"
	// DefaultCurrency is the platform's base currency
	DefaultCurrency = "NGN"
	// USD is the reference currency for rates and approximations
	USD = "USD"
)

// DisplayFormat controls where the symbol or code goes when formatting
type DisplayFormat string

const (
	FormatPrefixSymbol DisplayFormat = "prefix-symbol"
	FormatCodePrefix   DisplayFormat = "code-prefix"
)

// Country describes a supported market
type Country struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Meta describes how a currency is displayed
type Meta struct {
	Code           string        `json:"code"`
	Symbol         string        `json:"symbol"`
	Decimals       int           `json:"decimals"`
	Name           string        `json:"name"`
	Format         DisplayFormat `json:"format"`
	AlwaysShowCode bool          `json:"always_show_code,omitempty"`
}

var countries = map[string]Country{
	"NG": {Code: "NG", Name: "Nigeria", Currency: "NGN"},
	"ZA": {Code: "ZA", Name: "South Africa", Currency: "ZAR"},
	"KE": {Code: "KE", Name: "Kenya", Currency: "KES"},
	"GH": {Code: "GH", Name: "Ghana", Currency: "GHS"},
	"EG": {Code: "EG", Name: "Egypt", Currency: "EGP"},
	"MA": {Code: "MA", Name: "Morocco", Currency: "MAD"},
	"UG": {Code: "UG", Name: "Uganda", Currency: "UGX"},
	"TZ": {Code: "TZ", Name: "Tanzania", Currency: "TZS"},
	"ET": {Code: "ET", Name: "Ethiopia", Currency: "ETB"},
	"RW": {Code: "RW", Name: "Rwanda", Currency: "RWF"},
	"SN": {Code: "SN", Name: "Senegal", Currency: "XOF"},
	"CI": {Code: "CI", Name: "Cote d'Ivoire", Currency: "XOF"},
	"SL": {Code: "SL", Name: "Sierra Leone", Currency: "SLE"},
	"ML": {Code: "ML", Name: "Mali", Currency: "XOF"},
	"NE": {Code: "NE", Name: "Niger", Currency: "XOF"},
	"BJ": {Code: "BJ", Name: "Benin", Currency: "XOF"},
	"TG": {Code: "TG", Name: "Togo", Currency: "XOF"},
	"LR": {Code: "LR", Name: "Liberia", Currency: "LRD"},
	"NA": {Code: "NA", Name: "Namibia", Currency: "NAD"},
	"BW": {Code: "BW", Name: "Botswana", Currency: "BWP"},
	"LS": {Code: "LS", Name: "Lesotho", Currency: "LSL"},
}

var currencies = map[string]Meta{
	"NGN": {Code: "NGN", Symbol: "₦", Decimals: 0, Name: "Nigerian Naira", Format: FormatPrefixSymbol},
	"ZAR": {Code: "ZAR", Symbol: "R", Decimals: 2, Name: "South African Rand", Format: FormatPrefixSymbol},
	"KES": {Code: "KES", Symbol: "KES", Decimals: 0, Name: "Kenyan Shilling", Format: FormatCodePrefix},
	"GHS": {Code: "GHS", Symbol: "GHS", Decimals: 0, Name: "Ghanaian Cedi", Format: FormatCodePrefix},
	"EGP": {Code: "EGP", Symbol: "E£", Decimals: 2, Name: "Egyptian Pound", Format: FormatPrefixSymbol},
	"MAD": {Code: "MAD", Symbol: "MAD", Decimals: 2, Name: "Moroccan Dirham", Format: FormatCodePrefix},
	"UGX": {Code: "UGX", Symbol: "UGX", Decimals: 0, Name: "Ugandan Shilling", Format: FormatCodePrefix},
	"TZS": {Code: "TZS", Symbol: "TZS", Decimals: 0, Name: "Tanzanian Shilling", Format: FormatCodePrefix},
	"ETB": {Code: "ETB", Symbol: "Br", Decimals: 2, Name: "Ethiopian Birr", Format: FormatPrefixSymbol},
	"RWF": {Code: "RWF", Symbol: "RWF", Decimals: 0, Name: "Rwandan Franc", Format: FormatCodePrefix},
	"XOF": {Code: "XOF", Symbol: "XOF", Decimals: 0, Name: "West African CFA Franc", Format: FormatCodePrefix},
	"SLE": {Code: "SLE", Symbol: "SLE", Decimals: 2, Name: "Sierra Leonean Leone", Format: FormatCodePrefix},
	"LSL": {Code: "LSL", Symbol: "LSL", Decimals: 2, Name: "Lesotho Loti", Format: FormatCodePrefix},
	"LRD": {Code: "LRD", Symbol: "L$", Decimals: 2, Name: "Liberian Dollar", Format: FormatPrefixSymbol},
	"NAD": {Code: "NAD", Symbol: "N$", Decimals: 2, Name: "Namibian Dollar", Format: FormatPrefixSymbol},
	"BWP": {Code: "BWP", Symbol: "P", Decimals: 2, Name: "Botswana Pula", Format: FormatPrefixSymbol},
	"USD": {Code: "USD", Symbol: "$", Decimals: 2, Name: "US Dollar", Format: FormatPrefixSymbol, AlwaysShowCode: true},
}

// country names (lowercase) to ISO code, including common spellings of Cote d'Ivoire
var countryNames = func() map[string]string {
	m := map[string]string{
		"cote divoire":  "CI",
		"cote d ivoire": "CI",
		"côte d'ivoire": "CI",
		"ivory coast":   "CI",
	}
	for code, c := range countries {
		m[strings.ToLower(c.Name)] = code
	}
	return m
}()

// ResolveCountryCode accepts an ISO alpha-2 code or a country name and returns
// a supported code, falling back to DefaultCountryCode.
func ResolveCountryCode(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return DefaultCountryCode
	}
	upper := strings.ToUpper(trimmed)
	if _, ok := countries[upper]; ok {
		return upper
	}
	if code, ok := countryNames[strings.ToLower(trimmed)]; ok {
		return code
	}
	return DefaultCountryCode
}

// CountryMeta returns the metadata for a country code or name
func CountryMeta(value string) Country {
	return countries[ResolveCountryCode(value)]
}

// CurrencyMeta returns the display metadata for a currency, NGN when unknown
func CurrencyMeta(code string) Meta {
	if meta, ok := currencies[normalize(code)]; ok {
		return meta
	}
	return currencies[DefaultCurrency]
}

// IsSupported reports whether the currency code is one WaZhop prices in
func IsSupported(code string) bool {
	_, ok := currencies[normalize(code)]
	return ok
}

// SupportedCurrencies returns every supported currency code
func SupportedCurrencies() []string {
	out := make([]string, 0, len(currencies))
	for code := range currencies {
		out = append(out, code)
	}
	return out
}

// Countries returns every supported country
func Countries() []Country {
	out := make([]Country, 0, len(countries))
	for _, c := range countries {
		out = append(out, c)
	}
	return out
}

// geolocationCurrencies maps IP-detected countries to the currency offered at checkout
var geolocationCurrencies = map[string]string{
	"NG": "NGN",
	"GH": "GHS",
	"KE": "KES",
	"ZA": "ZAR",
	"US": "USD",
	"GB": "USD",
	"CA": "USD",
}

// CurrencyForCountry returns the checkout currency for a geolocated country
func CurrencyForCountry(countryCode string) string {
	if c, ok := geolocationCurrencies[strings.ToUpper(strings.TrimSpace(countryCode))]; ok {
		return c
	}
	return DefaultCurrency
}

func normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency
	}
	return code
}
