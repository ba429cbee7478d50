// Package currency serves exchange rates, IP based currency detection and
// price formatting.
package currency

import (
	"context"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wazhop/backend/internal/domain/currency"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultRatesTTL is how long a fetched rate table stays fresh
const DefaultRatesTTL = 6 * time.Hour

// RateFetcher loads live USD based rates for the given currency codes
type RateFetcher interface {
	FetchRates(ctx context.Context, base string, symbols []string) (map[string]decimal.Decimal, error)
}

// RateCache stores the last fetched table
type RateCache interface {
	Get(ctx context.Context) (currency.Rates, bool, error)
	Set(ctx context.Context, rates currency.Rates, ttl time.Duration) error
}

// GeoLocator resolves an IP address to an ISO country code
type GeoLocator interface {
	CountryCode(ctx context.Context, ip string) (string, error)
}

// Detection is the result of IP based currency detection
type Detection struct {
	IP          string `json:"ip"`
	CountryCode string `json:"country_code"`
	Currency    string `json:"currency"`
	Detected    bool   `json:"detected"`
}

// FormatResult is a formatted amount
type FormatResult struct {
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Formatted      string          `json:"formatted"`
	USDApproximate string          `json:"usd_approximate,omitempty"`
}

// Service keeps an exchange rate table fresh and answers currency queries.
// Every read path falls back to built-in rates so callers never see a
// fetch failure.
type Service struct {
	fetcher RateFetcher
	cache   RateCache
	geo     GeoLocator
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	last  currency.Rates
}

// NewService creates a currency service. fetcher, cache and geo may be nil.
func NewService(fetcher RateFetcher, cache RateCache, geo GeoLocator, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultRatesTTL
	}
	return &Service{
		fetcher: fetcher,
		cache:   cache,
		geo:     geo,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		last:    currency.DefaultRates(),
	}
}

// Rates returns the current table, refreshing it when stale
func (s *Service) Rates(ctx context.Context) currency.Rates {
	s.mu.RLock()
	last := s.last
	s.mu.RUnlock()
	if last.IsFresh(s.now(), s.ttl) {
		return last
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("Failed to read cached exchange rates", zap.Error(err))
		} else if ok && cached.IsFresh(s.now(), s.ttl) {
			s.remember(cached)
			return cached
		}
	}

	rates, _ := s.refresh(ctx)
	return rates
}

// Refresh fetches a new table regardless of freshness. On failure the last
// known table is kept and returned with the error.
func (s *Service) Refresh(ctx context.Context) (currency.Rates, error) {
	return s.refresh(ctx)
}

func (s *Service) refresh(ctx context.Context) (currency.Rates, error) {
	v, err, _ := s.group.Do("rates", func() (any, error) {
		if s.fetcher == nil {
			return s.current(), nil
		}
		live, err := s.fetcher.FetchRates(ctx, currency.USD, currency.SupportedCurrencies())
		if err != nil {
			s.logger.Warn("Failed to refresh exchange rates, keeping previous table", zap.Error(err))
			return s.current(), err
		}
		rates := currency.MergeRates(live, s.now())
		s.remember(rates)
		if s.cache != nil {
			if err := s.cache.Set(ctx, rates, s.ttl); err != nil {
				s.logger.Warn("Failed to cache exchange rates", zap.Error(err))
			}
		}
		s.logger.Info("Exchange rates refreshed", zap.Int("currencies", len(rates.Values)))
		return rates, nil
	})
	return v.(currency.Rates), err
}

func (s *Service) current() currency.Rates {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Service) remember(r currency.Rates) {
	s.mu.Lock()
	s.last = r
	s.mu.Unlock()
}

// Detect maps the caller's IP to a checkout currency. Private and loopback
// addresses resolve to Nigeria; lookup failures fall back to NGN.
func (s *Service) Detect(ctx context.Context, ip string) Detection {
	ip = strings.TrimSpace(ip)
	d := Detection{IP: ip, CountryCode: "NG", Currency: currency.DefaultCurrency}
	if isLocal(ip) || s.geo == nil {
		return d
	}
	country, err := s.geo.CountryCode(ctx, ip)
	if err != nil || country == "" {
		if err != nil {
			s.logger.Warn("IP geolocation failed", zap.String("ip", ip), zap.Error(err))
		}
		return d
	}
	d.CountryCode = strings.ToUpper(country)
	d.Currency = currency.CurrencyForCountry(d.CountryCode)
	d.Detected = true
	return d
}

// Format renders amount in code and adds a USD approximation for non-USD
// currencies.
func (s *Service) Format(ctx context.Context, amount decimal.Decimal, code string) FormatResult {
	meta := currency.CurrencyMeta(code)
	res := FormatResult{
		Amount:    amount,
		Currency:  meta.Code,
		Formatted: currency.Format(amount, meta.Code),
	}
	if meta.Code != currency.USD {
		res.USDApproximate = currency.FormatUSDApprox(s.Rates(ctx).ConvertToUSD(amount, meta.Code))
	}
	return res
}

func isLocal(ip string) bool {
	if ip == "" {
		return true
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return true
	}
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast()
}
