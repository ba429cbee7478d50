package currency

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/domain/currency"
	"go.uber.org/zap/zaptest"
)

type stubFetcher struct {
	calls atomic.Int32
	rates map[string]decimal.Decimal
	err   error
}

func (f *stubFetcher) FetchRates(context.Context, string, []string) (map[string]decimal.Decimal, error) {
	f.calls.Add(1)
	return f.rates, f.err
}

type mapCache struct {
	rates currency.Rates
	ok    bool
}

func (c *mapCache) Get(context.Context) (currency.Rates, bool, error) { return c.rates, c.ok, nil }

func (c *mapCache) Set(_ context.Context, r currency.Rates, _ time.Duration) error {
	c.rates, c.ok = r, true
	return nil
}

type stubGeo struct {
	country string
	err     error
	calls   int
}

func (g *stubGeo) CountryCode(context.Context, string) (string, error) {
	g.calls++
	return g.country, g.err
}

func TestService_RatesFetchesOnceWithinTTL(t *testing.T) {
	fetcher := &stubFetcher{rates: map[string]decimal.Decimal{"NGN": decimal.NewFromInt(1600)}}
	cache := &mapCache{}
	svc := NewService(fetcher, cache, nil, time.Hour, zaptest.NewLogger(t))

	r := svc.Rates(context.Background())
	assert.True(t, r.Rate("NGN").Equal(decimal.NewFromInt(1600)))
	assert.True(t, r.Rate("KES").Equal(decimal.NewFromInt(127)), "missing values come from the fallback table")
	assert.True(t, cache.ok)

	svc.Rates(context.Background())
	assert.EqualValues(t, 1, fetcher.calls.Load())

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	svc.Rates(context.Background())
	assert.EqualValues(t, 2, fetcher.calls.Load())
}

func TestService_RatesUsesSharedCache(t *testing.T) {
	fetcher := &stubFetcher{}
	cached := currency.MergeRates(map[string]decimal.Decimal{"GHS": decimal.NewFromInt(15)}, time.Now())
	svc := NewService(fetcher, &mapCache{rates: cached, ok: true}, nil, 0, zaptest.NewLogger(t))

	r := svc.Rates(context.Background())
	assert.True(t, r.Rate("GHS").Equal(decimal.NewFromInt(15)))
	assert.Zero(t, fetcher.calls.Load())
}

func TestService_RatesFallbackOnFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("timeout")}
	svc := NewService(fetcher, nil, nil, time.Hour, zaptest.NewLogger(t))

	r := svc.Rates(context.Background())
	assert.True(t, r.Rate("NGN").Equal(decimal.NewFromInt(1500)))

	_, err := svc.Refresh(context.Background())
	require.Error(t, err)
}

func TestService_Detect(t *testing.T) {
	geo := &stubGeo{country: "ke"}
	svc := NewService(nil, nil, geo, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	for _, ip := range []string{"", "127.0.0.1", "192.168.1.4", "10.0.0.8", "::1", "not-an-ip"} {
		d := svc.Detect(ctx, ip)
		assert.Equal(t, "NGN", d.Currency, ip)
		assert.False(t, d.Detected, ip)
	}
	assert.Zero(t, geo.calls)

	d := svc.Detect(ctx, "41.90.64.1")
	assert.Equal(t, Detection{IP: "41.90.64.1", CountryCode: "KE", Currency: "KES", Detected: true}, d)

	geo.country = "FR"
	assert.Equal(t, "NGN", svc.Detect(ctx, "81.2.69.142").Currency)

	geo.err = errors.New("rate limited")
	d = svc.Detect(ctx, "8.8.8.8")
	assert.Equal(t, "NGN", d.Currency)
	assert.False(t, d.Detected)
}

func TestService_Format(t *testing.T) {
	svc := NewService(nil, nil, nil, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	ngn := svc.Format(ctx, decimal.NewFromInt(1500), "ngn")
	assert.Equal(t, "NGN", ngn.Currency)
	assert.Equal(t, "₦1,500", ngn.Formatted)
	assert.Equal(t, "≈ $1.00 USD", ngn.USDApproximate)

	usd := svc.Format(ctx, decimal.RequireFromString("12.5"), "USD")
	assert.Equal(t, "$12.50 USD", usd.Formatted)
	assert.Empty(t, usd.USDApproximate)
}
