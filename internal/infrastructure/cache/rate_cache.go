package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wazhop/backend/internal/domain/currency"
)

const ratesKey = "wazhop:currency:rates"

// RateCache holds the last fetched exchange rate table
type RateCache interface {
	// Get returns the cached table; ok is false when nothing is cached
	Get(ctx context.Context) (rates currency.Rates, ok bool, err error)
	Set(ctx context.Context, rates currency.Rates, ttl time.Duration) error
}

// RedisRateCache shares the rate table between instances
type RedisRateCache struct {
	client redis.UniversalClient
}

// NewRedisRateCache wraps an existing Redis client
func NewRedisRateCache(client redis.UniversalClient) *RedisRateCache {
	return &RedisRateCache{client: client}
}

func (c *RedisRateCache) Get(ctx context.Context) (currency.Rates, bool, error) {
	raw, err := c.client.Get(ctx, ratesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return currency.Rates{}, false, nil
	}
	if err != nil {
		return currency.Rates{}, false, fmt.Errorf("failed to load cached rates: %w", err)
	}
	var r currency.Rates
	if err := json.Unmarshal(raw, &r); err != nil {
		return currency.Rates{}, false, fmt.Errorf("failed to decode cached rates: %w", err)
	}
	return r, true, nil
}

func (c *RedisRateCache) Set(ctx context.Context, rates currency.Rates, ttl time.Duration) error {
	data, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("failed to encode rates: %w", err)
	}
	if err := c.client.Set(ctx, ratesKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache rates: %w", err)
	}
	return nil
}

// MemoryRateCache keeps the table in process
type MemoryRateCache struct {
	mu        sync.RWMutex
	rates     currency.Rates
	expiresAt time.Time
}

// NewMemoryRateCache creates an empty cache
func NewMemoryRateCache() *MemoryRateCache {
	return &MemoryRateCache{}
}

func (c *MemoryRateCache) Get(context.Context) (currency.Rates, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.expiresAt.IsZero() || time.Now().After(c.expiresAt) {
		return currency.Rates{}, false, nil
	}
	return c.rates, true, nil
}

func (c *MemoryRateCache) Set(_ context.Context, rates currency.Rates, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates = rates
	c.expiresAt = time.Now().Add(ttl)
	return nil
}

var (
	_ RateCache = (*RedisRateCache)(nil)
	_ RateCache = (*MemoryRateCache)(nil)
)
