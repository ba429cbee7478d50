// Package cache keeps carts and exchange rates in Redis, with in-memory
// stores for single-instance runs and tests.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wazhop/backend/internal/domain/cart"
	"github.com/wazhop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewRedisClient connects to the configured server and pings it
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// StoreFactory creates the Redis-backed stores, falling back to memory when
// Redis is not configured or unreachable.
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool

	client *redis.Client
	tried  bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client returns the shared Redis client, or nil when running in memory.
// The connection is attempted once.
func (f *StoreFactory) Client() (*redis.Client, error) {
	if f.tried {
		return f.client, nil
	}
	f.tried = true
	if !f.redisConfig.Enabled() {
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis is required but not configured")
		}
		f.logger.Info("Redis not configured, using in-memory stores")
		return nil, nil
	}
	client, err := NewRedisClient(f.redisConfig)
	if err != nil {
		if !f.allowInMemoryFallback {
			f.tried = false
			return nil, fmt.Errorf("Redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
			"Carts and cached rates will not be shared between instances.",
			zap.Error(err),
		)
		return nil, nil
	}
	f.logger.Info("Connected to Redis", zap.String("addr", f.redisConfig.Addr()))
	f.client = client
	return client, nil
}

// CartStore returns a Redis cart store or the in-memory fallback
func (f *StoreFactory) CartStore() (cart.Store, error) {
	client, err := f.Client()
	if err != nil {
		return nil, err
	}
	if client == nil {
		return NewMemoryCartStore(cart.TTL), nil
	}
	return NewRedisCartStore(client, cart.TTL), nil
}

// RateCache returns a Redis rate cache or the in-memory fallback
func (f *StoreFactory) RateCache() (RateCache, error) {
	client, err := f.Client()
	if err != nil {
		return nil, err
	}
	if client == nil {
		return NewMemoryRateCache(), nil
	}
	return NewRedisRateCache(client), nil
}

// Close releases the Redis connection, if any
func (f *StoreFactory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
