package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wazhop/backend/internal/domain/cart"
)

const cartKeyPrefix = "wazhop:cart:"

// RedisCartStore stores each cart as a JSON value with a sliding TTL
type RedisCartStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCartStore wraps an existing Redis client
func NewRedisCartStore(client redis.UniversalClient, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

// Get returns the owner's cart, or an empty one
func (s *RedisCartStore) Get(ctx context.Context, owner string) (*cart.Cart, error) {
	raw, err := s.client.Get(ctx, cartKeyPrefix+owner).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.New(owner), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	var c cart.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return &c, nil
}

// Save stores the cart and restarts its TTL
func (s *RedisCartStore) Save(ctx context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+c.Owner, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Delete drops the owner's cart
func (s *RedisCartStore) Delete(ctx context.Context, owner string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+owner).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

var _ cart.Store = (*RedisCartStore)(nil)
