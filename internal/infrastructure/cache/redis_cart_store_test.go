package cache

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wazhop/backend/internal/domain/currency"
	"github.com/wazhop/backend/internal/infrastructure/config"
)

// startRedis runs a throwaway Redis server. Set REDIS_INTEGRATION=1 to enable.
func startRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	if testing.Short() || os.Getenv("REDIS_INTEGRATION") == "" {
		t.Skip("set REDIS_INTEGRATION=1 to run Redis integration tests")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	p, err := strconv.Atoi(port.Port())
	require.NoError(t, err)
	return config.RedisConfig{Host: host, Port: p}
}

func TestRedisStores(t *testing.T) {
	cfg := startRedis(t)
	client, err := NewRedisClient(cfg)
	require.NoError(t, err)
	defer client.Close()
	ctx := context.Background()

	t.Run("cart round trip with TTL", func(t *testing.T) {
		store := NewRedisCartStore(client, time.Hour)
		require.NoError(t, store.Save(ctx, sampleCart("user-9")))

		c, err := store.Get(ctx, "user-9")
		require.NoError(t, err)
		assert.Equal(t, 2, c.Count())

		ttl, err := client.TTL(ctx, cartKeyPrefix+"user-9").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 59*time.Minute)

		require.NoError(t, store.Delete(ctx, "user-9"))
		c, err = store.Get(ctx, "user-9")
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())
	})

	t.Run("rate cache", func(t *testing.T) {
		rc := NewRedisRateCache(client)
		_, ok, err := rc.Get(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		rates := currency.MergeRates(map[string]decimal.Decimal{"GHS": decimal.NewFromInt(15)}, time.Now())
		require.NoError(t, rc.Set(ctx, rates, time.Hour))
		got, ok, err := rc.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, got.Rate("GHS").Equal(decimal.NewFromInt(15)))
	})
}
