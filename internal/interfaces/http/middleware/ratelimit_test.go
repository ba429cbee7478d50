package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows burst then blocks", func(t *testing.T) {
		l := NewMemoryLimiter(3, time.Minute)
		for i := 0; i < 3; i++ {
			d, err := l.Allow(ctx, "client1")
			require.NoError(t, err)
			assert.True(t, d.Allowed, "request %d should be allowed", i+1)
		}
		d, err := l.Allow(ctx, "client1")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Greater(t, d.RetryAfter, time.Duration(0))
	})

	t.Run("separate limits per key", func(t *testing.T) {
		l := NewMemoryLimiter(1, time.Minute)
		d, _ := l.Allow(ctx, "a")
		assert.True(t, d.Allowed)
		d, _ = l.Allow(ctx, "a")
		assert.False(t, d.Allowed)
		d, _ = l.Allow(ctx, "b")
		assert.True(t, d.Allowed)
	})

	t.Run("refills over time", func(t *testing.T) {
		l := NewMemoryLimiter(2, time.Minute)
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return now }

		l.Allow(ctx, "c")
		l.Allow(ctx, "c")
		d, _ := l.Allow(ctx, "c")
		assert.False(t, d.Allowed)

		now = now.Add(31 * time.Second)
		d, _ = l.Allow(ctx, "c")
		assert.True(t, d.Allowed)
	})

	t.Run("evicts idle keys", func(t *testing.T) {
		l := NewMemoryLimiter(2, time.Second)
		now := time.Now()
		l.now = func() time.Time { return now }
		l.Allow(ctx, "idle")

		now = now.Add(5 * time.Second)
		l.Allow(ctx, "fresh")
		l.mu.Lock()
		_, ok := l.clients["idle"]
		l.mu.Unlock()
		assert.False(t, ok)
	})
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("redis down")
}

func TestRateLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(RateLimitConfig{Limiter: NewMemoryLimiter(2, time.Minute)}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		rec := serve(router, http.MethodGet, "/test", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := serve(router, http.MethodGet, "/test", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, dto.ErrCodeRateLimited, decodeError(t, rec).Code)
}

func TestRateLimitMiddleware_KeyFunc(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(RateLimitConfig{
		Limiter: NewMemoryLimiter(1, time.Minute),
		KeyFunc: func(c *gin.Context) string { return c.GetHeader("X-Key") },
	}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("X-Key", key)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusTooManyRequests, send("a"))
	assert.Equal(t, http.StatusOK, send("b"))
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(RateLimitConfig{Limiter: failingLimiter{}}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(router, http.MethodGet, "/test", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
