package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Decision is the outcome of a rate limit check
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is set when the request was rejected
	RetryAfter time.Duration
}

// Limiter decides whether key may make another request
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// MemoryLimiter is a per-key token bucket kept in process memory
type MemoryLimiter struct {
	mu       sync.Mutex
	clients  map[string]*bucket
	limit    int
	every    rate.Limit
	idleTTL  time.Duration
	lastScan time.Time
	now      func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter allows limit requests per window with bursts up to limit
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		clients: make(map[string]*bucket),
		limit:   limit,
		every:   rate.Limit(float64(limit) / window.Seconds()),
		idleTTL: window * 2,
		now:     time.Now,
	}
}

// Allow implements Limiter
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictIdle(now)

	b, ok := l.clients[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.limit)}
		l.clients[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{Limit: l.limit, RetryAfter: delay}, nil
	}
	return Decision{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: int(b.limiter.TokensAt(now)),
	}, nil
}

// evictIdle drops buckets unused for two windows. Must hold mu.
func (l *MemoryLimiter) evictIdle(now time.Time) {
	if now.Sub(l.lastScan) < l.idleTTL {
		return
	}
	l.lastScan = now
	for key, b := range l.clients {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.clients, key)
		}
	}
}

// RedisLimiter is a fixed-window counter shared by every instance
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter creates a Redis backed limiter
func NewRedisLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Allow implements Limiter
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	ttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit counter: %w", err)
	}

	count := int(incr.Val())
	if count > l.limit {
		return Decision{Limit: l.limit, RetryAfter: ttl.Val()}, nil
	}
	return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit - count}, nil
}

// RateLimitConfig configures RateLimit
type RateLimitConfig struct {
	Limiter Limiter
	// KeyFunc derives the bucket key; defaults to the client IP
	KeyFunc func(*gin.Context) string
	Message string
	Logger  *zap.Logger
}

// RateLimit returns a rate limiting middleware. Limiter errors let the
// request through.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	message := cfg.Message
	if message == "" {
		message = "Too many requests. Please try again later."
	}

	return func(c *gin.Context) {
		d, err := cfg.Limiter.Allow(c.Request.Context(), keyFunc(c))
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Rate limiter unavailable", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			if d.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(d.RetryAfter.Round(time.Second).Seconds())))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited, message, c.GetString("request_id")))
			return
		}

		c.Next()
	}
}
