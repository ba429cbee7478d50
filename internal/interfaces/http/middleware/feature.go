package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wazhop/backend/internal/domain/settings"
	"github.com/wazhop/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// SettingsSource reads the platform settings visible to everyone
type SettingsSource interface {
	PublicSettings(ctx context.Context) (settings.Public, error)
}

// FeatureSwitches caches the platform feature switches for a short TTL so
// every request does not hit the settings table.
type FeatureSwitches struct {
	source SettingsSource
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	features settings.Features
	loadedAt time.Time
}

// NewFeatureSwitches creates a cached reader over source
func NewFeatureSwitches(source SettingsSource, ttl time.Duration, logger *zap.Logger) *FeatureSwitches {
	return &FeatureSwitches{source: source, ttl: ttl, logger: logger, now: time.Now}
}

// Current returns the cached switches, reloading after the TTL. When the
// reload fails the previous switches stay in use.
func (f *FeatureSwitches) Current(ctx context.Context) settings.Features {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if !f.loadedAt.IsZero() && now.Sub(f.loadedAt) < f.ttl {
		return f.features
	}
	pub, err := f.source.PublicSettings(ctx)
	if err != nil {
		f.logger.Warn("Failed to load platform settings", zap.Error(err))
		if f.loadedAt.IsZero() {
			return settings.Default().Features
		}
		return f.features
	}
	f.features = pub.Features
	f.loadedAt = now
	return f.features
}

// Invalidate forces the next read to reload
func (f *FeatureSwitches) Invalidate() {
	f.mu.Lock()
	f.loadedAt = time.Time{}
	f.mu.Unlock()
}

// Maintenance rejects requests with 503 while maintenance mode is on.
// Admins and the paths in allow (prefix match) are let through; the JWT
// claims must already be parsed for the admin check to apply.
func Maintenance(switches *FeatureSwitches, allow ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !switches.Current(c.Request.Context()).MaintenanceMode || IsAdmin(c) {
			c.Next()
			return
		}
		for _, prefix := range allow {
			if strings.HasPrefix(c.Request.URL.Path, prefix) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeMaintenance,
			"WaZhop is undergoing maintenance. Please try again shortly.",
			c.GetString("request_id"),
		))
	}
}

// RequireFeature returns 403 when enabled reports the switch is off
func RequireFeature(switches *FeatureSwitches, name string, enabled func(settings.Features) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled(switches.Current(c.Request.Context())) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden,
				name+" is currently disabled",
				c.GetString("request_id"),
			))
			return
		}
		c.Next()
	}
}
