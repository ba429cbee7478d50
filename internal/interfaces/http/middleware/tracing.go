package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipPaths are not traced
	SkipPaths []string
	// TracerProvider overrides the global provider, mainly for tests
	TracerProvider trace.TracerProvider
}

// Tracing wraps otelgin. Spans are named after the route pattern
// ("GET /api/v1/products/:id") and carry the request ID; 4xx and 5xx
// responses mark the span as an error.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}
	opts := []otelgin.Option{
		otelgin.WithFilter(func(r *http.Request) bool { return !skip[r.URL.Path] }),
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanErrorMarker marks the active span as failed for error responses. It
// runs inside Tracing so the span is still open when the handler returns.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := c.GetString("request_id"); id != "" {
				span.SetAttributes(attribute.String("request_id", id))
			}
		}

		c.Next()

		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetStatus(codes.Error, http.StatusText(status))
		if len(c.Errors) > 0 {
			span.SetAttributes(attribute.String("error.message", c.Errors.Last().Error()))
		}
	}
}

// TracingUserInjector tags the span with the authenticated user. Place it
// after the JWT middleware.
func TracingUserInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := GetJWTUserID(c); id != "" {
				span.SetAttributes(
					attribute.String("user_id", id),
					attribute.String("user_role", GetJWTRole(c)),
				)
			}
		}
		c.Next()
	}
}
