package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver records finished HTTP requests
type RequestObserver interface {
	RequestStarted() func()
	ObserveRequest(method, route string, status int, d time.Duration)
}

// HTTPMetrics records request count, latency and in-flight requests by route
// pattern. The scrape endpoint itself is skipped.
func HTTPMetrics(observer RequestObserver, metricsPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == metricsPath {
			c.Next()
			return
		}

		done := observer.RequestStarted()
		start := time.Now()

		c.Next()

		done()
		observer.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
