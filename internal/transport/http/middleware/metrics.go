package middleware

import (
	"strconv"
	"time"

	"github.com/ErlanBelekov/blog-newsletter/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records latency and counts per route template, so
// /api/postgres and /api/resend share the /api/:provider series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}
