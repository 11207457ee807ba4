package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sgms/grievance-api/internal/service"
)

// Metrics observes every request's method, route, status, and latency. A nil
// service disables instrumentation, which the grievance API uses in tests.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		// unmatched routes fall back to the raw path so 404s still count
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
