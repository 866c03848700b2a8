package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mannsetu-api/internal/service"
)

const unmatchedRoute = "unmatched"

var probeRoutes = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

// Metrics observes request latency per route template. Probe endpoints are
// skipped and unknown paths share one label so scanners cannot inflate the
// series count.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if _, probe := probeRoutes[route]; probe || metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
