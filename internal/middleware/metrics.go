package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pda-bills-api/internal/service"
)

const unmatchedRoute = "unmatched"

// probe endpoints would drown the request histogram
var unobservedRoutes = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

// Metrics records request counts and latency per route template. Unrouted
// paths collapse into one label so scanners cannot explode cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if _, skip := unobservedRoutes[route]; skip {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
