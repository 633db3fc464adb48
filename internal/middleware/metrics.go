package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-portal-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route.
const unmatchedRoute = "unmatched"

var unobservedPaths = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

// Metrics records request latency and status per route template. Health and
// scrape endpoints are not observed.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		path := c.FullPath()
		if _, skip := unobservedPaths[path]; skip {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
