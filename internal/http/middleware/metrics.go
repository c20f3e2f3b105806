package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillbharat-backend/internal/observability"
)

// Probe and scrape routes are not recorded.
var unmeteredRoutes = map[string]bool{
	"/healthcheck": true,
	"/metrics":     true,
}

// Metrics records per-route latency and in-flight requests; nil metrics is a pass-through.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if unmeteredRoutes[c.FullPath()] {
			c.Next()
			return
		}
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		// Unmatched paths share one label so scanners cannot blow up cardinality.
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
