package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"twilio-functions-utils/internal/metrics"
)

// Metrics records request counts, latencies and the in-flight gauge. Paths
// are labelled by route so unknown URLs do not grow the label set.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.IncrementInFlight()
		defer metrics.DecrementInFlight()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
