package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/metrics"
)

// HTTPMetrics records request counts and latency by route template.
func HTTPMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.RecordHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
