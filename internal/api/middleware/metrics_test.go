package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/metrics"
)

func TestHTTPMetrics_RecordsRouteTemplate(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	router := gin.New()
	router.Use(HTTPMetrics(m))
	router.GET("/api/v1/steps/:step_id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/api/v1/steps/ABC123XY-ML00")
	serve(router, http.MethodGet, "/api/v1/steps/ABC123XY-ML01")
	serve(router, http.MethodGet, "/nowhere")

	assert.Equal(t, 2.0, promtest.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/steps/:step_id", "200")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")))
}
