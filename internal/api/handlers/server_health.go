package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// GetLiveness handles GET /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

// GetReadiness handles GET /health/ready.
func (s *Server) GetReadiness(c *gin.Context) {
	checks := map[string]string{"database": "ok"}
	status, httpStatus := "ok", http.StatusOK

	if s.db == nil {
		checks["database"] = "unconfigured"
		status, httpStatus = "degraded", http.StatusServiceUnavailable
	} else if err := s.db.Ping(c.Request.Context()); err != nil {
		s.logger(c).Warn("Readiness check failed", zap.Error(err))
		checks["database"] = "error"
		status, httpStatus = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, healthResponse{Status: status, Checks: checks})
}
