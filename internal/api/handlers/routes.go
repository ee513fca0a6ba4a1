package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/lycanzy/experimentdocumentationapp/internal/api/middleware"
)

// RegisterRoutes mounts every API route on api, which is expected to be the
// /api/v1 group. Authentication is applied by the caller; catalogue writes
// additionally require an administrator here.
func (s *Server) RegisterRoutes(api *gin.RouterGroup) {
	admin := middleware.RequireAdmin()

	api.POST("/auth/login", s.Login)
	api.GET("/auth/me", s.GetCurrentUser)
	api.GET("/health/live", s.GetLiveness)
	api.GET("/health/ready", s.GetReadiness)

	api.GET("/dashboard", s.GetDashboard)

	api.GET("/experiments", s.ListExperiments)
	api.POST("/experiments", s.CreateExperiment)
	api.GET("/experiments/:experiment_id", s.GetExperiment)
	api.PATCH("/experiments/:experiment_id", s.UpdateExperiment)
	api.DELETE("/experiments/:experiment_id", s.DeleteExperiment)
	api.GET("/experiments/:experiment_id/flows", s.ListFlows)
	api.POST("/experiments/:experiment_id/flows", s.CreateFlow)

	api.GET("/flows/:flow_id", s.GetFlow)
	api.PATCH("/flows/:flow_id", s.UpdateFlow)
	api.DELETE("/flows/:flow_id", s.DeleteFlow)
	api.GET("/flows/:flow_id/steps", s.ListSteps)
	api.POST("/flows/:flow_id/steps", s.CreateStep)

	api.GET("/steps/:step_id", s.GetStep)
	api.PATCH("/steps/:step_id", s.UpdateStep)
	api.DELETE("/steps/:step_id", s.DeleteStep)
	api.GET("/steps/:step_id/eligible-previous", s.ListEligiblePrevious)
	api.PUT("/steps/:step_id/previous", s.SetPreviousStep)
	api.GET("/steps/:step_id/samples", s.ListSamples)
	api.POST("/steps/:step_id/samples", s.AddSample)
	api.DELETE("/samples/:sample_id", s.DeleteSample)
	api.GET("/steps/:step_id/metadata", s.ListMetadata)
	api.POST("/steps/:step_id/metadata", s.AddMetadata)
	api.DELETE("/metadata/:metadata_id", s.DeleteMetadata)

	api.GET("/step-types", s.ListStepTypes)
	api.POST("/step-types", admin, s.CreateStepType)
	api.GET("/step-types/:code", s.GetStepType)
	api.PATCH("/step-types/:code", admin, s.UpdateStepType)
	api.DELETE("/step-types/:code", admin, s.DeleteStepType)

	api.GET("/users", s.ListUsers)
	api.POST("/users", admin, s.CreateUser)

	api.GET("/audit-logs", admin, s.ListAuditLogs)
	api.PUT("/admin/log-level", admin, s.SetLogLevel)
}
