package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
)

type experimentCreateRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// titleUpdateRequest is the PATCH body shared by experiments and flows.
// Omitted fields keep their value.
type titleUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// GetDashboard handles GET /dashboard.
func (s *Server) GetDashboard(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	dash, err := s.dashboard.Get(c.Request.Context(), actor, c.Query("experiment_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// ListExperiments handles GET /experiments.
func (s *Server) ListExperiments(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	exps, err := s.experiments.List(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newList(exps))
}

// CreateExperiment handles POST /experiments.
func (s *Server) CreateExperiment(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	var req experimentCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	exp, err := s.experiments.Create(c.Request.Context(), actor, domain.ExperimentInput{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, exp)
}

// GetExperiment handles GET /experiments/{experiment_id}.
func (s *Server) GetExperiment(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	detail, err := s.experiments.Get(c.Request.Context(), actor, c.Param("experiment_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateExperiment handles PATCH /experiments/{experiment_id}.
func (s *Server) UpdateExperiment(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	var req titleUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	exp, err := s.experiments.Update(c.Request.Context(), actor, c.Param("experiment_id"), service.ExperimentUpdate{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, exp)
}

// DeleteExperiment handles DELETE /experiments/{experiment_id}.
func (s *Server) DeleteExperiment(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	if err := s.experiments.Delete(c.Request.Context(), actor, c.Param("experiment_id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

type flowCreateRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ListFlows handles GET /experiments/{experiment_id}/flows.
func (s *Server) ListFlows(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	flows, err := s.flows.ListByExperiment(c.Request.Context(), actor, c.Param("experiment_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newList(flows))
}

// CreateFlow handles POST /experiments/{experiment_id}/flows.
func (s *Server) CreateFlow(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	var req flowCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	flow, err := s.flows.Create(c.Request.Context(), actor, domain.FlowInput{
		ID:           req.ID,
		ExperimentID: c.Param("experiment_id"),
		Title:        req.Title,
		Description:  req.Description,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, flow)
}

// GetFlow handles GET /flows/{flow_id}.
func (s *Server) GetFlow(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	detail, err := s.flows.Get(c.Request.Context(), actor, c.Param("flow_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateFlow handles PATCH /flows/{flow_id}.
func (s *Server) UpdateFlow(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	var req titleUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	flow, err := s.flows.Update(c.Request.Context(), actor, c.Param("flow_id"), service.FlowUpdate{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, flow)
}

// DeleteFlow handles DELETE /flows/{flow_id}.
func (s *Server) DeleteFlow(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	if err := s.flows.Delete(c.Request.Context(), actor, c.Param("flow_id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
