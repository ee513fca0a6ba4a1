package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
	"github.com/lycanzy/experimentdocumentationapp/internal/usecase"
)

type stepCreateRequest struct {
	StepType       string   `json:"step_type"`
	PreviousStepID *string  `json:"previous_step_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Date           string   `json:"date"`
	People         []string `json:"people"`
}

type stepUpdateRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Date        *string   `json:"date"`
	People      *[]string `json:"people"`
}

type previousStepRequest struct {
	PreviousStepID *string `json:"previous_step_id"`
}

type sampleCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type metadataCreateRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListSteps handles GET /flows/{flow_id}/steps.
func (s *Server) ListSteps(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	steps, err := s.steps.ListByFlow(c.Request.Context(), actor, c.Param("flow_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newList(steps))
}

// CreateStep handles POST /flows/{flow_id}/steps. The identifier is
// generated; any id in the body is ignored.
func (s *Server) CreateStep(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	var req stepCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := s.createStepUC.Execute(c.Request.Context(), usecase.CreateStepInput{
		FlowID:         c.Param("flow_id"),
		StepTypeCode:   req.StepType,
		PreviousStepID: deref(req.PreviousStepID),
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		People:         req.People,
		Actor:          actor,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, out.Step)
}

// GetStep handles GET /steps/{step_id}.
func (s *Server) GetStep(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	detail, err := s.steps.Get(c.Request.Context(), actor, c.Param("step_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateStep handles PATCH /steps/{step_id}. Omitted fields keep their
// value; people are replaced only when present.
func (s *Server) UpdateStep(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	var req stepUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	step, err := s.steps.Update(c.Request.Context(), actor, c.Param("step_id"), service.StepUpdate{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		People:      req.People,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, step)
}

// DeleteStep handles DELETE /steps/{step_id}.
func (s *Server) DeleteStep(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	err := s.deleteStepUC.Execute(c.Request.Context(), usecase.DeleteStepInput{
		StepID: c.Param("step_id"),
		Actor:  actor,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListEligiblePrevious handles GET /steps/{step_id}/eligible-previous.
func (s *Server) ListEligiblePrevious(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	steps, err := s.steps.EligiblePrevious(c.Request.Context(), actor, c.Param("step_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newList(steps))
}

// SetPreviousStep handles PUT /steps/{step_id}/previous. A null or empty
// previous_step_id unlinks the step.
func (s *Server) SetPreviousStep(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	var req previousStepRequest
	if !bindJSON(c, &req) {
		return
	}
	step, err := s.linkStepUC.Execute(c.Request.Context(), usecase.LinkStepInput{
		StepID:         c.Param("step_id"),
		PreviousStepID: deref(req.PreviousStepID),
		Actor:          actor,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, step)
}

// ListSamples handles GET /steps/{step_id}/samples.
func (s *Server) ListSamples(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	samples, err := s.records.ListSamples(c.Request.Context(), actor, c.Param("step_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newList(samples))
}

// AddSample handles POST /steps/{step_id}/samples.
func (s *Server) AddSample(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	var req sampleCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	sample, err := s.records.AddSample(c.Request.Context(), actor, domain.SampleInput{
		StepID:      c.Param("step_id"),
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, sample)
}

// DeleteSample handles DELETE /samples/{sample_id}.
func (s *Server) DeleteSample(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	id, ok := int64Param(c, "sample_id")
	if !ok {
		return
	}
	if err := s.records.DeleteSample(c.Request.Context(), actor, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMetadata handles GET /steps/{step_id}/metadata.
func (s *Server) ListMetadata(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	md, err := s.records.ListMetadata(c.Request.Context(), actor, c.Param("step_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newList(md))
}

// AddMetadata handles POST /steps/{step_id}/metadata.
func (s *Server) AddMetadata(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	var req metadataCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	md, err := s.records.AddMetadata(c.Request.Context(), actor, domain.MetadataInput{
		StepID: c.Param("step_id"),
		Key:    req.Key,
		Value:  req.Value,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, md)
}

// DeleteMetadata handles DELETE /metadata/{metadata_id}.
func (s *Server) DeleteMetadata(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	id, ok := int64Param(c, "metadata_id")
	if !ok {
		return
	}
	if err := s.records.DeleteMetadata(c.Request.Context(), actor, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequestField, "path parameter is not an integer").
			WithParams(map[string]interface{}{"field": name}))
		return 0, false
	}
	return id, true
}
