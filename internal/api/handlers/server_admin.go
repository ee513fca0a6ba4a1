package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type stepTypeCreateRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type stepTypeUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type userCreateRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	IsAdmin     bool   `json:"is_admin"`
}

type logLevelRequest struct {
	Level string `json:"level" binding:"required"`
}

// ListStepTypes handles GET /step-types.
func (s *Server) ListStepTypes(c *gin.Context) {
	types, err := s.stepTypes.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newList(types))
}

// CreateStepType handles POST /step-types.
func (s *Server) CreateStepType(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	var req stepTypeCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	st, err := s.stepTypes.Create(c.Request.Context(), actor, domain.StepTypeInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// GetStepType handles GET /step-types/{code}.
func (s *Server) GetStepType(c *gin.Context) {
	st, err := s.stepTypes.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// UpdateStepType handles PATCH /step-types/{code}.
func (s *Server) UpdateStepType(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	var req stepTypeUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	st, err := s.stepTypes.Update(c.Request.Context(), actor, c.Param("code"), service.StepTypeUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DeleteStepType handles DELETE /step-types/{code}.
func (s *Server) DeleteStepType(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	if err := s.stepTypes.Delete(c.Request.Context(), actor, c.Param("code")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListUsers handles GET /users. Every authenticated user may list users so
// that people can be assigned to steps.
func (s *Server) ListUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, newList(users))
}

// CreateUser handles POST /users.
func (s *Server) CreateUser(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	var req userCreateRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := s.users.Create(c.Request.Context(), actor, domain.UserInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
		IsAdmin:     req.IsAdmin,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ListAuditLogs handles GET /audit-logs.
func (s *Server) ListAuditLogs(c *gin.Context) {
	filter := repository.AuditFilter{
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		Limit:        queryInt(c, "limit", defaultAuditLimit),
		Offset:       queryInt(c, "offset", 0),
	}
	if filter.Limit <= 0 || filter.Limit > maxAuditLimit {
		filter.Limit = defaultAuditLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	entries, total, err := s.audit.List(c.Request.Context(), s.store.Queries(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if entries == nil {
		entries = []domain.AuditLog{}
	}
	c.JSON(http.StatusOK, listResponse[domain.AuditLog]{Items: entries, Total: total})
}

// SetLogLevel handles PUT /admin/log-level.
func (s *Server) SetLogLevel(c *gin.Context) {
	var req logLevelRequest
	if !bindJSON(c, &req) {
		return
	}
	if s.logLevel == nil {
		_ = c.Error(apperrors.Internal(apperrors.CodeInternal, "log level is not adjustable"))
		return
	}
	level, err := zapcore.ParseLevel(req.Level)
	if err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequestField, "unknown log level").
			WithParams(map[string]interface{}{"field": "level"}))
		return
	}
	previous := s.logLevel.Level()
	s.logLevel.SetLevel(level)
	s.logger(c).Info("Log level changed",
		zap.Stringer("from", previous),
		zap.Stringer("to", level),
	)
	c.JSON(http.StatusOK, gin.H{"level": level.String()})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
