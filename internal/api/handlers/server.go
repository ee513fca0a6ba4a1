// Package handlers implements the HTTP API on top of the service and use
// case layers.
//
// Handlers bind and translate requests only. Failures are pushed with
// c.Error and rendered by middleware.ErrorHandler.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/api/middleware"
	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/governance/audit"
	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
	"github.com/lycanzy/experimentdocumentationapp/internal/usecase"
)

// Pinger reports datastore reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the API handlers.
type Server struct {
	store    *repository.Store
	db       Pinger
	jwtCfg   middleware.JWTConfig
	audit    *audit.Logger
	logLevel *zap.AtomicLevel
	log      *zap.Logger

	experiments *service.ExperimentService
	flows       *service.FlowService
	steps       *service.StepService
	stepTypes   *service.StepTypeService
	records     *service.RecordService
	users       *service.UserService
	dashboard   *service.DashboardService

	createStepUC *usecase.CreateStepUseCase
	linkStepUC   *usecase.LinkStepUseCase
	deleteStepUC *usecase.DeleteStepUseCase
}

// ServerDeps holds all dependencies for creating a Server.
// Modules fill in the fields they own.
type ServerDeps struct {
	Store    *repository.Store
	DB       Pinger
	JWTCfg   middleware.JWTConfig
	Audit    *audit.Logger
	LogLevel *zap.AtomicLevel
	Log      *zap.Logger

	Experiments *service.ExperimentService
	Flows       *service.FlowService
	Steps       *service.StepService
	StepTypes   *service.StepTypeService
	Records     *service.RecordService
	Users       *service.UserService
	Dashboard   *service.DashboardService

	CreateStepUC *usecase.CreateStepUseCase
	LinkStepUC   *usecase.LinkStepUseCase
	DeleteStepUC *usecase.DeleteStepUseCase
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	db := deps.DB
	if db == nil && deps.Store != nil {
		db = deps.Store
	}
	al := deps.Audit
	if al == nil {
		al = audit.NewLogger(deps.Log)
	}
	return &Server{
		store:        deps.Store,
		db:           db,
		jwtCfg:       deps.JWTCfg,
		audit:        al,
		logLevel:     deps.LogLevel,
		log:          logger.OrNop(deps.Log),
		experiments:  deps.Experiments,
		flows:        deps.Flows,
		steps:        deps.Steps,
		stepTypes:    deps.StepTypes,
		records:      deps.Records,
		users:        deps.Users,
		dashboard:    deps.Dashboard,
		createStepUC: deps.CreateStepUC,
		linkStepUC:   deps.LinkStepUC,
		deleteStepUC: deps.DeleteStepUC,
	}
}

// actorFromCtx returns the authenticated caller. When there is none the
// request is failed and ok is false.
func actorFromCtx(c *gin.Context) (domain.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c.Request.Context())
	if !ok {
		_ = c.Error(apperrors.Unauthorized(apperrors.CodeUnauthorized, "authentication required"))
		return domain.Actor{}, false
	}
	return actor, true
}

// bindJSON decodes the request body into dst or records an INVALID_REQUEST.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(apperrors.Wrap(err, apperrors.CodeInvalidRequest, "request body is invalid", http.StatusBadRequest))
		return false
	}
	return true
}

func (s *Server) logger(c *gin.Context) *zap.Logger {
	return logger.FromContext(c.Request.Context(), s.log)
}

// listResponse wraps collection responses.
type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Total: len(items)}
}
