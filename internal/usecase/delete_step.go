package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/governance/audit"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
)

// DeleteStepInput represents the input for deleting a step.
type DeleteStepInput struct {
	StepID string       `json:"step_id"`
	Actor  domain.Actor `json:"-"`
}

// DeleteStepUseCase deletes a step that no other step depends on.
type DeleteStepUseCase struct {
	store       *repository.Store
	graph       *service.StepGraphManager
	auditLogger *audit.Logger
	log         *zap.Logger
}

// NewDeleteStepUseCase creates a new DeleteStepUseCase.
func NewDeleteStepUseCase(store *repository.Store, graph *service.StepGraphManager, log *zap.Logger) *DeleteStepUseCase {
	log = logger.OrNop(log)
	return &DeleteStepUseCase{store: store, graph: graph, auditLogger: audit.NewLogger(log), log: log}
}

// WithAuditLogger sets the audit logger.
func (uc *DeleteStepUseCase) WithAuditLogger(al *audit.Logger) *DeleteStepUseCase {
	if al != nil {
		uc.auditLogger = al
	}
	return uc
}

// Execute runs the delete use case. Samples, metadata and people of the step
// go with it. A step that is still the previous step of another fails with
// STEP_HAS_DEPENDENTS and nothing is changed.
func (uc *DeleteStepUseCase) Execute(ctx context.Context, input DeleteStepInput) error {
	var flowID string
	err := uc.store.RunInTx(ctx, func(q *repository.Queries) error {
		step, err := service.LoadStep(ctx, q, input.Actor, input.StepID)
		if err != nil {
			return err
		}
		flowID = step.FlowID
		if err := uc.graph.Delete(ctx, q, step); err != nil {
			return err
		}
		return uc.auditLogger.LogStepOperation(ctx, q, "delete", step.ID, input.Actor,
			map[string]interface{}{"flow_id": step.FlowID})
	})
	if err != nil {
		return service.AppError(err)
	}

	logger.FromContext(ctx, uc.log).Info("Step deleted",
		zap.String("step_id", input.StepID),
		zap.String("flow_id", flowID),
	)
	return nil
}
