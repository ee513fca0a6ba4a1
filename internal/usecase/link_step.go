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

// LinkStepInput represents the input for setting a step's previous step.
// An empty PreviousStepID unlinks the step.
type LinkStepInput struct {
	StepID         string       `json:"step_id"`
	PreviousStepID string       `json:"previous_step_id"`
	Actor          domain.Actor `json:"-"`
}

// LinkStepUseCase sets or clears the previous step of a step.
type LinkStepUseCase struct {
	store       *repository.Store
	graph       *service.StepGraphManager
	auditLogger *audit.Logger
	log         *zap.Logger
}

// NewLinkStepUseCase creates a new LinkStepUseCase.
func NewLinkStepUseCase(store *repository.Store, graph *service.StepGraphManager, log *zap.Logger) *LinkStepUseCase {
	log = logger.OrNop(log)
	return &LinkStepUseCase{store: store, graph: graph, auditLogger: audit.NewLogger(log), log: log}
}

// WithAuditLogger sets the audit logger.
func (uc *LinkStepUseCase) WithAuditLogger(al *audit.Logger) *LinkStepUseCase {
	if al != nil {
		uc.auditLogger = al
	}
	return uc
}

// Execute runs the link use case and returns the updated step.
func (uc *LinkStepUseCase) Execute(ctx context.Context, input LinkStepInput) (*domain.Step, error) {
	var step domain.Step
	err := uc.store.RunInTx(ctx, func(q *repository.Queries) error {
		var err error
		if step, err = service.LoadStep(ctx, q, input.Actor, input.StepID); err != nil {
			return err
		}
		if err := uc.graph.SetPrevious(ctx, q, input.Actor, step, input.PreviousStepID); err != nil {
			return err
		}

		operation := "link"
		if input.PreviousStepID == "" {
			operation = "unlink"
		}
		if err := uc.auditLogger.LogStepOperation(ctx, q, operation, step.ID, input.Actor,
			map[string]interface{}{"previous_step_id": input.PreviousStepID}); err != nil {
			return err
		}

		step, err = q.GetStep(ctx, input.StepID)
		return err
	})
	if err != nil {
		return nil, service.AppError(err)
	}

	logger.FromContext(ctx, uc.log).Info("Step link updated",
		zap.String("step_id", step.ID),
		zap.String("previous_step_id", input.PreviousStepID),
	)
	return &step, nil
}
