package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/governance/audit"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/metrics"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
)

// DefaultIDRetryAttempts is used when no attempt count is configured.
const DefaultIDRetryAttempts = 3

// CreateStepInput represents the input for creating a step.
type CreateStepInput struct {
	FlowID         string       `json:"flow_id"`
	StepTypeCode   string       `json:"step_type"`
	PreviousStepID string       `json:"previous_step_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Date           string       `json:"date"`
	People         []string     `json:"people"`
	Actor          domain.Actor `json:"-"`
}

// CreateStepOutput represents the created step.
type CreateStepOutput struct {
	Step     domain.Step `json:"step"`
	Attempts int         `json:"-"`
}

// CreateStepUseCase creates a step with a generated identifier.
// Identifier allocation, the optional previous link, people and the audit
// entry commit in one transaction. An identifier taken by a concurrent
// transaction is retried with a recomputed number.
type CreateStepUseCase struct {
	store       *repository.Store
	ids         *service.IdentifierGenerator
	graph       *service.StepGraphManager
	auditLogger *audit.Logger
	metrics     *metrics.Metrics
	log         *zap.Logger
	maxAttempts int
}

// NewCreateStepUseCase creates a new CreateStepUseCase.
func NewCreateStepUseCase(
	store *repository.Store,
	ids *service.IdentifierGenerator,
	graph *service.StepGraphManager,
	log *zap.Logger,
	m *metrics.Metrics,
) *CreateStepUseCase {
	log = logger.OrNop(log)
	return &CreateStepUseCase{
		store:       store,
		ids:         ids,
		graph:       graph,
		auditLogger: audit.NewLogger(log),
		metrics:     m,
		log:         log,
		maxAttempts: DefaultIDRetryAttempts,
	}
}

// WithAuditLogger sets the audit logger.
func (uc *CreateStepUseCase) WithAuditLogger(al *audit.Logger) *CreateStepUseCase {
	if al != nil {
		uc.auditLogger = al
	}
	return uc
}

// WithRetryAttempts sets how many transactions may be tried per request.
func (uc *CreateStepUseCase) WithRetryAttempts(n int) *CreateStepUseCase {
	if n > 0 {
		uc.maxAttempts = n
	}
	return uc
}

// Execute runs the step creation use case.
func (uc *CreateStepUseCase) Execute(ctx context.Context, input CreateStepInput) (*CreateStepOutput, error) {
	log := logger.FromContext(ctx, uc.log)

	if err := domain.ValidateStep(domain.StepInput{
		FlowID:         input.FlowID,
		StepTypeCode:   input.StepTypeCode,
		PreviousStepID: input.PreviousStepID,
		Title:          input.Title,
		Description:    input.Description,
		Date:           input.Date,
		People:         input.People,
	}); err != nil {
		return nil, service.AppError(err)
	}

	var err error
	for attempt := 1; attempt <= uc.maxAttempts; attempt++ {
		var step *domain.Step
		step, err = uc.createOnce(ctx, input)
		if err == nil {
			uc.metrics.StepCreated(step.StepTypeCode)
			log.Info("Step created",
				zap.String("step_id", step.ID),
				zap.String("flow_id", step.FlowID),
				zap.Int("attempt", attempt),
			)
			return &CreateStepOutput{Step: *step, Attempts: attempt}, nil
		}
		if !errors.Is(err, domain.ErrDuplicateIdentifier) {
			break
		}
		uc.metrics.StepIDConflict()
		log.Warn("Step identifier taken concurrently, retrying",
			zap.String("flow_id", input.FlowID),
			zap.String("step_type", input.StepTypeCode),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	if errors.Is(err, domain.ErrCapacityExceeded) {
		uc.metrics.CapacityExhausted(input.StepTypeCode)
	}
	return nil, service.AppError(err)
}

func (uc *CreateStepUseCase) createOnce(ctx context.Context, input CreateStepInput) (*domain.Step, error) {
	var step *domain.Step
	err := uc.store.RunInTx(ctx, func(q *repository.Queries) error {
		if _, err := service.LoadFlow(ctx, q, input.Actor, input.FlowID); err != nil {
			return err
		}
		if err := q.LockFlow(ctx, input.FlowID); err != nil {
			return err
		}
		if _, err := q.GetStepType(ctx, input.StepTypeCode); err != nil {
			return err
		}

		id, err := uc.ids.GenerateStepID(ctx, q, input.FlowID, input.StepTypeCode)
		if err != nil {
			return err
		}
		if err := uc.graph.ValidatePreviousChoice(ctx, q, input.Actor, id, input.PreviousStepID, input.FlowID); err != nil {
			return err
		}

		step = &domain.Step{
			ID:           id,
			FlowID:       input.FlowID,
			StepTypeCode: input.StepTypeCode,
			Title:        input.Title,
			Description:  input.Description,
			Date:         input.Date,
		}
		if input.PreviousStepID != "" {
			prev := input.PreviousStepID
			step.PreviousStepID = &prev
		}
		if err := q.CreateStep(ctx, step); err != nil {
			return err
		}
		if len(input.People) > 0 {
			if err := q.SetStepPeople(ctx, id, input.People); err != nil {
				return err
			}
		}
		return uc.auditLogger.LogStepOperation(ctx, q, "create", id, input.Actor, map[string]interface{}{
			"flow_id":          input.FlowID,
			"step_type":        input.StepTypeCode,
			"previous_step_id": input.PreviousStepID,
		})
	})
	return step, err
}
