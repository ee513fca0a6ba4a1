package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// FlowDetail is a flow with its steps ordered by id.
type FlowDetail struct {
	domain.Flow
	Steps []StepView `json:"steps"`
}

// FlowUpdate carries the editable flow fields. Nil fields keep their stored
// value.
type FlowUpdate struct {
	Title       *string
	Description *string
}

// FlowService manages flows.
type FlowService struct {
	deps Deps
}

// NewFlowService creates a new FlowService.
func NewFlowService(deps Deps) *FlowService {
	return &FlowService{deps: deps.normalize()}
}

// Create stores a new flow under its experiment.
func (s *FlowService) Create(ctx context.Context, actor domain.Actor, in domain.FlowInput) (*domain.Flow, error) {
	if err := domain.ValidateFlow(in); err != nil {
		return nil, AppError(err)
	}
	flow := &domain.Flow{
		ID:           in.ID,
		ExperimentID: in.ExperimentID,
		Title:        in.Title,
		Description:  in.Description,
	}
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		if _, err := loadExperiment(ctx, q, actor, in.ExperimentID); err != nil {
			return err
		}
		if err := q.CreateFlow(ctx, flow); err != nil {
			return err
		}
		return s.deps.Audit.LogAction(ctx, q, "flow.create", "flow", flow.ID, actor,
			map[string]interface{}{"experiment_id": flow.ExperimentID})
	})
	if err != nil {
		return nil, alreadyExists(err, apperrors.CodeFlowExists, "flow", in.ID)
	}

	logger.FromContext(ctx, s.deps.Log).Info("Flow created",
		zap.String("flow_id", flow.ID),
		zap.String("experiment_id", flow.ExperimentID),
	)
	return flow, nil
}

// Get returns a flow with its steps and their people.
func (s *FlowService) Get(ctx context.Context, actor domain.Actor, id string) (*FlowDetail, error) {
	q := s.deps.Store.Queries()
	flow, err := loadFlow(ctx, q, actor, id)
	if err != nil {
		return nil, AppError(err)
	}
	steps, err := listStepViews(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return &FlowDetail{Flow: flow, Steps: steps}, nil
}

// ListByExperiment returns the flows of an experiment ordered by id.
func (s *FlowService) ListByExperiment(ctx context.Context, actor domain.Actor, experimentID string) ([]domain.Flow, error) {
	q := s.deps.Store.Queries()
	if _, err := loadExperiment(ctx, q, actor, experimentID); err != nil {
		return nil, AppError(err)
	}
	flows, err := q.ListFlowsByExperiment(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	if flows == nil {
		flows = []domain.Flow{}
	}
	return flows, nil
}

// Update changes title and description.
func (s *FlowService) Update(ctx context.Context, actor domain.Actor, id string, in FlowUpdate) (*domain.Flow, error) {
	var flow domain.Flow
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		var err error
		if flow, err = loadFlow(ctx, q, actor, id); err != nil {
			return err
		}
		patch(&flow.Title, in.Title)
		patch(&flow.Description, in.Description)
		if err := domain.ValidateFlow(domain.FlowInput{ID: id, Title: flow.Title}); err != nil {
			return err
		}
		if err := q.UpdateFlow(ctx, &flow); err != nil {
			return err
		}
		return s.deps.Audit.LogAction(ctx, q, "flow.update", "flow", id, actor, nil)
	})
	if err != nil {
		return nil, AppError(err)
	}
	return &flow, nil
}

// Delete removes the flow and all of its steps.
func (s *FlowService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		if _, err := loadFlow(ctx, q, actor, id); err != nil {
			return err
		}
		if err := q.DeleteFlow(ctx, id); err != nil {
			return err
		}
		return s.deps.Audit.LogAction(ctx, q, "flow.delete", "flow", id, actor, nil)
	})
	if err != nil {
		return AppError(err)
	}
	logger.FromContext(ctx, s.deps.Log).Info("Flow deleted", zap.String("flow_id", id))
	return nil
}

func listStepViews(ctx context.Context, q *repository.Queries, flowID string) ([]StepView, error) {
	steps, err := q.ListStepsByFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	people, err := q.ListStepPeople(ctx, stepIDs(steps)...)
	if err != nil {
		return nil, err
	}
	return stepViews(steps, people), nil
}
