package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// ExperimentDetail is an experiment with its flows.
type ExperimentDetail struct {
	domain.Experiment
	Flows []domain.Flow `json:"flows"`
}

// ExperimentUpdate carries the editable experiment fields. Nil fields keep
// their stored value.
type ExperimentUpdate struct {
	Title       *string
	Description *string
}

// ExperimentService manages experiments.
type ExperimentService struct {
	deps Deps
}

// NewExperimentService creates a new ExperimentService.
func NewExperimentService(deps Deps) *ExperimentService {
	return &ExperimentService{deps: deps.normalize()}
}

// Create stores a new experiment owned by the actor.
func (s *ExperimentService) Create(ctx context.Context, actor domain.Actor, in domain.ExperimentInput) (*domain.Experiment, error) {
	if err := domain.ValidateExperiment(in); err != nil {
		return nil, AppError(err)
	}
	exp := &domain.Experiment{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		CreatedBy:   actor.UserID,
	}
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		if err := q.CreateExperiment(ctx, exp); err != nil {
			return err
		}
		return s.deps.Audit.LogAction(ctx, q, "experiment.create", "experiment", exp.ID, actor, nil)
	})
	if err != nil {
		return nil, alreadyExists(err, apperrors.CodeExperimentExists, "experiment", in.ID)
	}

	logger.FromContext(ctx, s.deps.Log).Info("Experiment created", zap.String("experiment_id", exp.ID))
	return exp, nil
}

// Get returns an experiment and its flows.
func (s *ExperimentService) Get(ctx context.Context, actor domain.Actor, id string) (*ExperimentDetail, error) {
	q := s.deps.Store.Queries()
	exp, err := loadExperiment(ctx, q, actor, id)
	if err != nil {
		return nil, AppError(err)
	}
	flows, err := q.ListFlowsByExperiment(ctx, id)
	if err != nil {
		return nil, err
	}
	if flows == nil {
		flows = []domain.Flow{}
	}
	return &ExperimentDetail{Experiment: exp, Flows: flows}, nil
}

// List returns the actor's experiments, or every experiment for an admin.
func (s *ExperimentService) List(ctx context.Context, actor domain.Actor) ([]domain.Experiment, error) {
	owner := actor.UserID
	if actor.IsAdmin {
		owner = ""
	}
	exps, err := s.deps.Store.Queries().ListExperiments(ctx, owner)
	if err != nil {
		return nil, err
	}
	if exps == nil {
		exps = []domain.Experiment{}
	}
	return exps, nil
}

// Update changes title and description.
func (s *ExperimentService) Update(ctx context.Context, actor domain.Actor, id string, in ExperimentUpdate) (*domain.Experiment, error) {
	var exp domain.Experiment
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		var err error
		if exp, err = loadExperiment(ctx, q, actor, id); err != nil {
			return err
		}
		patch(&exp.Title, in.Title)
		patch(&exp.Description, in.Description)
		if err := domain.ValidateExperiment(domain.ExperimentInput{ID: id, Title: exp.Title, Description: exp.Description}); err != nil {
			return err
		}
		if err := q.UpdateExperiment(ctx, &exp); err != nil {
			return err
		}
		return s.deps.Audit.LogAction(ctx, q, "experiment.update", "experiment", id, actor, nil)
	})
	if err != nil {
		return nil, AppError(err)
	}
	return &exp, nil
}

// Delete removes the experiment with all of its flows and steps.
func (s *ExperimentService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		if _, err := loadExperiment(ctx, q, actor, id); err != nil {
			return err
		}
		if err := q.DeleteExperiment(ctx, id); err != nil {
			return err
		}
		return s.deps.Audit.LogAction(ctx, q, "experiment.delete", "experiment", id, actor, nil)
	})
	if err != nil {
		return AppError(err)
	}
	logger.FromContext(ctx, s.deps.Log).Info("Experiment deleted", zap.String("experiment_id", id))
	return nil
}
