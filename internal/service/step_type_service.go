package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// StepTypeUpdate carries the editable step type fields. Nil fields keep
// their stored value.
type StepTypeUpdate struct {
	Name        *string
	Description *string
}

// StepTypeService manages the step type catalogue.
type StepTypeService struct {
	deps Deps
}

// NewStepTypeService creates a new StepTypeService.
func NewStepTypeService(deps Deps) *StepTypeService {
	return &StepTypeService{deps: deps.normalize()}
}

// Create adds a step type.
func (s *StepTypeService) Create(ctx context.Context, actor domain.Actor, in domain.StepTypeInput) (*domain.StepType, error) {
	if err := domain.ValidateStepType(in); err != nil {
		return nil, AppError(err)
	}
	st := &domain.StepType{Code: in.Code, Name: in.Name, Description: in.Description}
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		if err := q.CreateStepType(ctx, st); err != nil {
			return err
		}
		return s.deps.Audit.LogAction(ctx, q, "step_type.create", "step_type", st.Code, actor, nil)
	})
	if err != nil {
		return nil, alreadyExists(err, apperrors.CodeStepTypeExists, "step type", in.Code)
	}
	logger.FromContext(ctx, s.deps.Log).Info("Step type created", zap.String("step_type", st.Code))
	return st, nil
}

// Get returns the step type with code.
func (s *StepTypeService) Get(ctx context.Context, code string) (*domain.StepType, error) {
	st, err := s.deps.Store.Queries().GetStepType(ctx, code)
	if err != nil {
		return nil, AppError(err)
	}
	return &st, nil
}

// List returns all step types ordered by code.
func (s *StepTypeService) List(ctx context.Context) ([]domain.StepType, error) {
	types, err := s.deps.Store.Queries().ListStepTypes(ctx)
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []domain.StepType{}
	}
	return types, nil
}

// Update changes name and description. The code is fixed.
func (s *StepTypeService) Update(ctx context.Context, actor domain.Actor, code string, in StepTypeUpdate) (*domain.StepType, error) {
	var st domain.StepType
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		var err error
		if st, err = q.GetStepType(ctx, code); err != nil {
			return err
		}
		patch(&st.Name, in.Name)
		patch(&st.Description, in.Description)
		if err := domain.ValidateStepType(domain.StepTypeInput{Code: code, Name: st.Name}); err != nil {
			return err
		}
		if err := q.UpdateStepType(ctx, &st); err != nil {
			return err
		}
		return s.deps.Audit.LogAction(ctx, q, "step_type.update", "step_type", code, actor, nil)
	})
	if err != nil {
		return nil, AppError(err)
	}
	return &st, nil
}

// Delete removes a step type no step refers to.
func (s *StepTypeService) Delete(ctx context.Context, actor domain.Actor, code string) error {
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		if err := q.DeleteStepType(ctx, code); err != nil {
			return err
		}
		return s.deps.Audit.LogAction(ctx, q, "step_type.delete", "step_type", code, actor, nil)
	})
	return AppError(err)
}
