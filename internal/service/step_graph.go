package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/metrics"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// StepGraphManager enforces the previous-step structure of a flow.
//
// Every method runs on the caller's Queries. Mutating methods lock the flow
// first and rebuild the graph from storage, so checks and writes see the same
// state.
type StepGraphManager struct {
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewStepGraphManager creates a new StepGraphManager.
func NewStepGraphManager(log *zap.Logger, m *metrics.Metrics) *StepGraphManager {
	return &StepGraphManager{log: logger.OrNop(log), metrics: m}
}

// Graph loads the current graph of a flow.
func (g *StepGraphManager) Graph(ctx context.Context, q *repository.Queries, flowID string) (*domain.StepGraph, error) {
	steps, err := q.ListStepsByFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return domain.NewStepGraph(flowID, steps), nil
}

// ValidatePreviousChoice checks that candidateID may become the previous
// step of stepID in flowID. stepID may be empty for a step not yet created.
// A candidate the actor cannot see is reported as a missing step.
func (g *StepGraphManager) ValidatePreviousChoice(ctx context.Context, q *repository.Queries, actor domain.Actor, stepID, candidateID, flowID string) error {
	if candidateID == "" {
		return nil
	}
	graph, err := g.Graph(ctx, q, flowID)
	if err != nil {
		return err
	}
	return g.validate(ctx, q, actor, graph, stepID, candidateID)
}

func (g *StepGraphManager) validate(ctx context.Context, q *repository.Queries, actor domain.Actor, graph *domain.StepGraph, stepID, candidateID string) error {
	if !graph.Contains(candidateID) {
		if _, err := loadStep(ctx, q, actor, candidateID); err != nil {
			return err
		}
	}
	err := graph.ValidatePrevious(stepID, candidateID)
	switch {
	case errors.Is(err, domain.ErrCycleRejected):
		g.metrics.GraphRejected(metrics.RejectCycle)
	case errors.Is(err, domain.ErrCrossFlowRejected):
		g.metrics.GraphRejected(metrics.RejectCrossFlow)
	}
	return err
}

// SetPrevious links step to candidateID, or unlinks it when candidateID is
// empty.
func (g *StepGraphManager) SetPrevious(ctx context.Context, q *repository.Queries, actor domain.Actor, step domain.Step, candidateID string) error {
	log := logger.FromContext(ctx, g.log)

	if err := q.LockFlow(ctx, step.FlowID); err != nil {
		return err
	}
	if candidateID != "" {
		graph, err := g.Graph(ctx, q, step.FlowID)
		if err != nil {
			return err
		}
		if err := g.validate(ctx, q, actor, graph, step.ID, candidateID); err != nil {
			log.Info("Previous step rejected",
				zap.String("step_id", step.ID),
				zap.String("candidate_id", candidateID),
				zap.Error(err),
			)
			return err
		}
	}
	if err := q.SetPreviousStep(ctx, step.ID, candidateID); err != nil {
		return err
	}
	g.metrics.LinkChanged(candidateID == "")
	log.Debug("Previous step changed",
		zap.String("step_id", step.ID),
		zap.String("previous_step_id", candidateID),
	)
	return nil
}

// EligiblePrevious returns the steps of flowID that stepID may link to,
// ordered by id.
func (g *StepGraphManager) EligiblePrevious(ctx context.Context, q *repository.Queries, flowID, stepID string) ([]domain.Step, error) {
	graph, err := g.Graph(ctx, q, flowID)
	if err != nil {
		return nil, err
	}
	return graph.EligiblePrevious(stepID), nil
}

// CanDelete reports whether no step names stepID as its previous step.
func (g *StepGraphManager) CanDelete(ctx context.Context, q *repository.Queries, stepID string) (bool, error) {
	next, err := q.ListNextStepIDs(ctx, stepID)
	if err != nil {
		return false, err
	}
	return len(next) == 0, nil
}

// Delete removes a step that has no next steps. Otherwise it fails with
// domain.ErrDependentStepsExist and nothing changes.
func (g *StepGraphManager) Delete(ctx context.Context, q *repository.Queries, step domain.Step) error {
	if err := q.LockFlow(ctx, step.FlowID); err != nil {
		return err
	}
	next, err := q.ListNextStepIDs(ctx, step.ID)
	if err != nil {
		return err
	}
	if len(next) > 0 {
		g.metrics.GraphRejected(metrics.RejectDependents)
		logger.FromContext(ctx, g.log).Info("Step delete rejected",
			zap.String("step_id", step.ID),
			zap.Strings("next_steps", next),
		)
		return fmt.Errorf("%w: %s is previous of %v", domain.ErrDependentStepsExist, step.ID, next)
	}
	if err := q.DeleteStep(ctx, step.ID); err != nil {
		return err
	}
	g.metrics.StepDeleted()
	return nil
}
