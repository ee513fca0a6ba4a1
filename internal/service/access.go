package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// Resources owned by another user are reported as missing rather than
// forbidden so their identifiers do not leak.

func loadExperiment(ctx context.Context, q *repository.Queries, actor domain.Actor, id string) (domain.Experiment, error) {
	exp, err := q.GetExperiment(ctx, id)
	if err != nil {
		return domain.Experiment{}, err
	}
	if !actor.CanAccess(exp.CreatedBy) {
		return domain.Experiment{}, domain.NotFoundError{Entity: "experiment", ID: id}
	}
	return exp, nil
}

func loadFlow(ctx context.Context, q *repository.Queries, actor domain.Actor, id string) (domain.Flow, error) {
	flow, err := q.GetFlow(ctx, id)
	if err != nil {
		return domain.Flow{}, err
	}
	if _, err := loadExperiment(ctx, q, actor, flow.ExperimentID); err != nil {
		return domain.Flow{}, hideAs(err, "flow", id)
	}
	return flow, nil
}

func loadStep(ctx context.Context, q *repository.Queries, actor domain.Actor, id string) (domain.Step, error) {
	step, err := q.GetStep(ctx, id)
	if err != nil {
		return domain.Step{}, err
	}
	if _, err := loadFlow(ctx, q, actor, step.FlowID); err != nil {
		return domain.Step{}, hideAs(err, "step", id)
	}
	return step, nil
}

// LoadStep returns the step when the actor may see it.
func LoadStep(ctx context.Context, q *repository.Queries, actor domain.Actor, id string) (domain.Step, error) {
	step, err := loadStep(ctx, q, actor, id)
	return step, AppError(err)
}

// LoadFlow returns the flow when the actor may see it.
func LoadFlow(ctx context.Context, q *repository.Queries, actor domain.Actor, id string) (domain.Flow, error) {
	flow, err := loadFlow(ctx, q, actor, id)
	return flow, AppError(err)
}

// hideAs reports a missing or inaccessible parent as the child being missing.
func hideAs(err error, entity, id string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
