package service

import (
	"context"
	"fmt"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// IdentifierGenerator allocates step identifiers of the form
// {flow_id}-{step_type_code}{NN}.
//
// It must be called inside the transaction that inserts the step. The number
// is the highest one in use plus one, so gaps left by deleted steps are not
// reused. Two transactions may still compute the same number; the loser's
// insert fails with domain.ErrDuplicateIdentifier.
type IdentifierGenerator struct {
	listIDs StepIDLister
}

// StepIDLister returns the identifiers in use for a flow and step type.
type StepIDLister func(ctx context.Context, q *repository.Queries, flowID, stepTypeCode string) ([]string, error)

// NewIdentifierGenerator creates a generator that reads identifiers from q.
func NewIdentifierGenerator() *IdentifierGenerator {
	return NewIdentifierGeneratorWithLister(func(ctx context.Context, q *repository.Queries, flowID, stepTypeCode string) ([]string, error) {
		return q.ListStepIDsByFlowAndType(ctx, flowID, stepTypeCode)
	})
}

// NewIdentifierGeneratorWithLister creates a generator with a custom source
// of existing identifiers.
func NewIdentifierGeneratorWithLister(list StepIDLister) *IdentifierGenerator {
	return &IdentifierGenerator{listIDs: list}
}

// NextSequenceNumber returns the number the next step of this flow and type
// receives, or domain.ErrCapacityExceeded once 99 is in use.
func (g *IdentifierGenerator) NextSequenceNumber(ctx context.Context, q *repository.Queries, flowID, stepTypeCode string) (int, error) {
	existing, err := g.listIDs(ctx, q, flowID, stepTypeCode)
	if err != nil {
		return 0, fmt.Errorf("list step ids: %w", err)
	}
	return domain.NextSequenceNumber(existing, flowID, stepTypeCode)
}

// GenerateStepID returns the next free step identifier.
func (g *IdentifierGenerator) GenerateStepID(ctx context.Context, q *repository.Queries, flowID, stepTypeCode string) (string, error) {
	n, err := g.NextSequenceNumber(ctx, q, flowID, stepTypeCode)
	if err != nil {
		return "", err
	}
	return domain.FormatStepID(flowID, stepTypeCode, n)
}
