package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// StepDetail is the full view of one step.
type StepDetail struct {
	domain.Step
	People           []domain.User     `json:"people"`
	Samples          []domain.Sample   `json:"samples"`
	Metadata         []domain.Metadata `json:"metadata"`
	NextSteps        []string          `json:"next_steps"`
	EligiblePrevious []domain.Step     `json:"eligible_previous"`
}

// StepUpdate carries the editable step fields. A nil People leaves the
// assignment unchanged.
type StepUpdate struct {
	Title       *string
	Description *string
	Date        *string
	People      *[]string
}

// StepService serves step reads and field updates. Creation, linking and
// deletion are use cases because they combine the generator and the graph.
type StepService struct {
	deps  Deps
	graph *StepGraphManager
}

// NewStepService creates a new StepService.
func NewStepService(deps Deps, graph *StepGraphManager) *StepService {
	return &StepService{deps: deps.normalize(), graph: graph}
}

// Get returns the step with its people, samples, metadata and graph context.
func (s *StepService) Get(ctx context.Context, actor domain.Actor, id string) (*StepDetail, error) {
	q := s.deps.Store.Queries()
	step, err := loadStep(ctx, q, actor, id)
	if err != nil {
		return nil, AppError(err)
	}

	graph, err := s.graph.Graph(ctx, q, step.FlowID)
	if err != nil {
		return nil, err
	}
	people, err := q.ListStepPeople(ctx, id)
	if err != nil {
		return nil, err
	}
	samples, err := q.ListSamplesByStep(ctx, id)
	if err != nil {
		return nil, err
	}
	metadata, err := q.ListMetadataByStep(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &StepDetail{
		Step:             step,
		People:           people[id],
		Samples:          samples,
		Metadata:         metadata,
		NextSteps:        graph.NextSteps(id),
		EligiblePrevious: graph.EligiblePrevious(id),
	}
	if detail.People == nil {
		detail.People = []domain.User{}
	}
	if detail.Samples == nil {
		detail.Samples = []domain.Sample{}
	}
	if detail.Metadata == nil {
		detail.Metadata = []domain.Metadata{}
	}
	return detail, nil
}

// ListByFlow returns the steps of a flow ordered by id.
func (s *StepService) ListByFlow(ctx context.Context, actor domain.Actor, flowID string) ([]StepView, error) {
	q := s.deps.Store.Queries()
	if _, err := loadFlow(ctx, q, actor, flowID); err != nil {
		return nil, AppError(err)
	}
	return listStepViews(ctx, q, flowID)
}

// EligiblePrevious returns the steps the given step may link to.
func (s *StepService) EligiblePrevious(ctx context.Context, actor domain.Actor, id string) ([]domain.Step, error) {
	q := s.deps.Store.Queries()
	step, err := loadStep(ctx, q, actor, id)
	if err != nil {
		return nil, AppError(err)
	}
	return s.graph.EligiblePrevious(ctx, q, step.FlowID, id)
}

// Update changes title, description, date and optionally the people. The
// identifier, flow, type and previous step are not touched.
func (s *StepService) Update(ctx context.Context, actor domain.Actor, id string, in StepUpdate) (*domain.Step, error) {
	var step domain.Step
	err := s.deps.Store.RunInTx(ctx, func(q *repository.Queries) error {
		var err error
		if step, err = loadStep(ctx, q, actor, id); err != nil {
			return err
		}
		patch(&step.Title, in.Title)
		patch(&step.Description, in.Description)
		patch(&step.Date, in.Date)
		if err := domain.ValidateStepUpdate(step.Title, step.Date); err != nil {
			return err
		}
		if err := q.UpdateStep(ctx, &step); err != nil {
			return err
		}
		details := map[string]interface{}{"date": step.Date}
		if in.People != nil {
			if err := q.SetStepPeople(ctx, id, *in.People); err != nil {
				return err
			}
			details["people"] = *in.People
		}
		return s.deps.Audit.LogStepOperation(ctx, q, "update", id, actor, details)
	})
	if err != nil {
		return nil, AppError(err)
	}
	logger.FromContext(ctx, s.deps.Log).Debug("Step updated", zap.String("step_id", id))
	return &step, nil
}
