package service

import (
	"context"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
)

// Dashboard is the landing view: the actor's experiments, the selected
// experiment's flows with their steps, and the catalogues needed to edit them.
type Dashboard struct {
	Experiments        []domain.Experiment `json:"experiments"`
	SelectedExperiment *domain.Experiment  `json:"selected_experiment"`
	Flows              []FlowDetail        `json:"flows"`
	Users              []domain.User       `json:"users"`
	StepTypes          []domain.StepType   `json:"step_types"`
}

// DashboardService assembles the dashboard.
type DashboardService struct {
	deps Deps
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(deps Deps) *DashboardService {
	return &DashboardService{deps: deps.normalize()}
}

// Get builds the dashboard. An empty experimentID selects nothing.
func (s *DashboardService) Get(ctx context.Context, actor domain.Actor, experimentID string) (*Dashboard, error) {
	q := s.deps.Store.Queries()
	owner := actor.UserID
	if actor.IsAdmin {
		owner = ""
	}

	d := &Dashboard{Flows: []FlowDetail{}}
	var err error
	if d.Experiments, err = q.ListExperiments(ctx, owner); err != nil {
		return nil, err
	}
	if d.Users, err = q.ListUsers(ctx); err != nil {
		return nil, err
	}
	if d.StepTypes, err = q.ListStepTypes(ctx); err != nil {
		return nil, err
	}
	if d.Experiments == nil {
		d.Experiments = []domain.Experiment{}
	}
	if d.Users == nil {
		d.Users = []domain.User{}
	}
	if d.StepTypes == nil {
		d.StepTypes = []domain.StepType{}
	}

	if experimentID == "" {
		return d, nil
	}
	exp, err := loadExperiment(ctx, q, actor, experimentID)
	if err != nil {
		return nil, AppError(err)
	}
	d.SelectedExperiment = &exp

	flows, err := q.ListFlowsByExperiment(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	for _, f := range flows {
		steps, err := listStepViews(ctx, q, f.ID)
		if err != nil {
			return nil, err
		}
		d.Flows = append(d.Flows, FlowDetail{Flow: f, Steps: steps})
	}
	return d, nil
}
