package modules

import (
	"context"

	"github.com/lycanzy/experimentdocumentationapp/internal/api/handlers"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
)

// ExperimentModule wires the experiment hierarchy: experiments, flows, step
// types, step records and the dashboard.
type ExperimentModule struct {
	experiments *service.ExperimentService
	flows       *service.FlowService
	stepTypes   *service.StepTypeService
	records     *service.RecordService
	dashboard   *service.DashboardService
}

// NewExperimentModule creates the module with explicit constructor wiring.
func NewExperimentModule(infra *Infrastructure) *ExperimentModule {
	deps := infra.ServiceDeps()
	return &ExperimentModule{
		experiments: service.NewExperimentService(deps),
		flows:       service.NewFlowService(deps),
		stepTypes:   service.NewStepTypeService(deps),
		records:     service.NewRecordService(deps),
		dashboard:   service.NewDashboardService(deps),
	}
}

func (m *ExperimentModule) Name() string { return "experiment" }

func (m *ExperimentModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Experiments = m.experiments
	deps.Flows = m.flows
	deps.StepTypes = m.stepTypes
	deps.Records = m.records
	deps.Dashboard = m.dashboard
}

func (m *ExperimentModule) Shutdown(context.Context) error { return nil }
