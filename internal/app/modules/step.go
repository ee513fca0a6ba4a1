package modules

import (
	"context"

	"github.com/lycanzy/experimentdocumentationapp/internal/api/handlers"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
	"github.com/lycanzy/experimentdocumentationapp/internal/usecase"
)

// StepModule wires identifier generation, the step graph and the step use
// cases.
type StepModule struct {
	steps        *service.StepService
	createStepUC *usecase.CreateStepUseCase
	linkStepUC   *usecase.LinkStepUseCase
	deleteStepUC *usecase.DeleteStepUseCase
}

// NewStepModule creates the module with explicit constructor wiring.
func NewStepModule(infra *Infrastructure) *StepModule {
	log := infra.Log.Named("steps")
	graph := service.NewStepGraphManager(log, infra.Metrics)
	ids := service.NewIdentifierGenerator()

	createStep := usecase.NewCreateStepUseCase(infra.Store, ids, graph, log, infra.Metrics).
		WithAuditLogger(infra.AuditLogger).
		WithRetryAttempts(infra.Config.Steps.IDRetryAttempts)

	return &StepModule{
		steps:        service.NewStepService(infra.ServiceDeps(), graph),
		createStepUC: createStep,
		linkStepUC:   usecase.NewLinkStepUseCase(infra.Store, graph, log).WithAuditLogger(infra.AuditLogger),
		deleteStepUC: usecase.NewDeleteStepUseCase(infra.Store, graph, log).WithAuditLogger(infra.AuditLogger),
	}
}

func (m *StepModule) Name() string { return "step" }

func (m *StepModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Steps = m.steps
	deps.CreateStepUC = m.createStepUC
	deps.LinkStepUC = m.linkStepUC
	deps.DeleteStepUC = m.deleteStepUC
}

func (m *StepModule) Shutdown(context.Context) error { return nil }
