// Package service provides the business logic of the experiment tracker.
//
// Entity services own their transactions through the Store. Components that
// must join a caller's transaction (IdentifierGenerator, StepGraphManager)
// take a *repository.Queries instead. Errors leave this package as
// *errors.AppError with the domain sentinel still wrapped.
package service

import (
	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/governance/audit"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// Deps are the collaborators shared by the entity services.
type Deps struct {
	Store *repository.Store
	Log   *zap.Logger
	Audit *audit.Logger
}

func (d Deps) normalize() Deps {
	d.Log = logger.OrNop(d.Log)
	if d.Audit == nil {
		d.Audit = audit.NewLogger(d.Log)
	}
	return d
}

// StepView is a step with the users assigned to it.
type StepView struct {
	domain.Step
	People []domain.User `json:"people"`
}

func stepViews(steps []domain.Step, people map[string][]domain.User) []StepView {
	out := make([]StepView, 0, len(steps))
	for _, s := range steps {
		p := people[s.ID]
		if p == nil {
			p = []domain.User{}
		}
		out = append(out, StepView{Step: s, People: p})
	}
	return out
}

func stepIDs(steps []domain.Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID
	}
	return ids
}

// patch overwrites *dst with *v when v is set.
func patch(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
