package modules

import (
	"context"

	"github.com/lycanzy/experimentdocumentationapp/internal/api/handlers"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
)

// AdminModule wires user management. Audit log reads and the runtime log
// level are served from the shared infrastructure.
type AdminModule struct {
	users *service.UserService
}

func NewAdminModule(infra *Infrastructure) *AdminModule {
	return &AdminModule{users: service.NewUserService(infra.ServiceDeps())}
}

func (m *AdminModule) Name() string { return "admin" }

func (m *AdminModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if deps == nil {
		return
	}
	deps.Users = m.users
}

func (m *AdminModule) Shutdown(context.Context) error { return nil }
