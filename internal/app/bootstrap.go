// Package app is the composition root. Bootstrap stays orchestration-only.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/api/handlers"
	"github.com/lycanzy/experimentdocumentationapp/internal/app/modules"
	"github.com/lycanzy/experimentdocumentationapp/internal/config"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
)

// Application holds composed application dependencies.
type Application struct {
	Config  *config.Config
	Router  *gin.Engine
	Infra   *modules.Infrastructure
	Modules []modules.Module
	Log     *zap.Logger
}

// Bootstrap initializes all dependencies using module-oriented manual DI.
// level may be nil, in which case the log level cannot be changed at runtime.
func Bootstrap(ctx context.Context, cfg *config.Config, log *zap.Logger, level *zap.AtomicLevel) (*Application, error) {
	log = logger.OrNop(log)

	infra, err := modules.NewInfrastructure(ctx, cfg, log, level)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	allModules := []modules.Module{
		modules.NewExperimentModule(infra),
		modules.NewStepModule(infra),
		modules.NewAdminModule(infra),
	}
	serverDeps := modules.NewServerDeps(cfg, infra, allModules)
	server := handlers.NewServer(serverDeps)

	router, err := newRouter(ctx, routerDeps{
		cfg:      cfg,
		server:   server,
		jwtCfg:   serverDeps.JWTCfg,
		log:      log,
		metrics:  infra.Metrics,
		registry: infra.Registry,
	})
	if err != nil {
		infra.Close()
		return nil, fmt.Errorf("init router: %w", err)
	}

	return &Application{
		Config:  cfg,
		Router:  router,
		Infra:   infra,
		Modules: allModules,
		Log:     log,
	}, nil
}
