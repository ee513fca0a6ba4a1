package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
)

// Shutdown gracefully shuts down all application components.
func (a *Application) Shutdown(ctx context.Context) {
	if a == nil {
		return
	}
	log := logger.OrNop(a.Log)

	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Shutdown(ctx); err != nil {
			log.Warn("module shutdown returned error",
				zap.String("module", mod.Name()),
				zap.Error(err),
			)
		}
	}

	if a.Infra != nil {
		a.Infra.Close()
		log.Info("Datastore closed")
	}
}
