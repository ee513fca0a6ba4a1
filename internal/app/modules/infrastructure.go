package modules

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/config"
	"github.com/lycanzy/experimentdocumentationapp/internal/governance/audit"
	"github.com/lycanzy/experimentdocumentationapp/internal/infrastructure"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/metrics"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
)

// Infrastructure holds shared cross-cutting dependencies for all modules.
// It is a provider, not a Module.
type Infrastructure struct {
	Config      *config.Config
	Log         *zap.Logger
	LogLevel    *zap.AtomicLevel
	DB          *infrastructure.DatabaseClients
	Store       *repository.Store
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	AuditLogger *audit.Logger
}

// NewInfrastructure opens the datastore and builds the shared services.
func NewInfrastructure(ctx context.Context, cfg *config.Config, log *zap.Logger, level *zap.AtomicLevel) (*Infrastructure, error) {
	log = logger.OrNop(log)

	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx, log); err != nil {
			db.Close()
			return nil, err
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Infrastructure{
		Config:      cfg,
		Log:         log,
		LogLevel:    level,
		DB:          db,
		Store:       db.Store,
		Registry:    registry,
		Metrics:     metrics.New(registry),
		AuditLogger: audit.NewLogger(log.Named("audit")),
	}, nil
}

// ServiceDeps returns the dependencies shared by the entity services.
func (i *Infrastructure) ServiceDeps() service.Deps {
	return service.Deps{Store: i.Store, Log: i.Log, Audit: i.AuditLogger}
}

// Close releases infra resources.
func (i *Infrastructure) Close() {
	if i == nil {
		return
	}
	if i.DB != nil {
		i.DB.Close()
	}
}
