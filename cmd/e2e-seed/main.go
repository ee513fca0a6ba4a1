// Package main seeds deterministic fixtures for live end-to-end tests.
//
// This command is test-environment only and is intentionally idempotent.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/config"
	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/governance/audit"
	"github.com/lycanzy/experimentdocumentationapp/internal/infrastructure"
	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/metrics"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
	"github.com/lycanzy/experimentdocumentationapp/internal/usecase"
)

const (
	defaultAdminUsername = "e2e-admin"
	defaultAdminPassword = "e2e-admin-123"
	defaultAdminEmail    = "e2e-admin@localhost"

	defaultExperimentID = "EEE001"
	defaultFlowID       = "EEE001AA"
	defaultStepType     = "ML"
	defaultStepCount    = 3
)

type fixtureConfig struct {
	AdminUsername string
	AdminPassword string
	AdminEmail    string

	ExperimentID string
	FlowID       string
	StepType     string
	StepCount    int
}

type fixtures struct {
	store      *repository.Store
	users      *service.UserService
	stepTypes  *service.StepTypeService
	exps       *service.ExperimentService
	flows      *service.FlowService
	steps      *service.StepService
	createStep *usecase.CreateStepUseCase
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "e2e-seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, _, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx, log); err != nil {
			return err
		}
	}

	fx := loadFixtureConfig()
	if err := newFixtures(db.Store, log).ensure(ctx, fx); err != nil {
		return err
	}

	fmt.Printf("e2e fixtures ready (user=%s experiment=%s flow=%s)\n",
		fx.AdminUsername, fx.ExperimentID, fx.FlowID,
	)
	return nil
}

func newFixtures(store *repository.Store, log *zap.Logger) *fixtures {
	al := audit.NewLogger(log)
	deps := service.Deps{Store: store, Log: log, Audit: al}
	m := metrics.New(prometheus.NewRegistry())
	graph := service.NewStepGraphManager(log, m)
	return &fixtures{
		store:      store,
		users:      service.NewUserService(deps),
		stepTypes:  service.NewStepTypeService(deps),
		exps:       service.NewExperimentService(deps),
		flows:      service.NewFlowService(deps),
		steps:      service.NewStepService(deps, graph),
		createStep: usecase.NewCreateStepUseCase(store, service.NewIdentifierGenerator(), graph, log, m).WithAuditLogger(al),
	}
}

func (f *fixtures) ensure(ctx context.Context, fx fixtureConfig) error {
	admin, err := f.ensureAdminUser(ctx, fx)
	if err != nil {
		return fmt.Errorf("ensure admin user: %w", err)
	}
	if err := f.ensureStepType(ctx, admin, fx.StepType); err != nil {
		return fmt.Errorf("ensure step type: %w", err)
	}
	if err := f.ensureExperiment(ctx, admin, fx); err != nil {
		return fmt.Errorf("ensure experiment: %w", err)
	}
	if err := f.ensureFlow(ctx, admin, fx); err != nil {
		return fmt.Errorf("ensure flow: %w", err)
	}
	if err := f.ensureStepChain(ctx, admin, fx); err != nil {
		return fmt.Errorf("ensure steps: %w", err)
	}
	return nil
}

func loadFixtureConfig() fixtureConfig {
	count, err := strconv.Atoi(envOrDefault("E2E_STEP_COUNT", strconv.Itoa(defaultStepCount)))
	if err != nil || count < 0 {
		count = defaultStepCount
	}
	return fixtureConfig{
		AdminUsername: envOrDefault("E2E_ADMIN_USERNAME", defaultAdminUsername),
		AdminPassword: envOrDefault("E2E_ADMIN_PASSWORD", defaultAdminPassword),
		AdminEmail:    envOrDefault("E2E_ADMIN_EMAIL", defaultAdminEmail),
		ExperimentID:  envOrDefault("E2E_EXPERIMENT_ID", defaultExperimentID),
		FlowID:        envOrDefault("E2E_FLOW_ID", defaultFlowID),
		StepType:      envOrDefault("E2E_STEP_TYPE", defaultStepType),
		StepCount:     count,
	}
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func (f *fixtures) ensureAdminUser(ctx context.Context, fx fixtureConfig) (domain.Actor, error) {
	system := domain.Actor{Username: "e2e-seed", IsAdmin: true}
	_, err := f.users.Create(ctx, system, domain.UserInput{
		Username:    fx.AdminUsername,
		DisplayName: "E2E Administrator",
		Email:       fx.AdminEmail,
		Password:    fx.AdminPassword,
		IsAdmin:     true,
	})
	if err != nil && !apperrors.HasCode(err, apperrors.CodeUserExists) {
		return domain.Actor{}, err
	}
	user, err := f.store.Queries().GetUserByUsername(ctx, fx.AdminUsername)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("load admin: %w", err)
	}
	return domain.Actor{UserID: user.ID, Username: user.Username, IsAdmin: true}, nil
}

func (f *fixtures) ensureStepType(ctx context.Context, actor domain.Actor, code string) error {
	_, err := f.stepTypes.Create(ctx, actor, domain.StepTypeInput{Code: code, Name: "E2E " + code})
	if apperrors.HasCode(err, apperrors.CodeStepTypeExists) {
		return nil
	}
	return err
}

func (f *fixtures) ensureExperiment(ctx context.Context, actor domain.Actor, fx fixtureConfig) error {
	_, err := f.exps.Create(ctx, actor, domain.ExperimentInput{ID: fx.ExperimentID, Title: "E2E experiment"})
	if apperrors.HasCode(err, apperrors.CodeExperimentExists) {
		return nil
	}
	return err
}

func (f *fixtures) ensureFlow(ctx context.Context, actor domain.Actor, fx fixtureConfig) error {
	_, err := f.flows.Create(ctx, actor, domain.FlowInput{
		ID:           fx.FlowID,
		ExperimentID: fx.ExperimentID,
		Title:        "E2E flow",
	})
	if apperrors.HasCode(err, apperrors.CodeFlowExists) {
		return nil
	}
	return err
}

// ensureStepChain creates a linked chain of steps when the flow has none.
func (f *fixtures) ensureStepChain(ctx context.Context, actor domain.Actor, fx fixtureConfig) error {
	existing, err := f.steps.ListByFlow(ctx, actor, fx.FlowID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	previous := ""
	for i := 0; i < fx.StepCount; i++ {
		out, err := f.createStep.Execute(ctx, usecase.CreateStepInput{
			FlowID:         fx.FlowID,
			StepTypeCode:   fx.StepType,
			PreviousStepID: previous,
			Title:          fmt.Sprintf("E2E step %d", i+1),
			Date:           "2024-01-01",
			People:         []string{actor.UserID},
			Actor:          actor,
		})
		if err != nil {
			return err
		}
		previous = out.Step.ID
	}
	return nil
}
