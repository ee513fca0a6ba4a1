// Package main seeds the step type catalogue and initial users.
//
// Usage: seed [catalogue.yaml]. Without an argument the embedded default
// catalogue is used. Seeding is idempotent: existing step types and users
// are left untouched.
package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lycanzy/experimentdocumentationapp/internal/config"
	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/governance/audit"
	"github.com/lycanzy/experimentdocumentationapp/internal/infrastructure"
	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
)

//go:embed catalogue.yaml
var defaultCatalogue []byte

var seedActor = domain.Actor{Username: "system-seed", IsAdmin: true}

type catalogue struct {
	StepTypes []catalogueStepType `yaml:"step_types"`
	Users     []catalogueUser     `yaml:"users"`
}

type catalogueStepType struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type catalogueUser struct {
	Username    string `yaml:"username"`
	DisplayName string `yaml:"display_name"`
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	IsAdmin     bool   `yaml:"is_admin"`
}

type seedResult struct {
	Created int
	Skipped int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
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

	raw := defaultCatalogue
	if len(os.Args) > 1 {
		if raw, err = os.ReadFile(os.Args[1]); err != nil {
			return fmt.Errorf("read catalogue: %w", err)
		}
	}
	cat, err := parseCatalogue(raw)
	if err != nil {
		return err
	}

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

	log.Info("Starting data seeding...")
	deps := service.Deps{Store: db.Store, Log: log, Audit: audit.NewLogger(log)}
	result, err := seed(ctx, log, service.NewStepTypeService(deps), service.NewUserService(deps), cat)
	if err != nil {
		return err
	}
	log.Info("Data seeding completed successfully",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return nil
}

func parseCatalogue(raw []byte) (catalogue, error) {
	var cat catalogue
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return catalogue{}, fmt.Errorf("parse catalogue: %w", err)
	}
	return cat, nil
}

// seed creates every catalogue entry that does not exist yet. Users without a
// password get a generated one, which is logged once.
func seed(ctx context.Context, log *zap.Logger, stepTypes *service.StepTypeService, users *service.UserService, cat catalogue) (seedResult, error) {
	var res seedResult

	for _, st := range cat.StepTypes {
		_, err := stepTypes.Create(ctx, seedActor, domain.StepTypeInput{
			Code:        st.Code,
			Name:        st.Name,
			Description: st.Description,
		})
		switch {
		case apperrors.HasCode(err, apperrors.CodeStepTypeExists):
			log.Info("Step type already exists, skipping", zap.String("code", st.Code))
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("create step type %s: %w", st.Code, err)
		default:
			log.Info("Seeded step type", zap.String("code", st.Code))
			res.Created++
		}
	}

	for _, u := range cat.Users {
		password, generated := u.Password, false
		if password == "" {
			password, generated = uuid.NewString(), true
		}
		_, err := users.Create(ctx, seedActor, domain.UserInput{
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Email:       u.Email,
			Password:    password,
			IsAdmin:     u.IsAdmin,
		})
		switch {
		case apperrors.HasCode(err, apperrors.CodeUserExists):
			log.Info("User already exists, skipping", zap.String("username", u.Username))
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("create user %s: %w", u.Username, err)
		default:
			fields := []zap.Field{zap.String("username", u.Username), zap.Bool("is_admin", u.IsAdmin)}
			if generated {
				fields = append(fields, zap.String("generated_password", password))
			}
			log.Info("Seeded user", fields...)
			res.Created++
		}
	}
	return res, nil
}
