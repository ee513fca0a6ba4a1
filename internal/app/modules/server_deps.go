package modules

import (
	"strings"

	"github.com/lycanzy/experimentdocumentationapp/internal/api/handlers"
	"github.com/lycanzy/experimentdocumentationapp/internal/api/middleware"
	"github.com/lycanzy/experimentdocumentationapp/internal/config"
)

// TokenIssuer is the iss claim of every access token.
const TokenIssuer = "experimentdocs"

// NewJWTConfig builds the token configuration from the security settings.
func NewJWTConfig(cfg *config.Config) middleware.JWTConfig {
	verificationKeys := make([][]byte, 0, len(cfg.Security.JWTVerificationKeys))
	for _, key := range cfg.Security.JWTVerificationKeys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		verificationKeys = append(verificationKeys, []byte(key))
	}
	return middleware.JWTConfig{
		SigningKey:       []byte(cfg.Security.SessionSecret),
		VerificationKeys: verificationKeys,
		Issuer:           TokenIssuer,
		ExpiresIn:        cfg.Session.Lifetime,
	}
}

// NewServerDeps builds base server deps then lets each module contribute explicit wiring.
func NewServerDeps(cfg *config.Config, infra *Infrastructure, mods []Module) handlers.ServerDeps {
	deps := handlers.ServerDeps{
		Store:    infra.Store,
		DB:       infra.DB,
		JWTCfg:   NewJWTConfig(cfg),
		Audit:    infra.AuditLogger,
		LogLevel: infra.LogLevel,
		Log:      infra.Log,
	}
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		contributor, ok := mod.(ServerDepsContributor)
		if !ok {
			continue
		}
		contributor.ContributeServerDeps(&deps)
	}
	return deps
}
