// Package modules contains the domain-oriented dependency units wired by the
// composition root.
package modules

import (
	"context"

	"github.com/lycanzy/experimentdocumentationapp/internal/api/handlers"
)

// Module represents a domain-specific dependency unit in the composition root.
type Module interface {
	// Name returns a stable module identifier for logging.
	Name() string

	// ContributeServerDeps injects module-owned dependencies into the HTTP server deps.
	ContributeServerDeps(*handlers.ServerDeps)

	// Shutdown performs module-local graceful cleanup.
	Shutdown(context.Context) error
}

// ServerDepsContributor is implemented by modules that expose handlers deps.
type ServerDepsContributor interface {
	ContributeServerDeps(*handlers.ServerDeps)
}
