// Package testutil opens isolated, migrated stores for tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/lycanzy/experimentdocumentationapp/internal/infrastructure"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// OpenSQLiteStore opens a migrated store on a fresh SQLite file in the
// test's temp dir.
func OpenSQLiteStore(t *testing.T) *repository.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "experiments.db")
	db, err := sql.Open("sqlite", infrastructure.SQLiteDSN(path))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store := repository.NewStore(db, repository.SQLite)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate sqlite schema: %v", err)
	}
	return store
}

// ForEachStore runs fn against SQLite and, when TEST_DATABASE_URL is set,
// against PostgreSQL.
func ForEachStore(t *testing.T, prefix string, fn func(t *testing.T, store *repository.Store)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		fn(t, OpenSQLiteStore(t))
	})
	if PostgresDSN() != "" {
		t.Run("postgres", func(t *testing.T) {
			fn(t, OpenPostgresStore(t, prefix))
		})
	}
}
