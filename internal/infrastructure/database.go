// Package infrastructure provides database and connection pool setup.
//
// PostgreSQL runs on a pgxpool; the repository talks to it through the
// *sql.DB returned by stdlib.OpenDBFromPool so both share one pool.
// SQLite runs in-process through modernc.org/sqlite.
package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/lycanzy/experimentdocumentationapp/internal/config"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// DatabaseClients contains all database-related clients.
//
// Use this struct to manage connection pools.
// Do not create separate sql.Open() and pgxpool.New() (doubles connections).
type DatabaseClients struct {
	// Pool is the PostgreSQL connection pool; nil for SQLite.
	Pool *pgxpool.Pool

	// DB is the *sql.DB used by the repository.
	DB *sql.DB

	// Store is the repository bound to DB.
	Store *repository.Store
}

// NewDatabaseClients opens the configured datastore.
func NewDatabaseClients(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DatabaseClients, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return openSQLite(ctx, cfg, log)
	case config.DriverPostgres, "":
		return openPostgres(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DatabaseClients, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	poolConfig.HealthCheckPeriod = time.Minute

	// Set UTC timezone on each new connection
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET timezone = 'UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)

	log.Info("Database connection pool created",
		zap.String("driver", config.DriverPostgres),
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns),
	)

	return &DatabaseClients{
		Pool:  pool,
		DB:    db,
		Store: repository.NewStore(db, repository.Postgres),
	}, nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*DatabaseClients, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = "experiments.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	db, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; transactions must only use their own Queries.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	log.Info("SQLite database opened", zap.String("driver", config.DriverSQLite), zap.String("path", path))

	return &DatabaseClients{
		DB:    db,
		Store: repository.NewStore(db, repository.SQLite),
	}, nil
}

// SQLiteDSN builds a modernc DSN with foreign keys enforced and write
// transactions taken eagerly.
func SQLiteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// AutoMigrate applies the embedded schema.
func (c *DatabaseClients) AutoMigrate(ctx context.Context, log *zap.Logger) error {
	log.Info("Running schema migration...", zap.String("dialect", c.Store.Dialect().String()))
	if err := c.Store.Migrate(ctx); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	log.Info("Schema migration completed")
	return nil
}

// Ping checks the datastore, preferring the pool when present.
func (c *DatabaseClients) Ping(ctx context.Context) error {
	if c.Pool != nil {
		return c.Pool.Ping(ctx)
	}
	return c.DB.PingContext(ctx)
}

// Close closes all connection pools gracefully.
func (c *DatabaseClients) Close() {
	if c.DB != nil {
		_ = c.DB.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
