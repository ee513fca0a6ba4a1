package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect selects dialect-specific SQL.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// Rebind converts ? placeholders to $n for PostgreSQL.
func (d Dialect) Rebind(query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Constraint classes surfaced by the repository.
var (
	errUniqueViolation     = errors.New("unique constraint violation")
	errForeignKeyViolation = errors.New("foreign key constraint violation")
)

// constraintError keeps the driver error while adding a class for errors.Is.
type constraintError struct {
	class error
	err   error
}

func (e *constraintError) Error() string { return e.err.Error() }

func (e *constraintError) Unwrap() []error { return []error{e.class, e.err} }

// classify tags driver constraint errors so callers can match them without
// importing driver packages.
func classify(d Dialect, err error) error {
	if err == nil {
		return nil
	}
	var ce *constraintError
	if errors.As(err, &ce) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &constraintError{class: errUniqueViolation, err: err}
		case "23503":
			return &constraintError{class: errForeignKeyViolation, err: err}
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, code == sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return &constraintError{class: errUniqueViolation, err: err}
		case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return &constraintError{class: errForeignKeyViolation, err: err}
		case code&0xff == sqlite3.SQLITE_CONSTRAINT:
			msg := liteErr.Error()
			if strings.Contains(msg, "UNIQUE constraint failed") {
				return &constraintError{class: errUniqueViolation, err: err}
			}
			if strings.Contains(msg, "FOREIGN KEY constraint failed") {
				return &constraintError{class: errForeignKeyViolation, err: err}
			}
		}
	}
	return err
}

// IsUniqueViolation reports whether err is a primary key or unique violation.
func IsUniqueViolation(err error) bool { return errors.Is(err, errUniqueViolation) }

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool { return errors.Is(err, errForeignKeyViolation) }
