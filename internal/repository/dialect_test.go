package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := `SELECT id FROM steps WHERE flow_id = ? AND step_type_code = ? LIMIT ?`
	assert.Equal(t, `SELECT id FROM steps WHERE flow_id = $1 AND step_type_code = $2 LIMIT $3`, Postgres.Rebind(q))
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, `SELECT 1`, Postgres.Rebind(`SELECT 1`))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("postgres")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	d, err = ParseDialect("SQLite")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)
	assert.Equal(t, "sqlite", d.String())

	_, err = ParseDialect("mysql")
	require.Error(t, err)
}

func TestClassify_Postgres(t *testing.T) {
	unique := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"})
	fk := &pgconn.PgError{Code: "23503"}
	other := &pgconn.PgError{Code: "42P01"}

	assert.True(t, IsUniqueViolation(classify(Postgres, unique)))
	assert.True(t, IsForeignKeyViolation(classify(Postgres, fk)))
	assert.False(t, IsUniqueViolation(classify(Postgres, other)))
	assert.False(t, IsForeignKeyViolation(classify(Postgres, other)))

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(classify(Postgres, unique), &pgErr), "driver error stays reachable")
	assert.NoError(t, classify(Postgres, nil))
}
