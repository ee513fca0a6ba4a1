package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
)

const flowColumns = `id, experiment_id, title, description, created_at, updated_at`

func scanFlow(row interface{ Scan(...any) error }) (domain.Flow, error) {
	var f domain.Flow
	err := row.Scan(&f.ID, &f.ExperimentID, &f.Title, &f.Description, sqlTime{&f.CreatedAt}, sqlTime{&f.UpdatedAt})
	return f, err
}

// CreateFlow inserts f and stamps its timestamps.
func (q *Queries) CreateFlow(ctx context.Context, f *domain.Flow) error {
	f.CreatedAt = now()
	f.UpdatedAt = f.CreatedAt
	_, err := q.exec(ctx,
		`INSERT INTO flows (`+flowColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.ExperimentID, f.Title, f.Description, f.CreatedAt, f.UpdatedAt)
	if IsUniqueViolation(err) {
		return fmt.Errorf("flow %s: %w", f.ID, domain.ErrAlreadyExists)
	}
	if IsForeignKeyViolation(err) {
		return domain.NotFoundError{Entity: "experiment", ID: f.ExperimentID}
	}
	if err != nil {
		return fmt.Errorf("insert flow %s: %w", f.ID, err)
	}
	return nil
}

// GetFlow returns the flow with id.
func (q *Queries) GetFlow(ctx context.Context, id string) (domain.Flow, error) {
	f, err := scanFlow(q.queryRow(ctx, `SELECT `+flowColumns+` FROM flows WHERE id = ?`, id))
	if err != nil {
		return domain.Flow{}, notFound(err, "flow", id)
	}
	return f, nil
}

// LockFlow takes a row lock on the flow for the rest of the transaction so
// that graph changes inside one flow serialize. SQLite write transactions
// are already exclusive, so there it only checks existence.
func (q *Queries) LockFlow(ctx context.Context, id string) error {
	query := `SELECT id FROM flows WHERE id = ?`
	if q.dialect == Postgres {
		query += ` FOR UPDATE`
	}
	var got string
	if err := q.queryRow(ctx, query, id).Scan(&got); err != nil {
		return notFound(err, "flow", id)
	}
	return nil
}

// ListFlowsByExperiment returns the flows of an experiment ordered by id.
func (q *Queries) ListFlowsByExperiment(ctx context.Context, experimentID string) ([]domain.Flow, error) {
	rows, err := q.query(ctx, `SELECT `+flowColumns+` FROM flows WHERE experiment_id = ? ORDER BY id`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("list flows of %s: %w", experimentID, err)
	}
	defer rows.Close()

	var out []domain.Flow
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flow: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpdateFlow writes title and description.
func (q *Queries) UpdateFlow(ctx context.Context, f *domain.Flow) error {
	f.UpdatedAt = now()
	res, err := q.exec(ctx,
		`UPDATE flows SET title = ?, description = ?, updated_at = ? WHERE id = ?`,
		f.Title, f.Description, f.UpdatedAt, f.ID)
	if err != nil {
		return fmt.Errorf("update flow %s: %w", f.ID, err)
	}
	return requireAffected(res, "flow", f.ID)
}

// DeleteFlow removes the flow and, through cascades, its steps.
func (q *Queries) DeleteFlow(ctx context.Context, id string) error {
	res, err := q.exec(ctx, `DELETE FROM flows WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete flow %s: %w", id, err)
	}
	return requireAffected(res, "flow", id)
}

func requireAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
