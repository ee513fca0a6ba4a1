package repository

import (
	"context"
	"fmt"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
)

const experimentColumns = `id, title, description, created_by, created_at, updated_at`

func scanExperiment(row interface{ Scan(...any) error }) (domain.Experiment, error) {
	var e domain.Experiment
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.CreatedBy, sqlTime{&e.CreatedAt}, sqlTime{&e.UpdatedAt})
	return e, err
}

// CreateExperiment inserts e and stamps its timestamps.
func (q *Queries) CreateExperiment(ctx context.Context, e *domain.Experiment) error {
	e.CreatedAt = now()
	e.UpdatedAt = e.CreatedAt
	_, err := q.exec(ctx,
		`INSERT INTO experiments (`+experimentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, e.CreatedBy, e.CreatedAt, e.UpdatedAt)
	if IsUniqueViolation(err) {
		return fmt.Errorf("experiment %s: %w", e.ID, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert experiment %s: %w", e.ID, err)
	}
	return nil
}

// GetExperiment returns the experiment with id.
func (q *Queries) GetExperiment(ctx context.Context, id string) (domain.Experiment, error) {
	e, err := scanExperiment(q.queryRow(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE id = ?`, id))
	if err != nil {
		return domain.Experiment{}, notFound(err, "experiment", id)
	}
	return e, nil
}

// ListExperiments returns experiments ordered by id. A non-empty ownerID
// restricts the result to that creator.
func (q *Queries) ListExperiments(ctx context.Context, ownerID string) ([]domain.Experiment, error) {
	query := `SELECT ` + experimentColumns + ` FROM experiments`
	var args []any
	if ownerID != "" {
		query += ` WHERE created_by = ?`
		args = append(args, ownerID)
	}
	rows, err := q.query(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	defer rows.Close()

	var out []domain.Experiment
	for rows.Next() {
		e, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateExperiment writes title and description.
func (q *Queries) UpdateExperiment(ctx context.Context, e *domain.Experiment) error {
	e.UpdatedAt = now()
	res, err := q.exec(ctx,
		`UPDATE experiments SET title = ?, description = ?, updated_at = ? WHERE id = ?`,
		e.Title, e.Description, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("update experiment %s: %w", e.ID, err)
	}
	return requireAffected(res, "experiment", e.ID)
}

// DeleteExperiment removes the experiment; flows, steps, samples and
// metadata cascade.
func (q *Queries) DeleteExperiment(ctx context.Context, id string) error {
	res, err := q.exec(ctx, `DELETE FROM experiments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete experiment %s: %w", id, err)
	}
	return requireAffected(res, "experiment", id)
}
