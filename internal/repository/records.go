package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
)

// CreateSample inserts s and sets its id.
func (q *Queries) CreateSample(ctx context.Context, s *domain.Sample) error {
	err := q.queryRow(ctx,
		`INSERT INTO samples (step_id, name, description) VALUES (?, ?, ?) RETURNING id`,
		s.StepID, s.Name, s.Description).Scan(&s.ID)
	err = classify(q.dialect, err)
	if IsForeignKeyViolation(err) {
		return domain.NotFoundError{Entity: "step", ID: s.StepID}
	}
	if err != nil {
		return fmt.Errorf("insert sample on %s: %w", s.StepID, err)
	}
	return nil
}

// GetSample returns the sample with id.
func (q *Queries) GetSample(ctx context.Context, id int64) (domain.Sample, error) {
	var s domain.Sample
	err := q.queryRow(ctx, `SELECT id, step_id, name, description FROM samples WHERE id = ?`, id).
		Scan(&s.ID, &s.StepID, &s.Name, &s.Description)
	if err != nil {
		return domain.Sample{}, notFound(err, "sample", strconv.FormatInt(id, 10))
	}
	return s, nil
}

// ListSamplesByStep returns the samples of a step in insertion order.
func (q *Queries) ListSamplesByStep(ctx context.Context, stepID string) ([]domain.Sample, error) {
	rows, err := q.query(ctx, `SELECT id, step_id, name, description FROM samples WHERE step_id = ? ORDER BY id`, stepID)
	if err != nil {
		return nil, fmt.Errorf("list samples of %s: %w", stepID, err)
	}
	defer rows.Close()

	var out []domain.Sample
	for rows.Next() {
		var s domain.Sample
		if err := rows.Scan(&s.ID, &s.StepID, &s.Name, &s.Description); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteSample removes the sample with id.
func (q *Queries) DeleteSample(ctx context.Context, id int64) error {
	res, err := q.exec(ctx, `DELETE FROM samples WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete sample %d: %w", id, err)
	}
	return requireAffected(res, "sample", strconv.FormatInt(id, 10))
}

// CreateMetadata inserts m and sets its id.
func (q *Queries) CreateMetadata(ctx context.Context, m *domain.Metadata) error {
	err := q.queryRow(ctx,
		`INSERT INTO metadata (step_id, key, value) VALUES (?, ?, ?) RETURNING id`,
		m.StepID, m.Key, m.Value).Scan(&m.ID)
	err = classify(q.dialect, err)
	if IsForeignKeyViolation(err) {
		return domain.NotFoundError{Entity: "step", ID: m.StepID}
	}
	if err != nil {
		return fmt.Errorf("insert metadata on %s: %w", m.StepID, err)
	}
	return nil
}

// GetMetadata returns the metadata entry with id.
func (q *Queries) GetMetadata(ctx context.Context, id int64) (domain.Metadata, error) {
	var m domain.Metadata
	err := q.queryRow(ctx, `SELECT id, step_id, key, value FROM metadata WHERE id = ?`, id).
		Scan(&m.ID, &m.StepID, &m.Key, &m.Value)
	if err != nil {
		return domain.Metadata{}, notFound(err, "metadata", strconv.FormatInt(id, 10))
	}
	return m, nil
}

// ListMetadataByStep returns the metadata of a step in insertion order.
func (q *Queries) ListMetadataByStep(ctx context.Context, stepID string) ([]domain.Metadata, error) {
	rows, err := q.query(ctx, `SELECT id, step_id, key, value FROM metadata WHERE step_id = ? ORDER BY id`, stepID)
	if err != nil {
		return nil, fmt.Errorf("list metadata of %s: %w", stepID, err)
	}
	defer rows.Close()

	var out []domain.Metadata
	for rows.Next() {
		var m domain.Metadata
		if err := rows.Scan(&m.ID, &m.StepID, &m.Key, &m.Value); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteMetadata removes the metadata entry with id.
func (q *Queries) DeleteMetadata(ctx context.Context, id int64) error {
	res, err := q.exec(ctx, `DELETE FROM metadata WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete metadata %d: %w", id, err)
	}
	return requireAffected(res, "metadata", strconv.FormatInt(id, 10))
}
