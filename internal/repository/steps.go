package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
)

const stepColumns = `id, flow_id, step_type_code, previous_step_id, title, description, step_date, created_at, updated_at`

func scanStep(row interface{ Scan(...any) error }) (domain.Step, error) {
	var (
		s    domain.Step
		prev sql.NullString
	)
	err := row.Scan(&s.ID, &s.FlowID, &s.StepTypeCode, &prev, &s.Title, &s.Description,
		sqlDate{&s.Date}, sqlTime{&s.CreatedAt}, sqlTime{&s.UpdatedAt})
	if prev.Valid && prev.String != "" {
		s.PreviousStepID = &prev.String
	}
	return s, err
}

func collectSteps(rows *sql.Rows) ([]domain.Step, error) {
	defer rows.Close()
	var out []domain.Step
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateStep inserts s. A primary key collision is reported as
// domain.ErrDuplicateIdentifier so the caller can retry with a fresh number.
func (q *Queries) CreateStep(ctx context.Context, s *domain.Step) error {
	s.CreatedAt = now()
	s.UpdatedAt = s.CreatedAt
	_, err := q.exec(ctx,
		`INSERT INTO steps (`+stepColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.FlowID, s.StepTypeCode, nullString(s.PreviousStepID), s.Title, s.Description,
		s.Date, s.CreatedAt, s.UpdatedAt)
	if IsUniqueViolation(err) {
		return fmt.Errorf("step %s: %w", s.ID, domain.ErrDuplicateIdentifier)
	}
	if err != nil {
		return fmt.Errorf("insert step %s: %w", s.ID, err)
	}
	return nil
}

// GetStep returns the step with id.
func (q *Queries) GetStep(ctx context.Context, id string) (domain.Step, error) {
	s, err := scanStep(q.queryRow(ctx, `SELECT `+stepColumns+` FROM steps WHERE id = ?`, id))
	if err != nil {
		return domain.Step{}, notFound(err, "step", id)
	}
	return s, nil
}

// ListStepsByFlow returns the steps of a flow ordered by id.
func (q *Queries) ListStepsByFlow(ctx context.Context, flowID string) ([]domain.Step, error) {
	rows, err := q.query(ctx, `SELECT `+stepColumns+` FROM steps WHERE flow_id = ? ORDER BY id`, flowID)
	if err != nil {
		return nil, fmt.Errorf("list steps of %s: %w", flowID, err)
	}
	return collectSteps(rows)
}

// ListStepIDsByFlowAndType returns the ids of the steps of stepTypeCode in
// flowID.
func (q *Queries) ListStepIDsByFlowAndType(ctx context.Context, flowID, stepTypeCode string) ([]string, error) {
	rows, err := q.query(ctx,
		`SELECT id FROM steps WHERE flow_id = ? AND step_type_code = ? ORDER BY id`,
		flowID, stepTypeCode)
	if err != nil {
		return nil, fmt.Errorf("list step ids of %s/%s: %w", flowID, stepTypeCode, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan step id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ListNextStepIDs returns the ids of the steps whose previous step is id.
func (q *Queries) ListNextStepIDs(ctx context.Context, id string) ([]string, error) {
	rows, err := q.query(ctx, `SELECT id FROM steps WHERE previous_step_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list next steps of %s: %w", id, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var next string
		if err := rows.Scan(&next); err != nil {
			return nil, fmt.Errorf("scan step id: %w", err)
		}
		out = append(out, next)
	}
	return out, rows.Err()
}

// UpdateStep writes the editable fields. Identifier, flow and type are fixed.
func (q *Queries) UpdateStep(ctx context.Context, s *domain.Step) error {
	s.UpdatedAt = now()
	res, err := q.exec(ctx,
		`UPDATE steps SET title = ?, description = ?, step_date = ?, updated_at = ? WHERE id = ?`,
		s.Title, s.Description, s.Date, s.UpdatedAt, s.ID)
	if err != nil {
		return fmt.Errorf("update step %s: %w", s.ID, err)
	}
	return requireAffected(res, "step", s.ID)
}

// SetPreviousStep sets or, with an empty previousID, clears the link.
func (q *Queries) SetPreviousStep(ctx context.Context, id, previousID string) error {
	res, err := q.exec(ctx,
		`UPDATE steps SET previous_step_id = ?, updated_at = ? WHERE id = ?`,
		nullString(&previousID), now(), id)
	if err != nil {
		return fmt.Errorf("set previous step of %s: %w", id, err)
	}
	return requireAffected(res, "step", id)
}

// DeleteStep removes the step. Samples, metadata and people rows cascade and
// any step that still names it as previous is unlinked by the schema.
func (q *Queries) DeleteStep(ctx context.Context, id string) error {
	res, err := q.exec(ctx, `DELETE FROM steps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete step %s: %w", id, err)
	}
	return requireAffected(res, "step", id)
}

// SetStepPeople replaces the users assigned to a step.
func (q *Queries) SetStepPeople(ctx context.Context, stepID string, userIDs []string) error {
	if _, err := q.exec(ctx, `DELETE FROM step_people WHERE step_id = ?`, stepID); err != nil {
		return fmt.Errorf("clear people of %s: %w", stepID, err)
	}
	seen := make(map[string]bool, len(userIDs))
	for _, uid := range userIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		_, err := q.exec(ctx, `INSERT INTO step_people (step_id, user_id) VALUES (?, ?)`, stepID, uid)
		if IsForeignKeyViolation(err) {
			return domain.NotFoundError{Entity: "user", ID: uid}
		}
		if err != nil {
			return fmt.Errorf("assign %s to %s: %w", uid, stepID, err)
		}
	}
	return nil
}

// ListStepPeople returns the users assigned to stepIDs, keyed by step id.
func (q *Queries) ListStepPeople(ctx context.Context, stepIDs ...string) (map[string][]domain.User, error) {
	out := make(map[string][]domain.User, len(stepIDs))
	if len(stepIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(stepIDs))
	for i, id := range stepIDs {
		args[i] = id
	}
	rows, err := q.query(ctx,
		`SELECT sp.step_id, u.id, u.username, u.display_name, u.email, u.password_hash, u.is_admin, u.created_at
		FROM step_people sp JOIN users u ON u.id = sp.user_id
		WHERE sp.step_id IN (`+placeholders(len(stepIDs))+`)
		ORDER BY sp.step_id, u.username`, args...)
	if err != nil {
		return nil, fmt.Errorf("list step people: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			stepID string
			u      domain.User
		)
		if err := rows.Scan(&stepID, &u.ID, &u.Username, &u.DisplayName, &u.Email, &u.PasswordHash, &u.IsAdmin, sqlTime{&u.CreatedAt}); err != nil {
			return nil, fmt.Errorf("scan step person: %w", err)
		}
		out[stepID] = append(out[stepID], u)
	}
	return out, rows.Err()
}
