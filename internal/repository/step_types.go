package repository

import (
	"context"
	"fmt"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
)

const stepTypeColumns = `code, name, description, created_at, updated_at`

func scanStepType(row interface{ Scan(...any) error }) (domain.StepType, error) {
	var st domain.StepType
	err := row.Scan(&st.Code, &st.Name, &st.Description, sqlTime{&st.CreatedAt}, sqlTime{&st.UpdatedAt})
	return st, err
}

// CreateStepType inserts st and stamps its timestamps.
func (q *Queries) CreateStepType(ctx context.Context, st *domain.StepType) error {
	st.CreatedAt = now()
	st.UpdatedAt = st.CreatedAt
	_, err := q.exec(ctx,
		`INSERT INTO step_types (`+stepTypeColumns+`) VALUES (?, ?, ?, ?, ?)`,
		st.Code, st.Name, st.Description, st.CreatedAt, st.UpdatedAt)
	if IsUniqueViolation(err) {
		return fmt.Errorf("step type %s: %w", st.Code, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert step type %s: %w", st.Code, err)
	}
	return nil
}

// GetStepType returns the step type with code.
func (q *Queries) GetStepType(ctx context.Context, code string) (domain.StepType, error) {
	st, err := scanStepType(q.queryRow(ctx, `SELECT `+stepTypeColumns+` FROM step_types WHERE code = ?`, code))
	if err != nil {
		return domain.StepType{}, notFound(err, "step type", code)
	}
	return st, nil
}

// ListStepTypes returns all step types ordered by code.
func (q *Queries) ListStepTypes(ctx context.Context) ([]domain.StepType, error) {
	rows, err := q.query(ctx, `SELECT `+stepTypeColumns+` FROM step_types ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list step types: %w", err)
	}
	defer rows.Close()

	var out []domain.StepType
	for rows.Next() {
		st, err := scanStepType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan step type: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// UpdateStepType writes name and description. The code never changes.
func (q *Queries) UpdateStepType(ctx context.Context, st *domain.StepType) error {
	st.UpdatedAt = now()
	res, err := q.exec(ctx,
		`UPDATE step_types SET name = ?, description = ?, updated_at = ? WHERE code = ?`,
		st.Name, st.Description, st.UpdatedAt, st.Code)
	if err != nil {
		return fmt.Errorf("update step type %s: %w", st.Code, err)
	}
	return requireAffected(res, "step type", st.Code)
}

// DeleteStepType removes an unreferenced step type.
func (q *Queries) DeleteStepType(ctx context.Context, code string) error {
	res, err := q.exec(ctx, `DELETE FROM step_types WHERE code = ?`, code)
	if IsForeignKeyViolation(err) {
		return fmt.Errorf("step type %s: %w", code, domain.ErrStepTypeInUse)
	}
	if err != nil {
		return fmt.Errorf("delete step type %s: %w", code, err)
	}
	return requireAffected(res, "step type", code)
}

// CountStepsOfType returns how many steps reference code.
func (q *Queries) CountStepsOfType(ctx context.Context, code string) (int, error) {
	var n int
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM steps WHERE step_type_code = ?`, code).Scan(&n); err != nil {
		return 0, fmt.Errorf("count steps of type %s: %w", code, err)
	}
	return n, nil
}
