package repository

import (
	"context"
	"fmt"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
)

const userColumns = `id, username, display_name, email, password_hash, is_admin, created_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.PasswordHash, &u.IsAdmin, sqlTime{&u.CreatedAt})
	return u, err
}

// CreateUser inserts u. CreatedAt is set when zero.
func (q *Queries) CreateUser(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now()
	}
	_, err := q.exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.DisplayName, u.Email, u.PasswordHash, u.IsAdmin, u.CreatedAt)
	if IsUniqueViolation(err) {
		return fmt.Errorf("user %q: %w", u.Username, domain.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert user %s: %w", u.Username, err)
	}
	return nil
}

// GetUser returns the user with id.
func (q *Queries) GetUser(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(q.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return domain.User{}, notFound(err, "user", id)
	}
	return u, nil
}

// GetUserByUsername returns the user with username.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	u, err := scanUser(q.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		return domain.User{}, notFound(err, "user", username)
	}
	return u, nil
}

// ListUsers returns all users ordered by username.
func (q *Queries) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := q.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountUsers returns how many of ids exist.
func (q *Queries) CountUsers(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	var n int
	err := q.queryRow(ctx, `SELECT COUNT(*) FROM users WHERE id IN (`+placeholders(len(ids))+`)`, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
