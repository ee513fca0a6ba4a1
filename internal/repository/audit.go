package repository

import (
	"context"
	"fmt"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
)

// InsertAuditLog appends an audit entry.
func (q *Queries) InsertAuditLog(ctx context.Context, l *domain.AuditLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now()
	}
	_, err := q.exec(ctx,
		`INSERT INTO audit_logs (id, action, resource_type, resource_id, actor, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Action, l.ResourceType, l.ResourceID, l.Actor, l.Details, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log %s: %w", l.Action, err)
	}
	return nil
}

// AuditFilter narrows ListAuditLogs.
type AuditFilter struct {
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}

// ListAuditLogs returns audit entries, newest first, and the total matching.
func (q *Queries) ListAuditLogs(ctx context.Context, f AuditFilter) ([]domain.AuditLog, int, error) {
	where := ` WHERE 1 = 1`
	var args []any
	if f.ResourceType != "" {
		where += ` AND resource_type = ?`
		args = append(args, f.ResourceType)
	}
	if f.ResourceID != "" {
		where += ` AND resource_id = ?`
		args = append(args, f.ResourceID)
	}

	var total int
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := q.query(ctx,
		`SELECT id, action, resource_type, resource_id, actor, details, created_at FROM audit_logs`+where+
			` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(&l.ID, &l.Action, &l.ResourceType, &l.ResourceID, &l.Actor, &l.Details, sqlTime{&l.CreatedAt}); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}
