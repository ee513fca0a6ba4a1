// Package audit implements the audit logging service.
//
// Audit logs are append-only records. Entries are written through the
// caller's transaction so they commit or roll back with the change they
// describe.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/logger"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// Logger writes audit records.
type Logger struct {
	log *zap.Logger
}

// NewLogger creates a new audit Logger.
func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: logger.OrNop(log)}
}

// LogAction records an auditable action on q.
func (l *Logger) LogAction(ctx context.Context, q *repository.Queries, action, resourceType, resourceID string, actor domain.Actor, details map[string]interface{}) error {
	entry := &domain.AuditLog{
		ID:           generateAuditID(),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Actor:        actorName(actor),
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
		entry.Details = string(raw)
	}

	if err := q.InsertAuditLog(ctx, entry); err != nil {
		logger.FromContext(ctx, l.log).Error("Failed to write audit log",
			zap.String("action", action),
			zap.String("resource_type", resourceType),
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// LogStepOperation records a step operation.
func (l *Logger) LogStepOperation(ctx context.Context, q *repository.Queries, operation, stepID string, actor domain.Actor, details map[string]interface{}) error {
	return l.LogAction(ctx, q, "step."+operation, "step", stepID, actor, details)
}

// List returns audit entries, newest first.
func (l *Logger) List(ctx context.Context, q *repository.Queries, filter repository.AuditFilter) ([]domain.AuditLog, int, error) {
	return q.ListAuditLogs(ctx, filter)
}

func actorName(a domain.Actor) string {
	if a.Username != "" {
		return a.Username
	}
	if a.UserID != "" {
		return a.UserID
	}
	return "system"
}

func generateAuditID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return fmt.Sprintf("audit-%s", id.String())
}
