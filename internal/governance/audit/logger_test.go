package audit_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/governance/audit"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
	"github.com/lycanzy/experimentdocumentationapp/internal/testutil"
)

func TestLogger_LogStepOperation(t *testing.T) {
	store := testutil.OpenSQLiteStore(t)
	l := audit.NewLogger(zap.NewNop())
	ctx := context.Background()

	err := store.RunInTx(ctx, func(q *repository.Queries) error {
		return l.LogStepOperation(ctx, q, "create", "ABC123XY-ML00",
			domain.Actor{UserID: "u-1", Username: "ada"},
			map[string]interface{}{"step_type": "ML"})
	})
	require.NoError(t, err)

	logs, total, err := l.List(ctx, store.Queries(), repository.AuditFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	entry := logs[0]
	assert.Equal(t, "step.create", entry.Action)
	assert.Equal(t, "step", entry.ResourceType)
	assert.Equal(t, "ada", entry.Actor)
	assert.True(t, strings.HasPrefix(entry.ID, "audit-"))

	var details map[string]string
	require.NoError(t, json.Unmarshal([]byte(entry.Details), &details))
	assert.Equal(t, "ML", details["step_type"])
}

func TestLogger_RollsBackWithTransaction(t *testing.T) {
	store := testutil.OpenSQLiteStore(t)
	l := audit.NewLogger(nil)
	ctx := context.Background()

	_ = store.RunInTx(ctx, func(q *repository.Queries) error {
		require.NoError(t, l.LogAction(ctx, q, "flow.delete", "flow", "ABC123XY", domain.Actor{}, nil))
		return domain.ErrNotFound
	})

	_, total, err := l.List(ctx, store.Queries(), repository.AuditFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}
