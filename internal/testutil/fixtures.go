package testutil

import (
	"context"
	"testing"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
)

// Fixture identifiers.
const (
	ExperimentID = "ABC123"
	FlowID       = "ABC123XY"
	OtherFlowID  = "ABC123XZ"
)

// Fixture is the baseline hierarchy most service tests start from.
type Fixture struct {
	Owner    domain.Actor
	Stranger domain.Actor
	Admin    domain.Actor
}

// Seed creates three users (ada owns the experiment, bob does not, root is
// an admin), step types ML and CT, experiment ABC123 and flows ABC123XY and
// ABC123XZ.
func Seed(t *testing.T, store *repository.Store) Fixture {
	t.Helper()
	ctx := context.Background()
	q := store.Queries()

	users := []domain.User{
		{ID: "u-ada", Username: "ada", DisplayName: "Ada", PasswordHash: "x"},
		{ID: "u-bob", Username: "bob", DisplayName: "Bob", PasswordHash: "x"},
		{ID: "u-root", Username: "root", DisplayName: "Root", PasswordHash: "x", IsAdmin: true},
	}
	for i := range users {
		if err := q.CreateUser(ctx, &users[i]); err != nil {
			t.Fatalf("seed user %s: %v", users[i].Username, err)
		}
	}
	for _, st := range []domain.StepType{{Code: "ML", Name: "Milling"}, {Code: "CT", Name: "Cutting"}} {
		st := st
		if err := q.CreateStepType(ctx, &st); err != nil {
			t.Fatalf("seed step type %s: %v", st.Code, err)
		}
	}
	if err := q.CreateExperiment(ctx, &domain.Experiment{ID: ExperimentID, Title: "Alloy study", CreatedBy: "u-ada"}); err != nil {
		t.Fatalf("seed experiment: %v", err)
	}
	for _, id := range []string{FlowID, OtherFlowID} {
		if err := q.CreateFlow(ctx, &domain.Flow{ID: id, ExperimentID: ExperimentID, Title: "Flow " + id}); err != nil {
			t.Fatalf("seed flow %s: %v", id, err)
		}
	}

	return Fixture{
		Owner:    domain.Actor{UserID: "u-ada", Username: "ada"},
		Stranger: domain.Actor{UserID: "u-bob", Username: "bob"},
		Admin:    domain.Actor{UserID: "u-root", Username: "root", IsAdmin: true},
	}
}

// InsertStep stores a step directly, bypassing identifier generation.
func InsertStep(t *testing.T, store *repository.Store, id, previous string) domain.Step {
	t.Helper()
	s := domain.Step{ID: id, FlowID: id[:8], StepTypeCode: id[9:11], Title: "Step " + id, Date: "2024-03-01"}
	if previous != "" {
		s.PreviousStepID = &previous
	}
	if err := store.Queries().CreateStep(context.Background(), &s); err != nil {
		t.Fatalf("insert step %s: %v", id, err)
	}
	return s
}
