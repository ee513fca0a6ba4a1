package service_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/metrics"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
	"github.com/lycanzy/experimentdocumentationapp/internal/testutil"
)

type services struct {
	store       *repository.Store
	fx          testutil.Fixture
	experiments *service.ExperimentService
	flows       *service.FlowService
	stepTypes   *service.StepTypeService
	steps       *service.StepService
	records     *service.RecordService
	users       *service.UserService
	dashboard   *service.DashboardService
	graph       *service.StepGraphManager
}

func newServices(t *testing.T, store *repository.Store) *services {
	t.Helper()
	deps := service.Deps{Store: store, Log: zap.NewNop()}
	graph := service.NewStepGraphManager(zap.NewNop(), metrics.New(prometheus.NewRegistry()))
	return &services{
		store:       store,
		fx:          testutil.Seed(t, store),
		experiments: service.NewExperimentService(deps),
		flows:       service.NewFlowService(deps),
		stepTypes:   service.NewStepTypeService(deps),
		steps:       service.NewStepService(deps, graph),
		records:     service.NewRecordService(deps),
		users:       service.NewUserServiceWithCost(deps, bcrypt.MinCost),
		dashboard:   service.NewDashboardService(deps),
		graph:       graph,
	}
}

func TestExperimentService(t *testing.T) {
	testutil.ForEachStore(t, "svc_experiments", func(t *testing.T, store *repository.Store) {
		ctx := context.Background()
		s := newServices(t, store)

		exp, err := s.experiments.Create(ctx, s.fx.Stranger, domain.ExperimentInput{ID: "XYZ001", Title: "Bob's run"})
		require.NoError(t, err)
		assert.Equal(t, "u-bob", exp.CreatedBy)

		_, err = s.experiments.Create(ctx, s.fx.Owner, domain.ExperimentInput{ID: "XYZ001", Title: "Again"})
		requireCode(t, err, apperrors.CodeExperimentExists)

		_, err = s.experiments.Create(ctx, s.fx.Owner, domain.ExperimentInput{ID: "xyz001", Title: "Bad"})
		requireCode(t, err, apperrors.CodeValidationFailed)

		own, err := s.experiments.List(ctx, s.fx.Owner)
		require.NoError(t, err)
		require.Len(t, own, 1)
		assert.Equal(t, testutil.ExperimentID, own[0].ID)

		all, err := s.experiments.List(ctx, s.fx.Admin)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		_, err = s.experiments.Get(ctx, s.fx.Stranger, testutil.ExperimentID)
		requireCode(t, err, apperrors.CodeExperimentNotFound)

		detail, err := s.experiments.Get(ctx, s.fx.Owner, testutil.ExperimentID)
		require.NoError(t, err)
		assert.Len(t, detail.Flows, 2)

		updated, err := s.experiments.Update(ctx, s.fx.Owner, testutil.ExperimentID, service.ExperimentUpdate{Title: ptr("Renamed")})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, detail.Description, updated.Description)

		_, err = s.experiments.Update(ctx, s.fx.Owner, testutil.ExperimentID, service.ExperimentUpdate{Title: ptr("")})
		requireCode(t, err, apperrors.CodeValidationFailed)

		require.NoError(t, s.experiments.Delete(ctx, s.fx.Stranger, "XYZ001"))
		_, err = s.experiments.Get(ctx, s.fx.Admin, "XYZ001")
		requireCode(t, err, apperrors.CodeExperimentNotFound)
	})
}

func TestFlowService(t *testing.T) {
	testutil.ForEachStore(t, "svc_flows", func(t *testing.T, store *repository.Store) {
		ctx := context.Background()
		s := newServices(t, store)

		_, err := s.flows.Create(ctx, s.fx.Owner, domain.FlowInput{ID: "XYZ123AA", ExperimentID: testutil.ExperimentID, Title: "Wrong prefix"})
		appErr := requireCode(t, err, apperrors.CodeValidationFailed)
		require.Len(t, appErr.FieldErrors, 1)
		assert.Equal(t, domain.FieldMismatch, appErr.FieldErrors[0].Code)

		_, err = s.flows.Create(ctx, s.fx.Stranger, domain.FlowInput{ID: "ABC123AA", ExperimentID: testutil.ExperimentID, Title: "Intruder"})
		requireCode(t, err, apperrors.CodeExperimentNotFound)

		flow, err := s.flows.Create(ctx, s.fx.Owner, domain.FlowInput{ID: "ABC123AA", ExperimentID: testutil.ExperimentID, Title: "Third"})
		require.NoError(t, err)
		assert.Equal(t, testutil.ExperimentID, flow.ExperimentID)

		_, err = s.flows.Create(ctx, s.fx.Owner, domain.FlowInput{ID: "ABC123AA", ExperimentID: testutil.ExperimentID, Title: "Again"})
		requireCode(t, err, apperrors.CodeFlowExists)

		flows, err := s.flows.ListByExperiment(ctx, s.fx.Owner, testutil.ExperimentID)
		require.NoError(t, err)
		assert.Equal(t, []string{"ABC123AA", "ABC123XY", "ABC123XZ"}, []string{flows[0].ID, flows[1].ID, flows[2].ID})

		testutil.InsertStep(t, store, "ABC123AA-ML00", "")
		detail, err := s.flows.Get(ctx, s.fx.Owner, "ABC123AA")
		require.NoError(t, err)
		require.Len(t, detail.Steps, 1)
		assert.Empty(t, detail.Steps[0].People)

		_, err = s.flows.Get(ctx, s.fx.Stranger, "ABC123AA")
		requireCode(t, err, apperrors.CodeFlowNotFound)

		_, err = s.flows.Update(ctx, s.fx.Owner, "ABC123AA", service.FlowUpdate{Title: ptr("Renamed")})
		require.NoError(t, err)

		require.NoError(t, s.flows.Delete(ctx, s.fx.Owner, "ABC123AA"))
		_, err = store.Queries().GetStep(ctx, "ABC123AA-ML00")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestStepTypeService(t *testing.T) {
	testutil.ForEachStore(t, "svc_step_types", func(t *testing.T, store *repository.Store) {
		ctx := context.Background()
		s := newServices(t, store)

		st, err := s.stepTypes.Create(ctx, s.fx.Admin, domain.StepTypeInput{Code: "PO", Name: "Polishing"})
		require.NoError(t, err)
		assert.Equal(t, "PO", st.Code)

		_, err = s.stepTypes.Create(ctx, s.fx.Admin, domain.StepTypeInput{Code: "PO", Name: "Again"})
		requireCode(t, err, apperrors.CodeStepTypeExists)

		_, err = s.stepTypes.Create(ctx, s.fx.Admin, domain.StepTypeInput{Code: "P1", Name: "Bad"})
		requireCode(t, err, apperrors.CodeValidationFailed)

		types, err := s.stepTypes.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"CT", "ML", "PO"}, []string{types[0].Code, types[1].Code, types[2].Code})

		updated, err := s.stepTypes.Update(ctx, s.fx.Admin, "PO", service.StepTypeUpdate{Name: ptr("Fine polishing")})
		require.NoError(t, err)
		assert.Equal(t, "Fine polishing", updated.Name)

		testutil.InsertStep(t, store, "ABC123XY-ML00", "")
		err = s.stepTypes.Delete(ctx, s.fx.Admin, "ML")
		requireCode(t, err, apperrors.CodeStepTypeInUse)
		assert.ErrorIs(t, err, domain.ErrStepTypeInUse)

		require.NoError(t, s.stepTypes.Delete(ctx, s.fx.Admin, "PO"))
		_, err = s.stepTypes.Get(ctx, "PO")
		requireCode(t, err, apperrors.CodeStepTypeNotFound)
	})
}

func TestStepService_GetAndUpdate(t *testing.T) {
	testutil.ForEachStore(t, "svc_steps", func(t *testing.T, store *repository.Store) {
		ctx := context.Background()
		s := newServices(t, store)

		testutil.InsertStep(t, store, "ABC123XY-ML00", "")
		testutil.InsertStep(t, store, "ABC123XY-ML01", "ABC123XY-ML00")
		testutil.InsertStep(t, store, "ABC123XY-ML02", "ABC123XY-ML01")
		testutil.InsertStep(t, store, "ABC123XY-CT00", "")

		detail, err := s.steps.Get(ctx, s.fx.Owner, "ABC123XY-ML00")
		require.NoError(t, err)
		assert.Equal(t, []string{"ABC123XY-ML01"}, detail.NextSteps)
		require.Len(t, detail.EligiblePrevious, 1)
		assert.Equal(t, "ABC123XY-CT00", detail.EligiblePrevious[0].ID)
		assert.Empty(t, detail.Samples)

		eligible, err := s.steps.EligiblePrevious(ctx, s.fx.Owner, "ABC123XY-CT00")
		require.NoError(t, err)
		assert.Len(t, eligible, 3)

		_, err = s.steps.Get(ctx, s.fx.Stranger, "ABC123XY-ML00")
		requireCode(t, err, apperrors.CodeStepNotFound)

		people := []string{"u-bob", "u-ada"}
		step, err := s.steps.Update(ctx, s.fx.Owner, "ABC123XY-ML00", service.StepUpdate{
			Title: ptr("Rough milling"), Date: ptr("2024-04-02"), People: &people,
		})
		require.NoError(t, err)
		assert.Equal(t, "Rough milling", step.Title)
		assert.Equal(t, "ABC123XY-ML00", step.ID)

		detail, err = s.steps.Get(ctx, s.fx.Admin, "ABC123XY-ML00")
		require.NoError(t, err)
		assert.Equal(t, "2024-04-02", detail.Date)
		require.Len(t, detail.People, 2)
		assert.Equal(t, "ada", detail.People[0].Username)

		step, err = s.steps.Update(ctx, s.fx.Owner, "ABC123XY-ML00", service.StepUpdate{Description: ptr("coarse pass")})
		require.NoError(t, err)
		assert.Equal(t, "Rough milling", step.Title)
		assert.Equal(t, "2024-04-02", step.Date)
		assert.Equal(t, "coarse pass", step.Description)

		detail, err = s.steps.Get(ctx, s.fx.Owner, "ABC123XY-ML00")
		require.NoError(t, err)
		assert.Len(t, detail.People, 2)

		_, err = s.steps.Update(ctx, s.fx.Owner, "ABC123XY-ML00", service.StepUpdate{Date: ptr("02/04/2024")})
		requireCode(t, err, apperrors.CodeValidationFailed)

		unknown := []string{"u-nobody"}
		_, err = s.steps.Update(ctx, s.fx.Owner, "ABC123XY-ML00", service.StepUpdate{People: &unknown})
		requireCode(t, err, apperrors.CodeUserNotFound)

		views, err := s.steps.ListByFlow(ctx, s.fx.Owner, testutil.FlowID)
		require.NoError(t, err)
		require.Len(t, views, 4)
		assert.Equal(t, "ABC123XY-CT00", views[0].ID)
		assert.Len(t, views[1].People, 2)
	})
}

func TestRecordService(t *testing.T) {
	testutil.ForEachStore(t, "svc_records", func(t *testing.T, store *repository.Store) {
		ctx := context.Background()
		s := newServices(t, store)
		testutil.InsertStep(t, store, "ABC123XY-ML00", "")

		sample, err := s.records.AddSample(ctx, s.fx.Owner, domain.SampleInput{StepID: "ABC123XY-ML00", Name: "S1"})
		require.NoError(t, err)
		assert.NotZero(t, sample.ID)

		_, err = s.records.AddSample(ctx, s.fx.Owner, domain.SampleInput{StepID: "ABC123XY-ML00"})
		requireCode(t, err, apperrors.CodeValidationFailed)

		_, err = s.records.AddSample(ctx, s.fx.Stranger, domain.SampleInput{StepID: "ABC123XY-ML00", Name: "S2"})
		requireCode(t, err, apperrors.CodeStepNotFound)

		md, err := s.records.AddMetadata(ctx, s.fx.Owner, domain.MetadataInput{StepID: "ABC123XY-ML00", Key: "rpm", Value: "1200"})
		require.NoError(t, err)

		samples, err := s.records.ListSamples(ctx, s.fx.Owner, "ABC123XY-ML00")
		require.NoError(t, err)
		assert.Len(t, samples, 1)
		mds, err := s.records.ListMetadata(ctx, s.fx.Owner, "ABC123XY-ML00")
		require.NoError(t, err)
		require.Len(t, mds, 1)
		assert.Equal(t, "rpm", mds[0].Key)

		err = s.records.DeleteSample(ctx, s.fx.Stranger, sample.ID)
		requireCode(t, err, apperrors.CodeSampleNotFound)

		require.NoError(t, s.records.DeleteSample(ctx, s.fx.Owner, sample.ID))
		require.NoError(t, s.records.DeleteMetadata(ctx, s.fx.Owner, md.ID))

		err = s.records.DeleteMetadata(ctx, s.fx.Owner, md.ID)
		requireCode(t, err, apperrors.CodeMetadataNotFound)
	})
}

func TestUserService(t *testing.T) {
	testutil.ForEachStore(t, "svc_users", func(t *testing.T, store *repository.Store) {
		ctx := context.Background()
		s := newServices(t, store)

		u, err := s.users.Create(ctx, s.fx.Admin, domain.UserInput{Username: "carol", Password: "correct-horse"})
		require.NoError(t, err)
		assert.Equal(t, "carol", u.DisplayName)
		assert.NotEqual(t, "correct-horse", u.PasswordHash)

		_, err = s.users.Create(ctx, s.fx.Admin, domain.UserInput{Username: "carol", Password: "another-one"})
		requireCode(t, err, apperrors.CodeUserExists)

		_, err = s.users.Create(ctx, s.fx.Admin, domain.UserInput{Username: "dave", Password: "short"})
		requireCode(t, err, apperrors.CodeValidationFailed)

		got, err := s.users.Authenticate(ctx, "carol", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = s.users.Authenticate(ctx, "carol", "wrong-password")
		requireCode(t, err, apperrors.CodeAuthFailed)
		_, err = s.users.Authenticate(ctx, "nobody", "correct-horse")
		requireCode(t, err, apperrors.CodeAuthFailed)

		users, err := s.users.List(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 4)

		_, err = s.users.Get(ctx, "u-missing")
		requireCode(t, err, apperrors.CodeUserNotFound)
	})
}

func TestDashboardService(t *testing.T) {
	testutil.ForEachStore(t, "svc_dashboard", func(t *testing.T, store *repository.Store) {
		ctx := context.Background()
		s := newServices(t, store)
		testutil.InsertStep(t, store, "ABC123XY-ML00", "")

		d, err := s.dashboard.Get(ctx, s.fx.Owner, "")
		require.NoError(t, err)
		assert.Len(t, d.Experiments, 1)
		assert.Nil(t, d.SelectedExperiment)
		assert.Empty(t, d.Flows)
		assert.Len(t, d.Users, 3)
		assert.Len(t, d.StepTypes, 2)

		d, err = s.dashboard.Get(ctx, s.fx.Owner, testutil.ExperimentID)
		require.NoError(t, err)
		require.NotNil(t, d.SelectedExperiment)
		require.Len(t, d.Flows, 2)
		assert.Len(t, d.Flows[0].Steps, 1)

		_, err = s.dashboard.Get(ctx, s.fx.Stranger, testutil.ExperimentID)
		requireCode(t, err, apperrors.CodeExperimentNotFound)
	})
}

func ptr(s string) *string { return &s }
