package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lycanzy/experimentdocumentationapp/internal/api/middleware"
	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	"github.com/lycanzy/experimentdocumentationapp/internal/governance/audit"
	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
	"github.com/lycanzy/experimentdocumentationapp/internal/pkg/metrics"
	"github.com/lycanzy/experimentdocumentationapp/internal/repository"
	"github.com/lycanzy/experimentdocumentationapp/internal/service"
	"github.com/lycanzy/experimentdocumentationapp/internal/testutil"
	"github.com/lycanzy/experimentdocumentationapp/internal/usecase"
)

var testJWT = middleware.JWTConfig{
	SigningKey: []byte("handler-test-key-12345678901234567890"),
	Issuer:     "experimentdocs",
	ExpiresIn:  time.Hour,
}

type apiHarness struct {
	server *Server
	router *gin.Engine
	level  zap.AtomicLevel
	tokens map[string]string
}

func newAPIHarness(t *testing.T, store *repository.Store) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutil.Seed(t, store)

	log := zap.NewNop()
	m := metrics.New(prometheus.NewRegistry())
	al := audit.NewLogger(log)
	deps := service.Deps{Store: store, Log: log, Audit: al}
	graph := service.NewStepGraphManager(log, m)
	level := zap.NewAtomicLevelAt(zap.InfoLevel)

	server := NewServer(ServerDeps{
		Store:        store,
		JWTCfg:       testJWT,
		Audit:        al,
		LogLevel:     &level,
		Log:          log,
		Experiments:  service.NewExperimentService(deps),
		Flows:        service.NewFlowService(deps),
		Steps:        service.NewStepService(deps, graph),
		StepTypes:    service.NewStepTypeService(deps),
		Records:      service.NewRecordService(deps),
		Users:        service.NewUserServiceWithCost(deps, bcrypt.MinCost),
		Dashboard:    service.NewDashboardService(deps),
		CreateStepUC: usecase.NewCreateStepUseCase(store, service.NewIdentifierGenerator(), graph, log, m).WithAuditLogger(al),
		LinkStepUC:   usecase.NewLinkStepUseCase(store, graph, log).WithAuditLogger(al),
		DeleteStepUC: usecase.NewDeleteStepUseCase(store, graph, log).WithAuditLogger(al),
	})

	router := gin.New()
	router.Use(middleware.ErrorHandler(log))
	auth := middleware.JWTAuth(testJWT)
	server.RegisterRoutes(router.Group("/api/v1", func(c *gin.Context) {
		if c.FullPath() == "/api/v1/auth/login" {
			c.Next()
			return
		}
		auth(c)
	}))

	tokens := make(map[string]string)
	for _, u := range []domain.User{
		{ID: "u-ada", Username: "ada"},
		{ID: "u-bob", Username: "bob"},
		{ID: "u-root", Username: "root", IsAdmin: true},
	} {
		token, _, err := middleware.GenerateToken(testJWT, u)
		require.NoError(t, err)
		tokens[u.Username] = token
	}
	return &apiHarness{server: server, router: router, level: level, tokens: tokens}
}

func (h *apiHarness) do(t *testing.T, user, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+h.tokens[user])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	if code != "" {
		assert.Equal(t, code, decode[middleware.ErrorResponse](t, w).Code)
	}
}

func stepBody(code, previous string) map[string]interface{} {
	body := map[string]interface{}{
		"step_type": code,
		"title":     "Step " + code,
		"date":      "2024-03-01",
		"people":    []string{"u-ada"},
	}
	if previous != "" {
		body["previous_step_id"] = previous
	}
	return body
}

func TestStepLifecycle(t *testing.T) {
	h := newAPIHarness(t, testutil.OpenSQLiteStore(t))

	w := h.do(t, "ada", http.MethodPost, "/flows/ABC123XY/steps", stepBody("ML", ""))
	requireStatus(t, w, http.StatusCreated, "")
	first := decode[domain.Step](t, w)
	assert.Equal(t, "ABC123XY-ML00", first.ID)
	assert.Nil(t, first.PreviousStepID)

	w = h.do(t, "ada", http.MethodPost, "/flows/ABC123XY/steps", stepBody("ML", first.ID))
	requireStatus(t, w, http.StatusCreated, "")
	second := decode[domain.Step](t, w)
	assert.Equal(t, "ABC123XY-ML01", second.ID)
	require.NotNil(t, second.PreviousStepID)
	assert.Equal(t, first.ID, *second.PreviousStepID)

	w = h.do(t, "ada", http.MethodPut, "/steps/"+first.ID+"/previous", map[string]interface{}{"previous_step_id": second.ID})
	requireStatus(t, w, http.StatusUnprocessableEntity, apperrors.CodeStepCycleRejected)

	w = h.do(t, "ada", http.MethodGet, "/steps/"+first.ID+"/eligible-previous", nil)
	requireStatus(t, w, http.StatusOK, "")
	assert.Empty(t, decode[listResponse[domain.Step]](t, w).Items)

	w = h.do(t, "ada", http.MethodGet, "/steps/"+second.ID, nil)
	requireStatus(t, w, http.StatusOK, "")
	detail := decode[service.StepDetail](t, w)
	require.Len(t, detail.People, 1)
	assert.Equal(t, "u-ada", detail.People[0].ID)
	require.Len(t, detail.EligiblePrevious, 1)
	assert.Equal(t, first.ID, detail.EligiblePrevious[0].ID)

	w = h.do(t, "ada", http.MethodDelete, "/steps/"+first.ID, nil)
	requireStatus(t, w, http.StatusConflict, apperrors.CodeStepHasDependents)

	w = h.do(t, "ada", http.MethodPut, "/steps/"+second.ID+"/previous", map[string]interface{}{"previous_step_id": nil})
	requireStatus(t, w, http.StatusOK, "")
	assert.Nil(t, decode[domain.Step](t, w).PreviousStepID)

	w = h.do(t, "ada", http.MethodDelete, "/steps/"+first.ID, nil)
	requireStatus(t, w, http.StatusNoContent, "")

	w = h.do(t, "ada", http.MethodGet, "/flows/ABC123XY/steps", nil)
	requireStatus(t, w, http.StatusOK, "")
	steps := decode[listResponse[service.StepView]](t, w)
	require.Equal(t, 1, steps.Total)
	assert.Equal(t, second.ID, steps.Items[0].ID)
}

func TestCreateStep_Rejections(t *testing.T) {
	h := newAPIHarness(t, testutil.OpenSQLiteStore(t))

	w := h.do(t, "ada", http.MethodPost, "/flows/ABC123XY/steps", map[string]interface{}{"step_type": "ML"})
	requireStatus(t, w, http.StatusBadRequest, apperrors.CodeValidationFailed)
	assert.NotEmpty(t, decode[middleware.ErrorResponse](t, w).FieldErrors)

	w = h.do(t, "ada", http.MethodPost, "/flows/ABC123XZ/steps", stepBody("CT", ""))
	requireStatus(t, w, http.StatusCreated, "")
	foreign := decode[domain.Step](t, w)

	w = h.do(t, "ada", http.MethodPost, "/flows/ABC123XY/steps", stepBody("ML", foreign.ID))
	requireStatus(t, w, http.StatusUnprocessableEntity, apperrors.CodeStepCrossFlowRejected)

	w = h.do(t, "bob", http.MethodPost, "/flows/ABC123XY/steps", stepBody("ML", ""))
	requireStatus(t, w, http.StatusNotFound, apperrors.CodeFlowNotFound)

	w = h.do(t, "", http.MethodPost, "/flows/ABC123XY/steps", stepBody("ML", ""))
	requireStatus(t, w, http.StatusUnauthorized, apperrors.CodeUnauthorized)
}

func TestUpdateExperiment_PatchKeepsOmittedFields(t *testing.T) {
	store := testutil.OpenSQLiteStore(t)
	h := newAPIHarness(t, store)
	testutil.InsertStep(t, store, "ABC123XY-ML00", "")

	w := h.do(t, "ada", http.MethodPatch, "/steps/ABC123XY-ML00", map[string]interface{}{"description": "coarse pass"})
	requireStatus(t, w, http.StatusOK, "")
	step := decode[domain.Step](t, w)
	assert.Equal(t, "Step ABC123XY-ML00", step.Title)
	assert.Equal(t, "2024-03-01", step.Date)
	assert.Equal(t, "coarse pass", step.Description)

	w = h.do(t, "ada", http.MethodPatch, "/steps/ABC123XY-ML00", map[string]interface{}{"date": ""})
	requireStatus(t, w, http.StatusBadRequest, apperrors.CodeValidationFailed)

	w = h.do(t, "ada", http.MethodPatch, "/flows/"+testutil.FlowID, map[string]interface{}{"description": "main line"})
	requireStatus(t, w, http.StatusOK, "")
	flow := decode[domain.Flow](t, w)
	assert.Equal(t, "Flow "+testutil.FlowID, flow.Title)
	assert.Equal(t, "main line", flow.Description)

	w = h.do(t, "ada", http.MethodPatch, "/experiments/ABC123", map[string]interface{}{"description": "bronze"})
	requireStatus(t, w, http.StatusOK, "")
	exp := decode[domain.Experiment](t, w)
	assert.Equal(t, "Alloy study", exp.Title)
	assert.Equal(t, "bronze", exp.Description)

	w = h.do(t, "bob", http.MethodPatch, "/experiments/ABC123", map[string]interface{}{"title": "mine"})
	requireStatus(t, w, http.StatusNotFound, apperrors.CodeExperimentNotFound)

	w = h.do(t, "ada", http.MethodGet, "/experiments", nil)
	requireStatus(t, w, http.StatusOK, "")
	assert.Equal(t, 1, decode[listResponse[domain.Experiment]](t, w).Total)

	w = h.do(t, "bob", http.MethodGet, "/experiments", nil)
	requireStatus(t, w, http.StatusOK, "")
	assert.Equal(t, 0, decode[listResponse[domain.Experiment]](t, w).Total)
}

func TestRecords(t *testing.T) {
	store := testutil.OpenSQLiteStore(t)
	h := newAPIHarness(t, store)
	step := testutil.InsertStep(t, store, "ABC123XY-ML00", "")

	w := h.do(t, "ada", http.MethodPost, "/steps/"+step.ID+"/samples", map[string]interface{}{"name": "S-1"})
	requireStatus(t, w, http.StatusCreated, "")
	sample := decode[domain.Sample](t, w)

	w = h.do(t, "ada", http.MethodPost, "/steps/"+step.ID+"/metadata", map[string]interface{}{"key": "temp", "value": "450C"})
	requireStatus(t, w, http.StatusCreated, "")

	w = h.do(t, "ada", http.MethodGet, "/steps/"+step.ID+"/metadata", nil)
	requireStatus(t, w, http.StatusOK, "")
	md := decode[listResponse[domain.Metadata]](t, w)
	require.Len(t, md.Items, 1)
	assert.Equal(t, "450C", md.Items[0].Value)

	w = h.do(t, "ada", http.MethodDelete, "/samples/abc", nil)
	requireStatus(t, w, http.StatusBadRequest, apperrors.CodeInvalidRequestField)

	w = h.do(t, "bob", http.MethodDelete, "/samples/"+jsonNumber(sample.ID), nil)
	requireStatus(t, w, http.StatusNotFound, apperrors.CodeSampleNotFound)

	w = h.do(t, "ada", http.MethodDelete, "/samples/"+jsonNumber(sample.ID), nil)
	requireStatus(t, w, http.StatusNoContent, "")

	w = h.do(t, "ada", http.MethodGet, "/steps/"+step.ID+"/samples", nil)
	requireStatus(t, w, http.StatusOK, "")
	assert.Empty(t, decode[listResponse[domain.Sample]](t, w).Items)
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestAdminRoutes(t *testing.T) {
	h := newAPIHarness(t, testutil.OpenSQLiteStore(t))

	w := h.do(t, "ada", http.MethodPost, "/step-types", map[string]interface{}{"code": "AN", "name": "Annealing"})
	requireStatus(t, w, http.StatusForbidden, apperrors.CodeForbidden)

	w = h.do(t, "root", http.MethodPost, "/step-types", map[string]interface{}{"code": "AN", "name": "Annealing"})
	requireStatus(t, w, http.StatusCreated, "")

	w = h.do(t, "root", http.MethodPatch, "/step-types/AN", map[string]interface{}{"description": "heat"})
	requireStatus(t, w, http.StatusOK, "")
	st := decode[domain.StepType](t, w)
	assert.Equal(t, "Annealing", st.Name)
	assert.Equal(t, "heat", st.Description)

	w = h.do(t, "ada", http.MethodGet, "/step-types", nil)
	requireStatus(t, w, http.StatusOK, "")
	assert.Equal(t, 3, decode[listResponse[domain.StepType]](t, w).Total)

	w = h.do(t, "ada", http.MethodGet, "/audit-logs", nil)
	requireStatus(t, w, http.StatusForbidden, apperrors.CodeForbidden)

	w = h.do(t, "root", http.MethodGet, "/audit-logs?resource_type=step_type", nil)
	requireStatus(t, w, http.StatusOK, "")
	logs := decode[listResponse[domain.AuditLog]](t, w)
	assert.Equal(t, 2, logs.Total)
	assert.Equal(t, "root", logs.Items[0].Actor)
}

func TestLoginAndCurrentUser(t *testing.T) {
	h := newAPIHarness(t, testutil.OpenSQLiteStore(t))

	w := h.do(t, "root", http.MethodPost, "/users", map[string]interface{}{"username": "grace", "password": "correct-horse"})
	requireStatus(t, w, http.StatusCreated, "")
	created := decode[domain.User](t, w)

	w = h.do(t, "", http.MethodPost, "/auth/login", map[string]interface{}{"username": "grace", "password": "wrong-password"})
	requireStatus(t, w, http.StatusUnauthorized, apperrors.CodeAuthFailed)

	w = h.do(t, "", http.MethodPost, "/auth/login", map[string]interface{}{"username": "grace"})
	requireStatus(t, w, http.StatusBadRequest, apperrors.CodeInvalidRequest)

	w = h.do(t, "", http.MethodPost, "/auth/login", map[string]interface{}{"username": "grace", "password": "correct-horse"})
	requireStatus(t, w, http.StatusOK, "")
	login := decode[loginResponse](t, w)
	assert.Equal(t, created.ID, login.User.ID)

	claims, err := testJWT.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.UserID)

	h.tokens["grace"] = login.Token
	w = h.do(t, "grace", http.MethodGet, "/auth/me", nil)
	requireStatus(t, w, http.StatusOK, "")
	assert.Equal(t, "grace", decode[domain.User](t, w).Username)
}

func TestSetLogLevel(t *testing.T) {
	h := newAPIHarness(t, testutil.OpenSQLiteStore(t))

	w := h.do(t, "ada", http.MethodPut, "/admin/log-level", map[string]interface{}{"level": "debug"})
	requireStatus(t, w, http.StatusForbidden, apperrors.CodeForbidden)

	w = h.do(t, "root", http.MethodPut, "/admin/log-level", map[string]interface{}{"level": "loud"})
	requireStatus(t, w, http.StatusBadRequest, apperrors.CodeInvalidRequestField)

	w = h.do(t, "root", http.MethodPut, "/admin/log-level", map[string]interface{}{"level": "debug"})
	requireStatus(t, w, http.StatusOK, "")
	assert.Equal(t, zap.DebugLevel, h.level.Level())
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestReadiness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name   string
		db     Pinger
		status int
		check  string
	}{
		{"healthy", stubPinger{}, http.StatusOK, "ok"},
		{"unreachable", stubPinger{err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer(ServerDeps{DB: tt.db})
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/health/ready", nil)

			server.GetReadiness(c)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.check, decode[healthResponse](t, w).Checks["database"])
		})
	}
}
