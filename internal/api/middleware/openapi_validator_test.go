package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lycanzy/experimentdocumentationapp/internal/api/openapi"
	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
)

func TestNormalizeValidationPath(t *testing.T) {
	testCases := []struct {
		name     string
		basePath string
		path     string
		want     string
	}{
		{name: "strip prefix", basePath: "/api/v1", path: "/api/v1/flows/ABC123XY/steps", want: "/flows/ABC123XY/steps"},
		{name: "root path", basePath: "/api/v1", path: "/api/v1", want: "/"},
		{name: "no match", basePath: "/api/v1", path: "/metrics", want: "/metrics"},
		{name: "empty base", basePath: "", path: "/experiments", want: "/experiments"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeValidationPath(normalizeBasePath(tc.basePath), tc.path)
			assert.Equal(t, tc.want, got)
		})
	}
}

func newValidatedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	doc, err := openapi.Load(context.Background())
	require.NoError(t, err)
	mw, err := NewOpenAPIValidator(doc, "/api/v1")
	require.NoError(t, err)

	router := gin.New()
	router.Use(mw)
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	router.POST("/api/v1/flows/:flow_id/steps", ok)
	router.DELETE("/api/v1/samples/:sample_id", ok)
	router.GET("/api/v1/audit-logs", ok)
	router.GET("/metrics", ok)
	return router
}

func TestOpenAPIValidator(t *testing.T) {
	router := newValidatedRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"valid step body", http.MethodPost, "/api/v1/flows/ABC123XY/steps", `{"step_type":"ML","title":"Mill","date":"2024-03-01","people":["u-1"]}`, http.StatusNoContent},
		{"missing fields left to domain validation", http.MethodPost, "/api/v1/flows/ABC123XY/steps", `{}`, http.StatusNoContent},
		{"null previous step", http.MethodPost, "/api/v1/flows/ABC123XY/steps", `{"previous_step_id":null}`, http.StatusNoContent},
		{"wrong field type", http.MethodPost, "/api/v1/flows/ABC123XY/steps", `{"people":"u-1"}`, http.StatusBadRequest},
		{"non numeric sample id", http.MethodDelete, "/api/v1/samples/abc", "", http.StatusBadRequest},
		{"numeric sample id", http.MethodDelete, "/api/v1/samples/12", "", http.StatusNoContent},
		{"limit out of range", http.MethodGet, "/api/v1/audit-logs?limit=0", "", http.StatusBadRequest},
		{"undocumented path passes", http.MethodGet, "/metrics", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusBadRequest {
				assert.Equal(t, apperrors.CodeInvalidRequest, decodeError(t, w).Code)
			}
		})
	}
}
