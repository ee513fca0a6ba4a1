package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_NoErrors(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(zap.NewNop()))
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := serve(router, http.MethodGet, "/ok")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestErrorHandler_AppError(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(zap.NewNop()))
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(apperrors.NotFound(apperrors.CodeStepNotFound, "step not found").
			WithParams(map[string]interface{}{"id": "ABC123XY-ML00"}))
	})

	w := serve(router, http.MethodGet, "/fail")
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, apperrors.CodeStepNotFound, body.Code)
	assert.Equal(t, "ABC123XY-ML00", body.Params["id"])
}

func TestErrorHandler_ValidationFieldErrors(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(zap.NewNop()))
	router.POST("/steps", func(c *gin.Context) {
		_ = c.Error(apperrors.Validation("invalid step", []apperrors.FieldError{
			{Field: "date", Code: "FORMAT", Message: "date must be YYYY-MM-DD"},
		}))
	})

	w := serve(router, http.MethodPost, "/steps")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, apperrors.CodeValidationFailed, body.Code)
	require.Len(t, body.FieldErrors, 1)
	assert.Equal(t, "date", body.FieldErrors[0].Field)
}

func TestErrorHandler_WrappedAppError(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(zap.NewNop()))
	router.GET("/wrapped", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("outer: %w", apperrors.Conflict(apperrors.CodeStepHasDependents, "has dependents")))
	})

	w := serve(router, http.MethodGet, "/wrapped")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeStepHasDependents, decodeError(t, w).Code)
}

func TestErrorHandler_UnknownErrorIsInternalAndLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(ErrorHandler(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("connection refused"))
	})

	w := serve(router, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, apperrors.CodeInternal, body.Code)
	assert.NotContains(t, body.Message, "connection refused")
	assert.Equal(t, 1, logs.FilterMessage("Unhandled request error").Len())
}

func TestRequestID_PropagatesHeaderAndLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := gin.New()
	router.Use(RequestID(zap.New(core)), ErrorHandler(nil))
	router.GET("/x", func(c *gin.Context) {
		assert.Equal(t, "req-42", GetRequestID(c.Request.Context()))
		_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidRequest, "bad"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	entries := logs.FilterMessage("Request error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
}

func TestRequestID_Generated(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(nil))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := serve(router, http.MethodGet, "/x")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
