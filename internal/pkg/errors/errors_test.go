package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "STEP_NOT_FOUND: step not found",
		NotFound(CodeStepNotFound, "step not found").Error())
	assert.Equal(t, "INTERNAL_ERROR: insert step: disk full",
		Wrap(fmt.Errorf("disk full"), CodeInternal, "insert step", http.StatusInternalServerError).Error())
}

func TestAppError_UnwrapReachesCause(t *testing.T) {
	cause := errors.New("unique violation")
	err := fmt.Errorf("create step: %w",
		Wrap(cause, CodeDuplicateIdentifier, "identifier taken", http.StatusConflict))

	assert.ErrorIs(t, err, cause)

	appErr, ok := IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, CodeDuplicateIdentifier, appErr.Code)
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NotFound(CodeFlowNotFound, "flow"), http.StatusNotFound},
		{BadRequest(CodeInvalidRequest, "body"), http.StatusBadRequest},
		{Unauthorized(CodeAuthFailed, "login"), http.StatusUnauthorized},
		{Forbidden(CodeForbidden, "admin only"), http.StatusForbidden},
		{Conflict(CodeStepHasDependents, "has next steps"), http.StatusConflict},
		{Unprocessable(CodeStepCycleRejected, "cycle"), http.StatusUnprocessableEntity},
		{Internal(CodeInternal, "boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus)
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestWithParamsAndFieldErrors(t *testing.T) {
	err := Validation("invalid flow", []FieldError{{Field: "id", Code: "FORMAT"}}).
		WithParams(map[string]interface{}{"experiment_id": "ABC123"})

	assert.Equal(t, CodeValidationFailed, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Equal(t, []FieldError{{Field: "id", Code: "FORMAT"}}, err.FieldErrors)
	assert.Equal(t, "ABC123", err.Params["experiment_id"])

	kept := err.WithParams(nil).WithFieldErrors(nil)
	assert.Len(t, kept.FieldErrors, 1)
	assert.Len(t, kept.Params, 1)

	var nilErr *AppError
	assert.Nil(t, nilErr.WithParams(map[string]interface{}{"a": 1}))
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("seed: %w", Conflict(CodeUserExists, "user exists"))

	assert.True(t, HasCode(wrapped, CodeUserExists))
	assert.False(t, HasCode(wrapped, CodeStepTypeExists))
	assert.False(t, HasCode(errors.New("plain"), CodeUserExists))
	assert.False(t, HasCode(nil, CodeUserExists))
}

func TestStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, Status(errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, Status(&AppError{Code: "NO_STATUS"}))
}
