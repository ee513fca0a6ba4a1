package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
	apperrors "github.com/lycanzy/experimentdocumentationapp/internal/pkg/errors"
)

var notFoundCodes = map[string]string{
	"experiment": apperrors.CodeExperimentNotFound,
	"flow":       apperrors.CodeFlowNotFound,
	"step":       apperrors.CodeStepNotFound,
	"step type":  apperrors.CodeStepTypeNotFound,
	"sample":     apperrors.CodeSampleNotFound,
	"metadata":   apperrors.CodeMetadataNotFound,
	"user":       apperrors.CodeUserNotFound,
}

// AppError converts a domain or repository error into an AppError. The
// original error stays reachable through errors.Is and errors.As. Errors
// that are already AppErrors pass through; anything unrecognised is returned
// unchanged and rendered as INTERNAL_ERROR by the HTTP layer.
func AppError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.IsAppError(err); ok {
		return err
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		fields := make([]apperrors.FieldError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, apperrors.FieldError{Field: f.Field, Code: f.Code, Message: f.Message})
		}
		appErr := apperrors.Validation(fmt.Sprintf("invalid %s", verr.Entity), fields)
		appErr.Err = err
		return appErr
	}

	var nf domain.NotFoundError
	if errors.As(err, &nf) {
		code, ok := notFoundCodes[nf.Entity]
		if !ok {
			code = apperrors.CodeInvalidRequest
		}
		return apperrors.Wrap(err, code, nf.Error(), http.StatusNotFound).
			WithParams(map[string]interface{}{"entity": nf.Entity, "id": nf.ID})
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return apperrors.Wrap(err, apperrors.CodeValidationFailed, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrCapacityExceeded):
		return apperrors.Wrap(err, apperrors.CodeStepCapacityExceeded,
			"no step number left for this flow and step type", http.StatusConflict)
	case errors.Is(err, domain.ErrDuplicateIdentifier):
		return apperrors.Wrap(err, apperrors.CodeDuplicateIdentifier,
			"step identifier was taken concurrently, retry the request", http.StatusConflict)
	case errors.Is(err, domain.ErrCycleRejected):
		return apperrors.Wrap(err, apperrors.CodeStepCycleRejected,
			"previous step would create a cycle", http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrCrossFlowRejected):
		return apperrors.Wrap(err, apperrors.CodeStepCrossFlowRejected,
			"previous step must belong to the same flow", http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrDependentStepsExist):
		return apperrors.Wrap(err, apperrors.CodeStepHasDependents,
			"step is the previous step of other steps", http.StatusConflict)
	case errors.Is(err, domain.ErrStepTypeInUse):
		return apperrors.Wrap(err, apperrors.CodeStepTypeInUse,
			"step type is used by existing steps", http.StatusConflict)
	}
	return err
}

// alreadyExists converts domain.ErrAlreadyExists into the entity's conflict
// code and defers everything else to AppError.
func alreadyExists(err error, code, entity, id string) error {
	if errors.Is(err, domain.ErrAlreadyExists) {
		return apperrors.Wrap(err, code, fmt.Sprintf("%s %q already exists", entity, id), http.StatusConflict).
			WithParams(map[string]interface{}{"entity": entity, "id": id})
	}
	return AppError(err)
}
