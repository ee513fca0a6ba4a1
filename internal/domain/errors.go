package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the experiment hierarchy. Service errors wrap these so
// callers can match with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrCapacityExceeded    = errors.New("step number capacity exceeded")
	ErrDuplicateIdentifier = errors.New("duplicate identifier")
	ErrCycleRejected       = errors.New("previous step would create a cycle")
	ErrCrossFlowRejected   = errors.New("previous step belongs to another flow")
	ErrDependentStepsExist = errors.New("step has dependent steps")
	ErrStepTypeInUse       = errors.New("step type is referenced by steps")
)

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Field error codes.
const (
	FieldRequired = "REQUIRED"
	FieldFormat   = "FORMAT"
	FieldTooLong  = "TOO_LONG"
	FieldMismatch = "MISMATCH"
)

// ValidationError collects the field errors for one entity.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// asValidationError returns nil when fields is empty.
func asValidationError(entity string, fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Entity: entity, Fields: fields}
}
