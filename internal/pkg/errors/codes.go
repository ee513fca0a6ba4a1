package errors

// Error code constants.
// Errors carry code + params; messages are short English hints for operators.

// Generic codes.
const (
	CodeInternal     = "INTERNAL_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
)

// Experiment hierarchy codes.
const (
	CodeExperimentNotFound = "EXPERIMENT_NOT_FOUND"
	CodeExperimentExists   = "EXPERIMENT_ALREADY_EXISTS"
	CodeFlowNotFound       = "FLOW_NOT_FOUND"
	CodeFlowExists         = "FLOW_ALREADY_EXISTS"
	CodeSampleNotFound     = "SAMPLE_NOT_FOUND"
	CodeMetadataNotFound   = "METADATA_NOT_FOUND"
)

// Step codes.
const (
	CodeStepNotFound          = "STEP_NOT_FOUND"
	CodeStepCapacityExceeded  = "STEP_CAPACITY_EXCEEDED"
	CodeDuplicateIdentifier   = "DUPLICATE_IDENTIFIER"
	CodeStepCycleRejected     = "STEP_CYCLE_REJECTED"
	CodeStepCrossFlowRejected = "STEP_CROSS_FLOW_REJECTED"
	CodeStepHasDependents     = "STEP_HAS_DEPENDENTS"
)

// Step type codes.
const (
	CodeStepTypeNotFound = "STEP_TYPE_NOT_FOUND"
	CodeStepTypeExists   = "STEP_TYPE_ALREADY_EXISTS"
	CodeStepTypeInUse    = "STEP_TYPE_IN_USE"
)

// User and auth codes.
const (
	CodeUserNotFound = "USER_NOT_FOUND"
	CodeUserExists   = "USER_ALREADY_EXISTS"
	CodeAuthFailed   = "AUTH_FAILED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// Validation codes.
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInvalidRequestField = "INVALID_REQUEST_FIELD"
	CodeValidationFailed    = "VALIDATION_FAILED"
)
