package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Field length limits.
const (
	MaxTitleLength        = 200
	MaxStepTypeNameLength = 100
	MaxSampleNameLength   = 100
	MaxMetadataKeyLength  = 100
	MaxUsernameLength     = 150
)

// DateLayout is the wire and storage layout of Step.Date.
const DateLayout = "2006-01-02"

// ExperimentInput carries the fields supplied when creating an experiment.
type ExperimentInput struct {
	ID          string
	Title       string
	Description string
}

// FlowInput carries the fields supplied when creating a flow.
type FlowInput struct {
	ID           string
	ExperimentID string
	Title        string
	Description  string
}

// StepTypeInput carries the fields supplied when creating a step type.
type StepTypeInput struct {
	Code        string
	Name        string
	Description string
}

// StepInput carries the user-editable step fields. The identifier is never
// part of it; it is generated.
type StepInput struct {
	FlowID         string
	StepTypeCode   string
	PreviousStepID string
	Title          string
	Description    string
	Date           string
	People         []string
}

// SampleInput carries a new sample.
type SampleInput struct {
	StepID      string
	Name        string
	Description string
}

// MetadataInput carries a new metadata pair.
type MetadataInput struct {
	StepID string
	Key    string
	Value  string
}

// UserInput carries a new user.
type UserInput struct {
	Username    string
	DisplayName string
	Email       string
	Password    string
	IsAdmin     bool
}

type fieldChecker struct {
	errs []FieldError
}

func (c *fieldChecker) add(field, code, msg string) {
	c.errs = append(c.errs, FieldError{Field: field, Code: code, Message: msg})
}

func (c *fieldChecker) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		c.add(field, FieldRequired, "must not be empty")
		return false
	}
	return true
}

func (c *fieldChecker) maxLen(field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		c.add(field, FieldTooLong, "is too long")
	}
}

func (c *fieldChecker) title(value string) {
	if c.required("title", value) {
		c.maxLen("title", value, MaxTitleLength)
	}
}

// ValidateExperiment checks an experiment input.
func ValidateExperiment(in ExperimentInput) error {
	var c fieldChecker
	if c.required("id", in.ID) && !IsExperimentID(in.ID) {
		c.add("id", FieldFormat, "format must be AAA000")
	}
	c.title(in.Title)
	return asValidationError("experiment", c.errs)
}

// ValidateFlow checks a flow input, including that the flow id extends the
// experiment id.
func ValidateFlow(in FlowInput) error {
	var c fieldChecker
	if c.required("id", in.ID) {
		switch {
		case !IsFlowID(in.ID):
			c.add("id", FieldFormat, "format must be AAA000AA")
		case in.ExperimentID != "" && in.ID[:6] != in.ExperimentID:
			c.add("id", FieldMismatch, "must start with the experiment id")
		}
	}
	c.title(in.Title)
	return asValidationError("flow", c.errs)
}

// ValidateStepType checks a step type input.
func ValidateStepType(in StepTypeInput) error {
	var c fieldChecker
	if c.required("code", in.Code) && !IsStepTypeCode(in.Code) {
		c.add("code", FieldFormat, "code must be 2 uppercase letters")
	}
	if c.required("name", in.Name) {
		c.maxLen("name", in.Name, MaxStepTypeNameLength)
	}
	return asValidationError("step type", c.errs)
}

// ValidateStep checks the user-editable step fields.
func ValidateStep(in StepInput) error {
	var c fieldChecker
	if c.required("flow_id", in.FlowID) && !IsFlowID(in.FlowID) {
		c.add("flow_id", FieldFormat, "format must be AAA000AA")
	}
	if c.required("step_type", in.StepTypeCode) && !IsStepTypeCode(in.StepTypeCode) {
		c.add("step_type", FieldFormat, "code must be 2 uppercase letters")
	}
	if in.PreviousStepID != "" && !IsStepID(in.PreviousStepID) {
		c.add("previous_step_id", FieldFormat, "format must be AAA000AA-AA00")
	}
	c.title(in.Title)
	validateDate(&c, in.Date)
	for _, p := range in.People {
		if strings.TrimSpace(p) == "" {
			c.add("people", FieldRequired, "must not contain empty user ids")
			break
		}
	}
	return asValidationError("step", c.errs)
}

// ValidateStepUpdate checks the fields that may change after creation.
func ValidateStepUpdate(title, date string) error {
	var c fieldChecker
	c.title(title)
	validateDate(&c, date)
	return asValidationError("step", c.errs)
}

func validateDate(c *fieldChecker, date string) {
	if !c.required("date", date) {
		return
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		c.add("date", FieldFormat, "date must be YYYY-MM-DD")
	}
}

// ValidateSample checks a sample input.
func ValidateSample(in SampleInput) error {
	var c fieldChecker
	if c.required("name", in.Name) {
		c.maxLen("name", in.Name, MaxSampleNameLength)
	}
	return asValidationError("sample", c.errs)
}

// ValidateMetadata checks a metadata input.
func ValidateMetadata(in MetadataInput) error {
	var c fieldChecker
	if c.required("key", in.Key) {
		c.maxLen("key", in.Key, MaxMetadataKeyLength)
	}
	c.required("value", in.Value)
	return asValidationError("metadata", c.errs)
}

// ValidateUser checks a user input.
func ValidateUser(in UserInput) error {
	var c fieldChecker
	if c.required("username", in.Username) {
		c.maxLen("username", in.Username, MaxUsernameLength)
		if strings.ContainsAny(in.Username, " \t\n") {
			c.add("username", FieldFormat, "must not contain whitespace")
		}
	}
	if c.required("password", in.Password) && len(in.Password) < 8 {
		c.add("password", FieldFormat, "must be at least 8 characters")
	}
	return asValidationError("user", c.errs)
}
