package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxSequenceNumber is the highest per-(flow, step type) step number.
const MaxSequenceNumber = 99

var (
	experimentIDPattern = regexp.MustCompile(`^[A-Z]{3}\d{3}$`)
	flowIDPattern       = regexp.MustCompile(`^[A-Z]{3}\d{3}[A-Z]{2}$`)
	stepIDPattern       = regexp.MustCompile(`^[A-Z]{3}\d{3}[A-Z]{2}-[A-Z]{2}\d{2}$`)
	stepTypeCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)
)

// IsExperimentID reports whether id matches AAA000.
func IsExperimentID(id string) bool { return experimentIDPattern.MatchString(id) }

// IsFlowID reports whether id matches AAA000AA.
func IsFlowID(id string) bool { return flowIDPattern.MatchString(id) }

// IsStepID reports whether id matches AAA000AA-AA00.
func IsStepID(id string) bool { return stepIDPattern.MatchString(id) }

// IsStepTypeCode reports whether code is two uppercase letters.
func IsStepTypeCode(code string) bool { return stepTypeCodePattern.MatchString(code) }

// StepIDParts is the lossless decomposition of a step identifier.
type StepIDParts struct {
	ExperimentID string
	FlowID       string
	StepTypeCode string
	Number       int
}

// FormatStepID builds {flow_id}-{code}{number:02d}.
func FormatStepID(flowID, stepTypeCode string, number int) (string, error) {
	if !IsFlowID(flowID) {
		return "", fmt.Errorf("%w: flow id %q", ErrValidation, flowID)
	}
	if !IsStepTypeCode(stepTypeCode) {
		return "", fmt.Errorf("%w: step type code %q", ErrValidation, stepTypeCode)
	}
	if number < 0 || number > MaxSequenceNumber {
		return "", fmt.Errorf("%w: step number %d", ErrCapacityExceeded, number)
	}
	return fmt.Sprintf("%s-%s%02d", flowID, stepTypeCode, number), nil
}

// ParseStepID splits a step identifier into its components.
func ParseStepID(id string) (StepIDParts, error) {
	if !IsStepID(id) {
		return StepIDParts{}, fmt.Errorf("%w: step id %q", ErrValidation, id)
	}
	n, err := strconv.Atoi(id[11:13])
	if err != nil {
		return StepIDParts{}, fmt.Errorf("%w: step id %q", ErrValidation, id)
	}
	return StepIDParts{
		ExperimentID: id[:6],
		FlowID:       id[:8],
		StepTypeCode: id[9:11],
		Number:       n,
	}, nil
}

// NextSequenceNumber returns the number the next step of stepTypeCode in
// flowID receives, given the identifiers of steps already in the flow.
// Identifiers of other flows or types are ignored. The result is one past the
// highest number in use, so gaps left by deletions are not reused.
func NextSequenceNumber(existing []string, flowID, stepTypeCode string) (int, error) {
	prefix := flowID + "-" + stepTypeCode
	highest := -1
	for _, id := range existing {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		parts, err := ParseStepID(id)
		if err != nil || parts.FlowID != flowID || parts.StepTypeCode != stepTypeCode {
			continue
		}
		if parts.Number > highest {
			highest = parts.Number
		}
	}
	next := highest + 1
	if next > MaxSequenceNumber {
		return 0, fmt.Errorf("%w: flow %s type %s already uses %02d", ErrCapacityExceeded, flowID, stepTypeCode, MaxSequenceNumber)
	}
	return next, nil
}
