// Package domain provides the experiment hierarchy models, identifier rules,
// input validation and the per-flow step graph.
//
// Nothing in this package touches storage; callers load state and hand it in.
package domain

import "time"

// User is an actor that owns experiments and is assigned to steps.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Experiment is the root of the hierarchy, identified as AAA000.
type Experiment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Flow belongs to one experiment, identified as AAA000AA.
type Flow struct {
	ID           string    `json:"id"`
	ExperimentID string    `json:"experiment_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// StepType classifies steps with a two-letter code (e.g. ML for milling).
type StepType struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Step is one unit of work in a flow, identified as AAA000AA-AA00.
type Step struct {
	ID             string    `json:"id"`
	FlowID         string    `json:"flow_id"`
	StepTypeCode   string    `json:"step_type"`
	PreviousStepID *string   `json:"previous_step_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Date           string    `json:"date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasPrevious reports whether the step is LINKED.
func (s Step) HasPrevious() bool {
	return s.PreviousStepID != nil && *s.PreviousStepID != ""
}

// Sample is a physical or logical specimen recorded on a step.
type Sample struct {
	ID          int64  `json:"id"`
	StepID      string `json:"step_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Metadata is a free-form key/value pair recorded on a step.
type Metadata struct {
	ID     int64  `json:"id"`
	StepID string `json:"step_id"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// AuditLog records one mutating operation.
type AuditLog struct {
	ID           string    `json:"id"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Actor        string    `json:"actor"`
	Details      string    `json:"details,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor identifies the caller of a service operation.
type Actor struct {
	UserID   string
	Username string
	IsAdmin  bool
}

// CanAccess reports whether the actor may see resources owned by ownerID.
func (a Actor) CanAccess(ownerID string) bool {
	return a.IsAdmin || (a.UserID != "" && a.UserID == ownerID)
}
