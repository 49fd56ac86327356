// Package runner orchestrates scenario execution: it submits each
// scenario to the emulator, polls to completion, reconstructs the state
// timeline, runs the validators, and aggregates everything into a report.
package runner

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/deepnoodle-ai/stepcheck"
	"github.com/deepnoodle-ai/stepcheck/validate"
)

// Phase tracks how far a scenario progressed through its lifecycle.
// Phases only move forward; the terminal phase is always PhaseDone.
type Phase string

const (
	PhasePending        Phase = "pending"
	PhaseSubmitted      Phase = "submitted"
	PhasePolling        Phase = "polling"
	PhaseReconstructing Phase = "reconstructing"
	PhaseValidating     Phase = "validating"
	PhaseDone           Phase = "done"
)

// Status is the final disposition of one scenario. Failed means the
// workflow or a validation check did not meet its contract; Errored means
// infrastructure prevented a verdict. The two are never conflated.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
)

// ScenarioResult is the complete record of one scenario run.
type ScenarioResult struct {
	Name            string                      `json:"name"`
	Status          Status                      `json:"status"`
	Phase           Phase                       `json:"phase"`
	Handle          stepcheck.ExecutionHandle   `json:"execution_handle,omitempty"`
	ExecutionStatus stepcheck.ExecutionStatus   `json:"execution_status,omitempty"`
	DurationSeconds float64                     `json:"duration_seconds"`
	Validations     []validate.ValidationResult `json:"validations,omitempty"`
	Warnings        []string                    `json:"warnings,omitempty"`
	Error           string                      `json:"error,omitempty"`
	ErrorType       string                      `json:"error_type,omitempty"`
	States          []StateSummary              `json:"states,omitempty"`
	FinalOutput     json.RawMessage             `json:"final_output,omitempty"`
	StartedAt       time.Time                   `json:"started_at"`

	// Carried for the data-flow analysis block, not serialized per test.
	transitions []StateTransition
	continuity  *validate.ValidationResult
}

// StateSummary is the report view of one reconstructed state traversal.
type StateSummary struct {
	Name            string  `json:"name"`
	Ordinal         int     `json:"ordinal"`
	DurationSeconds float64 `json:"duration_seconds"`
	HasOutput       bool    `json:"has_output"`
}

// failedValidations counts the checks that did not pass.
func (r *ScenarioResult) failedValidations() int {
	n := 0
	for _, v := range r.Validations {
		if !v.Passed {
			n++
		}
	}
	return n
}

// classifyError maps an infrastructure error onto its taxonomy name.
func classifyError(err error) string {
	var connErr *stepcheck.ConnectionError
	if errors.As(err, &connErr) {
		return "connection_error"
	}
	var notFound *stepcheck.DefinitionNotFoundError
	if errors.As(err, &notFound) {
		return "definition_not_found"
	}
	var timeout *stepcheck.ExecutionTimeoutError
	if errors.As(err, &timeout) {
		return "execution_timeout"
	}
	var malformed *stepcheck.MalformedHistoryError
	if errors.As(err, &malformed) {
		return "malformed_history"
	}
	return "internal_error"
}
