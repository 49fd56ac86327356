// Package stepcheck verifies a chained serverless workflow against a local
// Step Functions emulator. It starts executions, polls them to completion,
// rebuilds a per-state timeline from the execution history, and validates
// both individual state contracts and end-to-end data-flow continuity.
package stepcheck

import (
	"encoding/json"
	"time"
)

// ExecutionStatus is the emulator-reported status of a workflow execution.
type ExecutionStatus string

const (
	StatusRunning   ExecutionStatus = "RUNNING"
	StatusSucceeded ExecutionStatus = "SUCCEEDED"
	StatusFailed    ExecutionStatus = "FAILED"
	StatusTimedOut  ExecutionStatus = "TIMED_OUT"
	StatusAborted   ExecutionStatus = "ABORTED"
)

// IsTerminal reports whether the status is a final one.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusTimedOut, StatusAborted:
		return true
	}
	return false
}

// ExecutionHandle identifies one execution on the emulator. It is opaque to
// callers; the emulator issues it on submission and accepts it back for
// status and history lookups.
type ExecutionHandle string

// EventKind classifies an entry in an execution's event history.
type EventKind string

const (
	KindExecutionStarted   EventKind = "execution_started"
	KindStateEntered       EventKind = "state_entered"
	KindStateExited        EventKind = "state_exited"
	KindExecutionSucceeded EventKind = "execution_succeeded"
	KindExecutionFailed    EventKind = "execution_failed"
	KindExecutionTimedOut  EventKind = "execution_timed_out"
	KindExecutionAborted   EventKind = "execution_aborted"

	// KindOther covers emulator event types the reconstructor does not
	// interpret (Lambda scheduling, task submission, and so on).
	KindOther EventKind = "other"
)

// ExecutionEvent is one entry in the ordered event log of an execution.
// ID is the emulator-assigned sequence number and is the only ordering
// authority; timestamps may tie.
type ExecutionEvent struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      EventKind       `json:"kind"`
	RawType   string          `json:"raw_type,omitempty"`
	StateName string          `json:"state_name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
	Error     string          `json:"error,omitempty"`
	Cause     string          `json:"cause,omitempty"`
}

// StateRecord is the reconstructed view of one state traversal: what the
// state received, what it produced, and how long it ran. Ordinal is the
// 1-based position of the state in the traversal order.
type StateRecord struct {
	Name      string          `json:"name"`
	Ordinal   int             `json:"ordinal"`
	Input     json.RawMessage `json:"input"`
	Output    json.RawMessage `json:"output"`
	EnteredAt time.Time       `json:"entered_at"`
	ExitedAt  time.Time       `json:"exited_at"`
	Duration  time.Duration   `json:"duration"`
}

// ExecutionOutcome is the terminal result of an execution. Output is set
// only when the execution succeeded; ErrorType and ErrorCause carry the
// failure detail otherwise.
type ExecutionOutcome struct {
	Status     ExecutionStatus `json:"status"`
	Output     json.RawMessage `json:"output,omitempty"`
	ErrorType  string          `json:"error_type,omitempty"`
	ErrorCause string          `json:"error_cause,omitempty"`
}

// ExecutionRequest identifies the workflow to invoke and the input payload
// for one test scenario. The payload is an arbitrary nested JSON document.
type ExecutionRequest struct {
	StateMachineARN string
	Name            string
	Input           json.RawMessage
}
