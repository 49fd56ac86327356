package stepcheck

import (
	"fmt"
	"time"
)

// ConnectionError indicates the emulator could not be reached after the
// client exhausted its transient-error retries.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("emulator unreachable at %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// DefinitionNotFoundError indicates the workflow identifier is unknown to
// the emulator. It is never retried.
type DefinitionNotFoundError struct {
	StateMachineARN string
	Err             error
}

func (e *DefinitionNotFoundError) Error() string {
	return fmt.Sprintf("state machine not found: %s", e.StateMachineARN)
}

func (e *DefinitionNotFoundError) Unwrap() error { return e.Err }

// ExecutionTimeoutError indicates polling gave up before the execution
// reached a terminal status. The handle remains valid for inspection; the
// in-flight execution is not cancelled.
type ExecutionTimeoutError struct {
	Handle  ExecutionHandle
	Timeout time.Duration
}

func (e *ExecutionTimeoutError) Error() string {
	return fmt.Sprintf("execution %s did not complete within %s", e.Handle, e.Timeout)
}

// MalformedHistoryError indicates the event log violates the ordering
// contract (sequence gap, interleaved state pairs, missing exit or terminal
// event). Reconstruction never guesses past one of these.
type MalformedHistoryError struct {
	Reason    string
	EventID   int64
	StateName string
}

func (e *MalformedHistoryError) Error() string {
	msg := "malformed execution history: " + e.Reason
	if e.StateName != "" {
		msg += fmt.Sprintf(" (state %q)", e.StateName)
	}
	if e.EventID > 0 {
		msg += fmt.Sprintf(" at event %d", e.EventID)
	}
	return msg
}
