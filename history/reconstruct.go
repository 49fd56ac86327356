// Package history reconstructs per-state timelines from raw execution
// event logs. Events are ordered strictly by the emulator-assigned sequence
// number; any gap, interleaved state pair, or missing exit or terminal
// event fails reconstruction rather than being guessed around.
package history

import (
	"github.com/deepnoodle-ai/stepcheck"
)

// Result is the reconstructed view of one execution: the ordered state
// records plus the terminal outcome.
type Result struct {
	Records []stepcheck.StateRecord
	Outcome stepcheck.ExecutionOutcome
}

type openState struct {
	name      string
	enteredAt stepcheck.ExecutionEvent
}

// Reconstruct walks the event log in sequence order and pairs each
// state-entered event with its matching state-exited event. It is a pure
// function: the same log always yields the same result.
//
// A failed, timed out, or aborted execution still yields the records
// reconstructed up to and including the failing state; that state's record
// has no output and its duration runs to the terminal event.
func Reconstruct(events []stepcheck.ExecutionEvent) (*Result, error) {
	if len(events) == 0 {
		return nil, &stepcheck.MalformedHistoryError{Reason: "event log is empty"}
	}

	var (
		records  []stepcheck.StateRecord
		open     *openState
		terminal *stepcheck.ExecutionEvent
		prevID   int64
	)

	for i := range events {
		event := events[i]

		if i > 0 {
			if event.ID <= prevID {
				return nil, &stepcheck.MalformedHistoryError{
					Reason:  "sequence numbers are not strictly increasing",
					EventID: event.ID,
				}
			}
			if event.ID != prevID+1 {
				return nil, &stepcheck.MalformedHistoryError{
					Reason:  "sequence number gap",
					EventID: event.ID,
				}
			}
		}
		prevID = event.ID

		if terminal != nil {
			return nil, &stepcheck.MalformedHistoryError{
				Reason:  "events present after terminal event",
				EventID: event.ID,
			}
		}

		switch event.Kind {
		case stepcheck.KindStateEntered:
			if open != nil {
				return nil, &stepcheck.MalformedHistoryError{
					Reason:    "state entered while " + open.name + " is still open",
					EventID:   event.ID,
					StateName: event.StateName,
				}
			}
			open = &openState{name: event.StateName, enteredAt: event}

		case stepcheck.KindStateExited:
			if open == nil {
				return nil, &stepcheck.MalformedHistoryError{
					Reason:    "state exited without a matching entry",
					EventID:   event.ID,
					StateName: event.StateName,
				}
			}
			if open.name != event.StateName {
				return nil, &stepcheck.MalformedHistoryError{
					Reason:    "exit event for a different state than the open one (" + open.name + ")",
					EventID:   event.ID,
					StateName: event.StateName,
				}
			}
			records = append(records, stepcheck.StateRecord{
				Name:      open.name,
				Ordinal:   len(records) + 1,
				Input:     open.enteredAt.Input,
				Output:    event.Output,
				EnteredAt: open.enteredAt.Timestamp,
				ExitedAt:  event.Timestamp,
				Duration:  event.Timestamp.Sub(open.enteredAt.Timestamp),
			})
			open = nil

		case stepcheck.KindExecutionSucceeded,
			stepcheck.KindExecutionFailed,
			stepcheck.KindExecutionTimedOut,
			stepcheck.KindExecutionAborted:
			terminal = &events[i]
		}
	}

	if terminal == nil {
		return nil, &stepcheck.MalformedHistoryError{
			Reason:  "event log ends without a terminal event",
			EventID: prevID,
		}
	}

	outcome := stepcheck.ExecutionOutcome{Status: terminalStatus(terminal.Kind)}

	switch terminal.Kind {
	case stepcheck.KindExecutionSucceeded:
		if open != nil {
			return nil, &stepcheck.MalformedHistoryError{
				Reason:    "execution succeeded with a state missing its exit event",
				EventID:   terminal.ID,
				StateName: open.name,
			}
		}
		outcome.Output = terminal.Output
	default:
		if open != nil {
			records = append(records, stepcheck.StateRecord{
				Name:      open.name,
				Ordinal:   len(records) + 1,
				Input:     open.enteredAt.Input,
				EnteredAt: open.enteredAt.Timestamp,
				ExitedAt:  terminal.Timestamp,
				Duration:  terminal.Timestamp.Sub(open.enteredAt.Timestamp),
			})
		}
		outcome.ErrorType = terminal.Error
		outcome.ErrorCause = terminal.Cause
	}

	return &Result{Records: records, Outcome: outcome}, nil
}

func terminalStatus(kind stepcheck.EventKind) stepcheck.ExecutionStatus {
	switch kind {
	case stepcheck.KindExecutionSucceeded:
		return stepcheck.StatusSucceeded
	case stepcheck.KindExecutionFailed:
		return stepcheck.StatusFailed
	case stepcheck.KindExecutionTimedOut:
		return stepcheck.StatusTimedOut
	case stepcheck.KindExecutionAborted:
		return stepcheck.StatusAborted
	}
	return stepcheck.StatusRunning
}
