package sfn

import (
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn/types"

	"github.com/deepnoodle-ai/stepcheck"
)

// convertEvent maps one emulator history event onto the domain event type.
// Only state-entered, state-exited, and terminal events are interpreted;
// everything else (Lambda scheduling, task submission) becomes KindOther
// so the reconstructor can verify sequence continuity across them.
func convertEvent(event types.HistoryEvent) stepcheck.ExecutionEvent {
	out := stepcheck.ExecutionEvent{
		ID:      event.Id,
		RawType: string(event.Type),
		Kind:    stepcheck.KindOther,
	}
	if event.Timestamp != nil {
		out.Timestamp = *event.Timestamp
	}

	switch {
	case event.StateEnteredEventDetails != nil:
		out.Kind = stepcheck.KindStateEntered
		out.StateName = aws.ToString(event.StateEnteredEventDetails.Name)
		out.Input = rawJSON(event.StateEnteredEventDetails.Input)

	case event.StateExitedEventDetails != nil:
		out.Kind = stepcheck.KindStateExited
		out.StateName = aws.ToString(event.StateExitedEventDetails.Name)
		out.Output = rawJSON(event.StateExitedEventDetails.Output)

	case event.ExecutionStartedEventDetails != nil:
		out.Kind = stepcheck.KindExecutionStarted
		out.Input = rawJSON(event.ExecutionStartedEventDetails.Input)

	case event.ExecutionSucceededEventDetails != nil:
		out.Kind = stepcheck.KindExecutionSucceeded
		out.Output = rawJSON(event.ExecutionSucceededEventDetails.Output)

	case event.ExecutionFailedEventDetails != nil:
		out.Kind = stepcheck.KindExecutionFailed
		out.Error = aws.ToString(event.ExecutionFailedEventDetails.Error)
		out.Cause = aws.ToString(event.ExecutionFailedEventDetails.Cause)

	case event.ExecutionTimedOutEventDetails != nil:
		out.Kind = stepcheck.KindExecutionTimedOut
		out.Error = aws.ToString(event.ExecutionTimedOutEventDetails.Error)
		out.Cause = aws.ToString(event.ExecutionTimedOutEventDetails.Cause)

	case event.ExecutionAbortedEventDetails != nil:
		out.Kind = stepcheck.KindExecutionAborted
		out.Error = aws.ToString(event.ExecutionAbortedEventDetails.Error)
		out.Cause = aws.ToString(event.ExecutionAbortedEventDetails.Cause)

	default:
		// Some emulator builds omit the details block on bare terminal
		// events; fall back to the raw event type name.
		switch {
		case event.Type == types.HistoryEventTypeExecutionSucceeded:
			out.Kind = stepcheck.KindExecutionSucceeded
		case event.Type == types.HistoryEventTypeExecutionFailed:
			out.Kind = stepcheck.KindExecutionFailed
		case event.Type == types.HistoryEventTypeExecutionTimedOut:
			out.Kind = stepcheck.KindExecutionTimedOut
		case event.Type == types.HistoryEventTypeExecutionAborted:
			out.Kind = stepcheck.KindExecutionAborted
		case strings.HasSuffix(string(event.Type), "StateEntered"):
			out.Kind = stepcheck.KindStateEntered
		case strings.HasSuffix(string(event.Type), "StateExited"):
			out.Kind = stepcheck.KindStateExited
		}
	}
	return out
}

func rawJSON(s *string) json.RawMessage {
	if s == nil || *s == "" {
		return nil
	}
	return json.RawMessage(*s)
}
