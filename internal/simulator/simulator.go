// Package simulator produces the payloads and event logs of the reference
// three-state workflow chain. Tests use it to exercise reconstruction and
// validation without a running emulator.
package simulator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/deepnoodle-ai/stepcheck"
)

// State1 transforms the workflow input the way the first compute function
// does: prefix the value and attach processing metadata.
func State1(input json.RawMessage, now time.Time) (json.RawMessage, error) {
	var payload struct {
		RequestID string         `json:"requestId"`
		InputData map[string]any `json:"inputData"`
	}
	if err := json.Unmarshal(input, &payload); err != nil {
		return nil, fmt.Errorf("state1: invalid input: %w", err)
	}
	if payload.RequestID == "" || payload.InputData == nil {
		return nil, fmt.Errorf("state1: input validation failed")
	}
	value, _ := payload.InputData["value"].(string)

	out := map[string]any{
		"requestId": payload.RequestID,
		"state1Output": map[string]any{
			"processedValue": "State1_processed_" + value,
			"originalInput":  value,
			"inputMetadata":  payload.InputData["metadata"],
			"processingDetails": map[string]any{
				"transformationType": "prefix_addition",
				"processingTime":     now.Format(time.RFC3339),
			},
		},
		"stateMetadata": map[string]any{
			"state":         "State1",
			"executionTime": now.Format(time.RFC3339),
			"functionName":  "local_test",
		},
	}
	return json.Marshal(out)
}

// State2 enhances State1's output while preserving it.
func State2(input json.RawMessage, now time.Time) (json.RawMessage, error) {
	var payload map[string]any
	if err := json.Unmarshal(input, &payload); err != nil {
		return nil, fmt.Errorf("state2: invalid input: %w", err)
	}
	state1Output, ok := payload["state1Output"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("state2: missing state1Output")
	}
	processed, _ := state1Output["processedValue"].(string)

	out := map[string]any{
		"requestId":    payload["requestId"],
		"state1Output": state1Output,
		"state2Output": map[string]any{
			"processedValue":    "State2_enhanced_" + processed,
			"previousStateData": state1Output,
			"enhancementData": map[string]any{
				"enhancementType": "data_enrichment",
				"additionalInfo":  "enriched_at_" + now.Format("150405"),
				"processingChain": []string{"State1", "State2"},
			},
			"processingDetails": map[string]any{
				"transformationType": "enhancement_and_enrichment",
				"processingTime":     now.Format(time.RFC3339),
			},
		},
		"stateMetadata": map[string]any{
			"state":          "State2",
			"executionTime":  now.Format(time.RFC3339),
			"functionName":   "local_test",
			"previousStates": []string{"State1"},
		},
		"dataFlow": map[string]any{
			"inputSource":        "State1",
			"outputDestination":  "State3",
			"dataTransformation": "enhancement_and_enrichment",
		},
	}
	return json.Marshal(out)
}

// State3 aggregates the outputs of all upstream states into the final
// workflow result.
func State3(input json.RawMessage, now time.Time) (json.RawMessage, error) {
	var payload map[string]any
	if err := json.Unmarshal(input, &payload); err != nil {
		return nil, fmt.Errorf("state3: invalid input: %w", err)
	}
	state1Output, ok1 := payload["state1Output"].(map[string]any)
	state2Output, ok2 := payload["state2Output"].(map[string]any)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("state3: missing upstream state outputs")
	}
	processed, _ := state2Output["processedValue"].(string)
	finalValue := "State3_final_" + processed

	processingChain := []map[string]any{
		{"state": "State1", "processedValue": state1Output["processedValue"]},
		{"state": "State2", "processedValue": state2Output["processedValue"]},
		{"state": "State3", "processedValue": finalValue},
	}
	state3Output := map[string]any{
		"finalProcessedValue": finalValue,
		"processingChain":     processingChain,
		"aggregatedMetadata": map[string]any{
			"totalStates":         3,
			"originalInput":       state1Output["originalInput"],
			"finalTransformation": "complete_workflow_processing",
		},
	}

	out := map[string]any{
		"requestId": payload["requestId"],
		"executionSummary": map[string]any{
			"totalStates":        3,
			"executionStatus":    "SUCCESS",
			"processingEndTime":  now.Format(time.RFC3339),
			"dataFlowValidation": "PASSED",
		},
		"allStatesData": map[string]any{
			"state1Output": state1Output,
			"state2Output": state2Output,
			"state3Output": state3Output,
		},
		"finalResult": map[string]any{
			"success":         true,
			"finalValue":      finalValue,
			"processingChain": processingChain,
			"workflowMetadata": map[string]any{
				"completedStates": []string{"State1", "State2", "State3"},
				"dataIntegrity":   "VERIFIED",
			},
		},
		"stateMetadata": map[string]any{
			"state":              "State3",
			"executionTime":      now.Format(time.RFC3339),
			"functionName":       "local_test",
			"previousStates":     []string{"State1", "State2"},
			"isWorkflowComplete": true,
		},
	}
	return json.Marshal(out)
}

var states = []struct {
	name string
	fn   func(json.RawMessage, time.Time) (json.RawMessage, error)
}{
	{"State1", State1},
	{"State2", State2},
	{"State3", State3},
}

// BuildHistory runs the chain against the given workflow input and returns
// the event log the emulator would emit for it, along with the final
// output. Each state takes stepDuration of simulated time.
func BuildHistory(input json.RawMessage, start time.Time, stepDuration time.Duration) ([]stepcheck.ExecutionEvent, json.RawMessage, error) {
	var events []stepcheck.ExecutionEvent
	id := int64(0)
	now := start
	next := func() int64 { id++; return id }

	events = append(events, stepcheck.ExecutionEvent{
		ID:        next(),
		Timestamp: now,
		Kind:      stepcheck.KindExecutionStarted,
		RawType:   "ExecutionStarted",
		Input:     input,
	})

	current := input
	for _, state := range states {
		events = append(events, stepcheck.ExecutionEvent{
			ID:        next(),
			Timestamp: now,
			Kind:      stepcheck.KindStateEntered,
			RawType:   "TaskStateEntered",
			StateName: state.name,
			Input:     current,
		})
		now = now.Add(stepDuration)
		output, err := state.fn(current, now)
		if err != nil {
			events = append(events, stepcheck.ExecutionEvent{
				ID:        next(),
				Timestamp: now,
				Kind:      stepcheck.KindExecutionFailed,
				RawType:   "ExecutionFailed",
				Error:     "States.TaskFailed",
				Cause:     err.Error(),
			})
			return events, nil, nil
		}
		events = append(events, stepcheck.ExecutionEvent{
			ID:        next(),
			Timestamp: now,
			Kind:      stepcheck.KindStateExited,
			RawType:   "TaskStateExited",
			StateName: state.name,
			Output:    output,
		})
		current = output
	}

	events = append(events, stepcheck.ExecutionEvent{
		ID:        next(),
		Timestamp: now,
		Kind:      stepcheck.KindExecutionSucceeded,
		RawType:   "ExecutionSucceeded",
		Output:    current,
	})
	return events, current, nil
}

// Input builds a minimal valid workflow input document.
func Input(requestID, value string) json.RawMessage {
	doc := map[string]any{
		"requestId": requestID,
		"inputData": map[string]any{"value": value},
	}
	data, _ := json.Marshal(doc)
	return data
}
