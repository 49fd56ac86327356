// Package validate holds the contract checks run against workflow inputs,
// per-state outputs, and cross-state data flow. All checks are pure
// functions over their arguments: they never mutate payloads and can run
// concurrently in any order.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/stepcheck"
	"github.com/deepnoodle-ai/stepcheck/schema"
	"github.com/tidwall/gjson"
)

// Input validates a workflow input payload against a schema before it is
// submitted to the emulator.
func Input(payload []byte, s *schema.Schema) ValidationResult {
	var details []Detail
	for _, problem := range schema.Validate(payload, s) {
		details = append(details, Detail{
			Path:     problem.Path,
			Message:  problem.Message,
			Expected: problem.Expected,
			Actual:   problem.Actual,
		})
	}
	return newResult("workflow_input", details, nil)
}

// StateOutput validates one state's output against its declared contract.
func StateOutput(stateName string, output []byte, contract *StateContract) ValidationResult {
	name := strings.ToLower(stateName) + "_output"
	if len(output) == 0 {
		return newResult(name, []Detail{{Message: "state produced no output"}}, nil)
	}

	doc := gjson.ParseBytes(output)
	var details []Detail
	var warnings []string

	for _, path := range contract.RequiredPaths {
		if !doc.Get(path).Exists() {
			details = append(details, Detail{
				Path:    path,
				Message: "required field is missing",
			})
		}
	}

	for _, check := range contract.Checks {
		value := doc.Get(check.Path)
		if !value.Exists() {
			continue // already reported by the required-path pass
		}
		if check.Type != "" && !typeOf(value, check.Type) {
			details = append(details, Detail{
				Path:     check.Path,
				Message:  "unexpected type",
				Expected: check.Type,
			})
			continue
		}
		if check.Equals != "" && value.String() != check.Equals {
			details = append(details, Detail{
				Path:     check.Path,
				Message:  "unexpected value",
				Expected: check.Equals,
				Actual:   value.String(),
			})
		}
		if check.Prefix != "" && !strings.HasPrefix(value.String(), check.Prefix) {
			warnings = append(warnings, fmt.Sprintf(
				"%s does not follow the expected %q naming pattern", check.Path, check.Prefix))
		}
	}

	return newResult(name, details, warnings)
}

// Continuity verifies the cross-state invariants of a reconstructed
// execution: the request identifier is identical in every state's output,
// each state's previous-states list grows by exactly its predecessor, the
// expected number of states ran, and each state's input is the previous
// state's output. Violations name the offending state pair and field.
func Continuity(records []stepcheck.StateRecord, expectedStates int) ValidationResult {
	var details []Detail

	if len(records) != expectedStates {
		details = append(details, Detail{
			Message:  "unexpected state count",
			Expected: fmt.Sprintf("%d states", expectedStates),
			Actual:   fmt.Sprintf("%d states", len(records)),
		})
	}

	// Request identifier must be identical across all state outputs.
	var baseID string
	var baseState string
	for _, record := range records {
		if len(record.Output) == 0 {
			continue
		}
		id := gjson.GetBytes(record.Output, "requestId").String()
		if baseState == "" {
			baseID, baseState = id, record.Name
			continue
		}
		if id != baseID {
			details = append(details, Detail{
				Path:     "requestId",
				Message:  fmt.Sprintf("%s and %s disagree on the request identifier", baseState, record.Name),
				Expected: baseID,
				Actual:   id,
			})
		}
	}

	for i := 1; i < len(records); i++ {
		prev, curr := records[i-1], records[i]

		// The previous-states list must contain everything the
		// predecessor listed, plus the predecessor itself.
		if len(curr.Output) > 0 {
			required := previousStates(prev.Output)
			required = append(required, prev.Name)
			listed := previousStates(curr.Output)
			for _, want := range required {
				if !containsString(listed, want) {
					details = append(details, Detail{
						Path: "stateMetadata.previousStates",
						Message: fmt.Sprintf("progression from %s to %s is missing %q",
							prev.Name, curr.Name, want),
						Expected: strings.Join(required, ","),
						Actual:   strings.Join(listed, ","),
					})
					break
				}
			}
		}

		// Pass-through data rule: each state receives exactly what its
		// predecessor produced.
		if len(prev.Output) > 0 && len(curr.Input) > 0 {
			prevOut, err1 := canonicalJSON(prev.Output)
			currIn, err2 := canonicalJSON(curr.Input)
			if err1 != nil || err2 != nil {
				details = append(details, Detail{
					Message: fmt.Sprintf("cannot compare %s output with %s input: invalid JSON",
						prev.Name, curr.Name),
				})
			} else if prevOut != currIn {
				details = append(details, Detail{
					Message: fmt.Sprintf("%s input does not match %s output", curr.Name, prev.Name),
					Diff:    jsonDiff(prev.Output, curr.Input),
				})
			}
		}
	}

	return newResult("data_flow_continuity", details, nil)
}

// ExpectedField is one scenario-declared assertion against the final
// execution output.
type ExpectedField struct {
	Path     string `json:"path" yaml:"path"`
	Equals   any    `json:"equals,omitempty" yaml:"equals,omitempty"`
	Contains string `json:"contains,omitempty" yaml:"contains,omitempty"`
}

// Expected checks scenario-declared assertions against the final output.
func Expected(output []byte, fields []ExpectedField) ValidationResult {
	var details []Detail
	for _, field := range fields {
		value := gjson.GetBytes(output, field.Path)
		if !value.Exists() {
			details = append(details, Detail{
				Path:    field.Path,
				Message: "field is missing from final output",
			})
			continue
		}
		if field.Equals != nil {
			want, err := json.Marshal(field.Equals)
			if err != nil {
				details = append(details, Detail{Path: field.Path, Message: "expected value is not serializable"})
				continue
			}
			got, err := canonicalJSON([]byte(value.Raw))
			if err != nil || string(want) != got {
				details = append(details, Detail{
					Path:     field.Path,
					Message:  "unexpected value",
					Expected: string(want),
					Actual:   value.Raw,
					Diff:     jsonDiff(want, []byte(value.Raw)),
				})
			}
		}
		if field.Contains != "" && !strings.Contains(value.String(), field.Contains) {
			details = append(details, Detail{
				Path:     field.Path,
				Message:  "value does not contain expected substring",
				Expected: field.Contains,
				Actual:   value.String(),
			})
		}
	}
	return newResult("expected_output", details, nil)
}

func previousStates(output []byte) []string {
	var names []string
	for _, item := range gjson.GetBytes(output, "stateMetadata.previousStates").Array() {
		names = append(names, item.String())
	}
	return names
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func typeOf(value gjson.Result, want string) bool {
	switch want {
	case "string":
		return value.Type == gjson.String
	case "number":
		return value.Type == gjson.Number
	case "boolean":
		return value.Type == gjson.True || value.Type == gjson.False
	case "object":
		return value.IsObject()
	case "array":
		return value.IsArray()
	}
	return true
}
