package validate

import (
	"encoding/json"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Detail pinpoints one failed check: the field path, what was expected,
// and what was found.
type Detail struct {
	Path     string `json:"path,omitempty"`
	Message  string `json:"message"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Diff     string `json:"diff,omitempty"`
}

// ValidationResult is the outcome of one check family over one payload.
// Warnings never fail a result; they flag values that deviate from
// expected conventions without breaking the contract.
type ValidationResult struct {
	Name     string   `json:"name"`
	Passed   bool     `json:"passed"`
	Message  string   `json:"message"`
	Details  []Detail `json:"details,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func newResult(name string, details []Detail, warnings []string) ValidationResult {
	result := ValidationResult{
		Name:     name,
		Passed:   len(details) == 0,
		Details:  details,
		Warnings: warnings,
	}
	if result.Passed {
		result.Message = name + " passed"
	} else {
		result.Message = fmt.Sprintf("%s failed with %d problem(s)", name, len(details))
	}
	return result
}

// jsonDiff renders a unified diff between two JSON documents, normalized
// through re-marshaling so key order does not produce noise.
func jsonDiff(expected, actual []byte) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(prettyJSON(expected)),
		B:        difflib.SplitLines(prettyJSON(actual)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  2,
	})
	if err != nil {
		return ""
	}
	return diff
}

func prettyJSON(data []byte) string {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return string(data)
	}
	pretty, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return string(data)
	}
	return string(pretty) + "\n"
}

// canonicalJSON re-marshals a document so that two logically equal
// documents compare byte-equal.
func canonicalJSON(data []byte) (string, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return "", err
	}
	out, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
