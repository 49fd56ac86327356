package runner

import (
	"sort"
	"time"

	"github.com/deepnoodle-ai/stepcheck"
	"github.com/tidwall/gjson"
)

// StateTransition describes how the payload changed across one state
// boundary: which top-level keys the downstream state added or removed.
type StateTransition struct {
	Scenario        string    `json:"scenario"`
	FromState       string    `json:"from_state"`
	ToState         string    `json:"to_state"`
	EnteredAt       time.Time `json:"entered_at"`
	ExitedAt        time.Time `json:"exited_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	AddedKeys       []string  `json:"added_keys,omitempty"`
	RemovedKeys     []string  `json:"removed_keys,omitempty"`
}

// DataFlowAnalysis is the suite-wide view of cross-state data movement.
type DataFlowAnalysis struct {
	ScenariosAnalyzed    int               `json:"scenarios_analyzed"`
	ContinuityViolations int               `json:"continuity_violations"`
	Transitions          []StateTransition `json:"transitions,omitempty"`
}

// computeTransitions derives key-level movement between consecutive state
// outputs of one reconstructed execution.
func computeTransitions(scenarioName string, records []stepcheck.StateRecord) []StateTransition {
	var transitions []StateTransition
	for i := 1; i < len(records); i++ {
		prev, curr := records[i-1], records[i]
		if len(prev.Output) == 0 || len(curr.Output) == 0 {
			continue
		}
		prevKeys := topLevelKeys(prev.Output)
		currKeys := topLevelKeys(curr.Output)
		transitions = append(transitions, StateTransition{
			Scenario:        scenarioName,
			FromState:       prev.Name,
			ToState:         curr.Name,
			EnteredAt:       curr.EnteredAt,
			ExitedAt:        curr.ExitedAt,
			DurationSeconds: curr.Duration.Seconds(),
			AddedKeys:       missingFrom(currKeys, prevKeys),
			RemovedKeys:     missingFrom(prevKeys, currKeys),
		})
	}
	return transitions
}

func buildDataFlowAnalysis(results []ScenarioResult) DataFlowAnalysis {
	analysis := DataFlowAnalysis{}
	for _, result := range results {
		if len(result.transitions) == 0 && result.continuity == nil {
			continue
		}
		analysis.ScenariosAnalyzed++
		analysis.Transitions = append(analysis.Transitions, result.transitions...)
		if result.continuity != nil && !result.continuity.Passed {
			analysis.ContinuityViolations += len(result.continuity.Details)
		}
	}
	return analysis
}

func topLevelKeys(doc []byte) []string {
	var keys []string
	gjson.ParseBytes(doc).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	sort.Strings(keys)
	return keys
}

// missingFrom returns the members of a not present in b.
func missingFrom(a, b []string) []string {
	present := make(map[string]bool, len(b))
	for _, key := range b {
		present[key] = true
	}
	var out []string
	for _, key := range a {
		if !present[key] {
			out = append(out, key)
		}
	}
	return out
}
