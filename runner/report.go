package runner

import (
	"encoding/json"
	"io"
	"time"
)

// Summary aggregates the suite-level counts.
type Summary struct {
	Total                int     `json:"total"`
	Passed               int     `json:"passed"`
	Failed               int     `json:"failed"`
	Errored              int     `json:"errored"`
	SuccessRate          float64 `json:"success_rate"`
	TotalDurationSeconds float64 `json:"total_duration"`
}

// Report is the stable machine-readable output of one suite run. Scenario
// results appear in suite order regardless of completion order.
type Report struct {
	Summary          Summary          `json:"summary"`
	TestDetails      []ScenarioResult `json:"test_details"`
	DataFlowAnalysis DataFlowAnalysis `json:"data_flow_analysis"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// BuildReport assembles the final report from per-scenario results.
func BuildReport(results []ScenarioResult, totalDuration time.Duration, generatedAt time.Time) *Report {
	summary := Summary{
		Total:                len(results),
		TotalDurationSeconds: totalDuration.Seconds(),
	}
	for _, result := range results {
		switch result.Status {
		case StatusPassed:
			summary.Passed++
		case StatusFailed:
			summary.Failed++
		case StatusErrored:
			summary.Errored++
		}
	}
	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Passed) / float64(summary.Total)
	}
	return &Report{
		Summary:          summary,
		TestDetails:      results,
		DataFlowAnalysis: buildDataFlowAnalysis(results),
		GeneratedAt:      generatedAt,
	}
}

// AllPassed reports whether every scenario passed.
func (r *Report) AllPassed() bool {
	return r.Summary.Passed == r.Summary.Total
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
