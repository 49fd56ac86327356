package runner

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/deepnoodle-ai/stepcheck/internal/tablewriter"
)

var (
	passColor  = color.New(color.FgGreen, color.Bold)
	failColor  = color.New(color.FgRed, color.Bold)
	errorColor = color.New(color.FgYellow, color.Bold)
)

// WriteText renders the report for terminals: a verdict table, violation
// details for anything that did not pass, and a summary footer.
func (r *Report) WriteText(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Scenario", "Status", "States", "Duration"})
	for _, result := range r.TestDetails {
		table.Append([]string{
			result.Name,
			statusLabel(result.Status),
			fmt.Sprintf("%d", len(result.States)),
			fmt.Sprintf("%.2fs", result.DurationSeconds),
		})
	}
	table.Render()

	for _, result := range r.TestDetails {
		if result.Status == StatusPassed && len(result.Warnings) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", result.Name)

		if result.Status == StatusErrored {
			fmt.Fprintf(w, "  %s: %s\n", result.ErrorType, result.Error)
			continue
		}
		if result.Error != "" {
			fmt.Fprintf(w, "  %s\n", result.Error)
		}
		for _, validation := range result.Validations {
			if validation.Passed {
				continue
			}
			fmt.Fprintf(w, "  %s\n", validation.Message)
			for _, detail := range validation.Details {
				line := detail.Message
				if detail.Path != "" {
					line = detail.Path + ": " + line
				}
				if detail.Expected != "" || detail.Actual != "" {
					line += fmt.Sprintf(" (expected %q, got %q)", detail.Expected, detail.Actual)
				}
				fmt.Fprintf(w, "    - %s\n", line)
				if detail.Diff != "" {
					fmt.Fprint(w, detail.Diff)
				}
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warning)
		}
	}

	fmt.Fprintf(w, "\n%d total, %s, %s, %s  (%.0f%% in %.2fs)\n",
		r.Summary.Total,
		passColor.Sprintf("%d passed", r.Summary.Passed),
		failColor.Sprintf("%d failed", r.Summary.Failed),
		errorColor.Sprintf("%d errored", r.Summary.Errored),
		r.Summary.SuccessRate*100,
		r.Summary.TotalDurationSeconds)

	if r.DataFlowAnalysis.ScenariosAnalyzed > 0 {
		fmt.Fprintf(w, "data flow: %d scenario(s) analyzed, %d continuity violation(s)\n",
			r.DataFlowAnalysis.ScenariosAnalyzed,
			r.DataFlowAnalysis.ContinuityViolations)
	}
	return nil
}

func statusLabel(status Status) string {
	switch status {
	case StatusPassed:
		return passColor.Sprint("PASS")
	case StatusFailed:
		return failColor.Sprint("FAIL")
	case StatusErrored:
		return errorColor.Sprint("ERROR")
	}
	return string(status)
}
