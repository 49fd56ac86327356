// Package cli implements the stepcheck command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stepcheck/slogger"
)

var (
	endpointFlag        string
	regionFlag          string
	stateMachineARNFlag string
	logLevelFlag        string
)

var rootCmd = &cobra.Command{
	Use:   "stepcheck",
	Short: "Verify serverless workflows against a local Step Functions emulator",
	Long: `stepcheck runs scenario suites against a locally emulated Step Functions
workflow: it starts executions, polls them to completion, reconstructs the
per-state timeline from the execution history, and validates state output
contracts and cross-state data flow.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func getLogger() slogger.Logger {
	level := slogger.LevelFromString(logLevelFlag)
	return slogger.New(level)
}

// Execute runs the CLI, exiting nonzero on any error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpointFlag, "endpoint", "",
		"Emulator endpoint (default http://localhost:8083)")
	rootCmd.PersistentFlags().StringVar(&regionFlag, "region", "",
		"AWS region name the emulator expects (default us-east-1)")
	rootCmd.PersistentFlags().StringVar(&stateMachineARNFlag, "state-machine", "",
		"ARN of the state machine to test")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "warn",
		"Log level (debug, info, warn, error)")
}
