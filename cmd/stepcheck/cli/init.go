package cli

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stepcheck/config"
)

var initOutputFlag string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample scenario suite to get started",
	RunE: func(cmd *cobra.Command, args []string) error {
		arn := stateMachineARNFlag
		if arn == "" {
			arn = "arn:aws:states:us-east-1:123456789012:stateMachine:TestWorkflow"
		}
		data, err := yaml.Marshal(config.Default(arn))
		if err != nil {
			return err
		}
		if _, err := os.Stat(initOutputFlag); err == nil {
			return fmt.Errorf("%s already exists, not overwriting", initOutputFlag)
		}
		if err := os.WriteFile(initOutputFlag, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote sample suite to %s\n", initOutputFlag)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&initOutputFlag, "output", "o", "stepcheck.yaml",
		"Path for the generated suite file")
	rootCmd.AddCommand(initCmd)
}
