package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/stepcheck/sfn"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the emulator is reachable and the state machine exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := sfn.New(cmd.Context(), sfn.Options{
			Endpoint: endpointFlag,
			Region:   regionFlag,
			Logger:   getLogger(),
		})
		if err != nil {
			return err
		}

		if err := client.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("emulator check failed: %w", err)
		}
		color.New(color.FgGreen).Fprintln(os.Stdout, "emulator reachable")

		if stateMachineARNFlag != "" {
			if err := client.CheckStateMachine(cmd.Context(), stateMachineARNFlag); err != nil {
				return fmt.Errorf("state machine check failed: %w", err)
			}
			color.New(color.FgGreen).Fprintf(os.Stdout, "state machine found: %s\n", stateMachineARNFlag)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
