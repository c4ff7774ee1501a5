package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calvin-dev/calvin/pkg/deploy"
)

// newDeployCommand builds the one-shot "calvin deploy" command: resolve
// flags and config.toml into a DeployOptions/Env pair, run it once, and
// report the result (spec §4.7).
func newDeployCommand() *cobra.Command {
	flags := &sharedFlags{}
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Compile the promptpack and sync it to the configured targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, env, err := flags.resolve()
			if err != nil {
				return err
			}

			result, err := deploy.Run(opts, env)
			if err != nil {
				return fmt.Errorf("calvin: deploy: %w", err)
			}

			if !flags.jsonOutput {
				printDeploySummary(result)
			}
			for _, w := range result.Warnings {
				fmt.Fprintln(os.Stderr, "warning:", w)
			}
			if !result.Success {
				return fmt.Errorf("calvin: deploy completed with %d error(s)", result.Errors)
			}
			return nil
		},
	}
	bindSharedFlags(cmd, flags)
	return cmd
}

func printDeploySummary(result *deploy.Result) {
	fmt.Printf("written %d, skipped %d, deleted %d, errors %d\n",
		result.Written, result.Skipped, result.Deleted, result.Errors)
}
