// Command calvin deploys and watches a promptpack against one or more AI
// coding assistant targets (spec §1). The flag surface here is
// intentionally thin: every decision of substance lives in pkg/deploy,
// pkg/watcher, and their dependencies, the way the teacher keeps its own
// cmd/ binaries as argument parsing plus a call into pkg/cli.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags, matching the
// teacher's cmd/gh-aw/main.go version wiring.
var version = "dev"

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "calvin",
		Short:         "Compile and deploy a promptpack to AI coding assistants",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(newDeployCommand())
	cmd.AddCommand(newWatchCommand())
	return cmd
}
