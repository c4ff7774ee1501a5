package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/calvin-dev/calvin/pkg/watcher"
)

// newWatchCommand builds "calvin watch": the long-running debounced
// filesystem watch loop that re-runs deploy on every settled burst of
// changes, until SIGINT/SIGTERM clears the cooperative running flag
// (spec §4.8).
func newWatchCommand() *cobra.Command {
	flags := &sharedFlags{}
	var watchAllLayers bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the promptpack and redeploy on every change",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, env, err := flags.resolve()
			if err != nil {
				return err
			}

			w, err := watcher.New(watcher.Options{
				DeployOptions:  opts,
				Env:            env,
				Sink:           env.Sink,
				WatchAllLayers: watchAllLayers,
			})
			if err != nil {
				return fmt.Errorf("calvin: watch: %w", err)
			}

			var running atomic.Bool
			running.Store(true)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				running.Store(false)
			}()
			defer signal.Stop(sigCh)

			return w.Run(&running)
		},
	}
	bindSharedFlags(cmd, flags)
	cmd.Flags().BoolVar(&watchAllLayers, "watch-all-layers", false, "watch every resolved layer root instead of just --source")
	return cmd
}
