package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/tablemerge/internal/engine"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run whenever a document in the input directory changes",
		Long: `Run once, then watch the input directory and run again after documents are
added, changed, renamed or removed. Changes are debounced so saving a file
triggers a single run. Stop with Ctrl+C.`,
		Example: `  tablemerge watch --input docs
  tablemerge watch --debounce 2s --outputs csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd)
		},
	}

	addPipelineFlags(cmd)
	cmd.Flags().Duration("debounce", 0, "Quiet period after the last change before running (default 500ms)")

	return cmd
}

func runWatch(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmdCtx.Cfg.ValidateDirectories(); err != nil {
		return err
	}

	r := cmdCtx.Renderer
	r.Muted(fmt.Sprintf("watching %s", cmdCtx.Cfg.InputDir))

	return cmdCtx.Engine.Watch(cmd.Context(), engine.WatchOptions{
		Debounce: cmdCtx.Cfg.Watch.Debounce,
		OnResult: func(res *engine.Result, runErr error) {
			if res != nil {
				_ = renderResult(r, res, runElapsed(res))
			}
			if runErr != nil {
				r.Warning(fmt.Sprintf("run failed: %v", runErr))
			}
		},
	})
}

func runElapsed(res *engine.Result) time.Duration {
	run := res.Run
	if run == nil || run.CompletedAt == nil {
		return 0
	}
	return run.CompletedAt.Sub(run.StartedAt)
}
