package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/tablemerge/pkg/core"
	"github.com/spf13/cobra"
)

// NewRecoverCommand creates the recover command.
func NewRecoverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover [key]",
		Short: "Rebuild the outputs from a stored checkpoint",
		Long: `Load a checkpoint saved by an earlier run, deduplicate and filter it, and write
it to the configured outputs without reading any document.

Without a key the most recent checkpoint is used. Keys have the form
<checkpoint_name>.<YYYYMMDD>; list them with 'tablemerge checkpoints list'.`,
		Example: `  # Rebuild from the latest checkpoint
  tablemerge recover

  # Rebuild a specific day into DuckDB
  tablemerge recover tables.20261014 --outputs duckdb`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) > 0 {
				key = args[0]
			}
			return runRecover(cmd, key)
		},
	}

	cmd.Flags().StringSlice("outputs", nil, "Output sinks to write (csv, xlsx, duckdb, postgres, sqlite)")
	cmd.Flags().String("absent-token", "", "Text written for missing values in text outputs")
	cmd.Flags().Bool("transliterate", false, "Fold accented letters to ASCII instead of dropping them")

	return cmd
}

func runRecover(cmd *cobra.Command, key string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	start := time.Now()
	res, runErr := cmdCtx.Engine.Recover(cmd.Context(), key)
	if errors.Is(runErr, core.ErrNoCheckpoint) {
		return fmt.Errorf("%w\nHint: Run 'tablemerge checkpoints list' to see stored checkpoints", runErr)
	}
	if res != nil {
		if err := renderResult(cmdCtx.Renderer, res, time.Since(start)); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("recover failed: %w", runErr)
	}
	return nil
}
