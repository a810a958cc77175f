package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/tablemerge/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewCheckpointsCommand creates the checkpoints command group.
func NewCheckpointsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "Manage stored checkpoints",
		Long: `Every run stores the aggregated dataset under a daily key before
deduplication. Use these commands to list stored checkpoints or remove old ones.`,
		Aliases: []string{"cp"},
	}

	cmd.AddCommand(newCheckpointsListCommand())
	cmd.AddCommand(newCheckpointsPruneCommand())

	return cmd
}

func newCheckpointsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored checkpoints, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			infos, err := cmdCtx.Engine.Store().ListCheckpoints(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list checkpoints: %w", err)
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				out := make([]output.CheckpointOutput, 0, len(infos))
				for _, info := range infos {
					out = append(out, output.CheckpointOutput{
						Key:       info.Key,
						RunID:     info.RunID,
						CreatedAt: formatTime(info.CreatedAt),
						Columns:   info.Columns,
						Records:   info.Records,
						Bytes:     info.Bytes,
					})
				}
				return r.JSON(out)
			}

			r.Header(1, fmt.Sprintf("Checkpoints (%d)", len(infos)))
			if len(infos) == 0 {
				r.Muted("no checkpoints stored")
				return nil
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{
					info.Key,
					formatTime(info.CreatedAt),
					strconv.Itoa(info.Columns),
					strconv.Itoa(info.Records),
					strconv.FormatInt(info.Bytes, 10),
					info.RunID,
				})
			}
			r.Table([]string{"Key", "Created", "Columns", "Records", "Bytes", "Run"}, rows)
			return nil
		},
	}
}

func newCheckpointsPruneCommand() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest checkpoints",
		Example: `  # Keep the last week of daily checkpoints
  tablemerge checkpoints prune --keep 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if keep < 0 {
				return fmt.Errorf("--keep must not be negative, got %d", keep)
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			removed, err := cmdCtx.Engine.Store().PruneCheckpoints(cmd.Context(), keep)
			if err != nil {
				return fmt.Errorf("failed to prune checkpoints: %w", err)
			}
			cmdCtx.Logger.Info("pruned checkpoints", "removed", removed, "kept", keep)

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]int{"removed": removed, "kept": keep})
			}
			r.Success(fmt.Sprintf("removed %d checkpoints", removed))
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 5, "Number of newest checkpoints to keep")

	return cmd
}
