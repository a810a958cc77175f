package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/tablemerge/internal/cli/output"
	"github.com/leapstack-labs/tablemerge/pkg/core"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Long:  `List recent run and recover executions with their status and counters, newest first.`,
		Example: `  tablemerge history
  tablemerge history --limit 50 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			runs, err := cmdCtx.Engine.Store().ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			return renderHistory(cmdCtx.Renderer, runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")

	return cmd
}

func runInfo(run *core.Run) output.RunInfo {
	info := output.RunInfo{
		ID:            run.ID,
		Kind:          string(run.Kind),
		Status:        string(run.Status),
		StartedAt:     formatTime(run.StartedAt),
		Documents:     run.Documents,
		Tables:        run.Tables,
		SkippedTables: run.SkippedTables,
		Records:       run.Records,
		CheckpointKey: run.CheckpointKey,
		Error:         run.Error,
	}
	if run.CompletedAt != nil {
		info.CompletedAt = formatTime(*run.CompletedAt)
	}
	return info
}

func renderHistory(r *output.Renderer, runs []*core.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		out := make([]output.RunInfo, 0, len(runs))
		for _, run := range runs {
			out = append(out, runInfo(run))
		}
		return r.JSON(out)
	}

	r.Header(1, fmt.Sprintf("Runs (%d)", len(runs)))
	if len(runs) == 0 {
		r.Muted("no runs recorded")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		info := runInfo(run)
		rows = append(rows, []string{
			info.StartedAt,
			info.Kind,
			info.Status,
			strconv.Itoa(info.Documents),
			strconv.Itoa(info.Tables),
			strconv.Itoa(info.Records),
			info.CheckpointKey,
			info.Error,
		})
	}
	r.Table([]string{"Started", "Kind", "Status", "Documents", "Tables", "Records", "Checkpoint", "Error"}, rows)
	return nil
}
