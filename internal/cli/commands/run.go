package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/tablemerge/internal/cli/output"
	"github.com/leapstack-labs/tablemerge/internal/engine"
	"github.com/leapstack-labs/tablemerge/pkg/core"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Merge the tables of every document into one dataset",
		Long: `Read every table of every document in the input directory, resolve merged
cells, union the columns, remove duplicate rows and write the result to the
configured outputs.

The aggregated dataset is checkpointed before deduplication, so a failed
output can be retried with 'tablemerge recover'.`,
		Example: `  # Merge ./docs into combined.csv and combined.xlsx
  tablemerge run --input docs

  # Skip tables that cannot be read instead of failing
  tablemerge run --policy skip

  # Write to DuckDB as well, four documents at a time
  tablemerge run --outputs csv,duckdb --workers 4

  # Machine-readable summary
  tablemerge run -o json`,
		Aliases: []string{"merge"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd)
		},
	}

	addPipelineFlags(cmd)

	return cmd
}

func runRun(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmdCtx.Cfg.ValidateDirectories(); err != nil {
		return err
	}

	start := time.Now()
	res, runErr := cmdCtx.Engine.Run(cmd.Context())
	if res != nil {
		if err := renderResult(cmdCtx.Renderer, res, time.Since(start)); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	return nil
}

// renderResult writes a run or recover result in the renderer's mode.
func renderResult(r *output.Renderer, res *engine.Result, elapsed time.Duration) error {
	run := res.Run
	if r.EffectiveMode() == output.ModeJSON {
		out := output.RunOutput{
			RunID:         run.ID,
			Kind:          string(run.Kind),
			Status:        string(run.Status),
			Error:         run.Error,
			Documents:     run.Documents,
			Tables:        run.Tables,
			Records:       run.Records,
			Columns:       res.Dataset.Columns,
			CheckpointKey: run.CheckpointKey,
			Outputs:       res.Outputs,
			DurationMS:    elapsed.Milliseconds(),
		}
		if out.Columns == nil {
			out.Columns = []string{}
		}
		if out.Outputs == nil {
			out.Outputs = []string{}
		}
		for _, s := range res.Skipped {
			out.Skipped = append(out.Skipped, output.SkippedOutput{Document: s.Document, Table: s.Index, Reason: s.Reason})
		}
		return r.JSON(out)
	}

	r.Header(1, fmt.Sprintf("Run %s", run.ID))
	r.KeyValue("Status", string(run.Status))
	r.KeyValue("Documents", strconv.Itoa(run.Documents))
	r.KeyValue("Tables", strconv.Itoa(run.Tables))
	r.KeyValue("Records", strconv.Itoa(run.Records))
	r.KeyValue("Columns", strconv.Itoa(len(res.Dataset.Columns)))
	if run.CheckpointKey != "" {
		r.KeyValue("Checkpoint", run.CheckpointKey)
	}
	r.KeyValue("Duration", elapsed.Round(time.Millisecond).String())
	r.Println("")

	if len(res.Skipped) > 0 {
		r.Header(2, "Skipped tables")
		for _, s := range res.Skipped {
			r.StatusLine(fmt.Sprintf("%s table %d", s.Document, s.Index), "skipped", s.Reason)
		}
		r.Println("")
	}

	if len(res.Outputs) > 0 {
		r.Header(2, "Outputs")
		for _, o := range res.Outputs {
			r.StatusLine(o, "written", "")
		}
		r.Println("")
	}

	if run.Documents == 0 && run.Kind == core.RunKindExtract && run.Error == "" {
		r.Warning("no documents found in the input directory")
	}
	if run.Error == "" {
		r.Success(fmt.Sprintf("%d records merged", run.Records))
	}
	return nil
}
