package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/tablemerge/internal/cli/output"
	"github.com/leapstack-labs/tablemerge/internal/engine"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show how the tables of one document would be read",
		Long: `Open a single document and report, for each table, its declared column
count, row count, merged cells, resolved headers and record count.

Tables that cannot be enumerated are reported with the reason instead of
failing. Nothing is written and no run is recorded.`,
		Example: `  tablemerge inspect docs/report.docx
  tablemerge inspect docs/report.odt -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}

	return cmd
}

func runInspect(cmd *cobra.Command, path string) error {
	cmdCtx, cleanup, err := NewCommandContextWithoutState(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ins, err := cmdCtx.Engine.InspectDocument(cmd.Context(), path)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(inspectOutput(ins))
	default:
		renderInspection(r, ins)
		return nil
	}
}

func inspectOutput(ins *engine.Inspection) output.InspectOutput {
	out := output.InspectOutput{Path: ins.Path, Tables: make([]output.TableOutput, 0, len(ins.Tables))}
	for _, t := range ins.Tables {
		headers := t.Headers
		if headers == nil {
			headers = []string{}
		}
		out.Tables = append(out.Tables, output.TableOutput{
			Index:       t.Index,
			Columns:     t.Columns,
			Rows:        t.Rows,
			MergedCells: t.MergedCells,
			Headers:     headers,
			Records:     t.Records,
			Unsupported: t.Unsupported,
		})
	}
	return out
}

func renderInspection(r *output.Renderer, ins *engine.Inspection) {
	r.Header(1, fmt.Sprintf("%s (%d tables)", ins.Path, len(ins.Tables)))
	if len(ins.Tables) == 0 {
		r.Muted("no tables")
		return
	}

	rows := make([][]string, 0, len(ins.Tables))
	for _, t := range ins.Tables {
		headers := strings.Join(t.Headers, ", ")
		if t.Unsupported != "" {
			headers = "unsupported: " + t.Unsupported
		}
		rows = append(rows, []string{
			strconv.Itoa(t.Index),
			strconv.Itoa(t.Columns),
			strconv.Itoa(t.Rows),
			strconv.Itoa(t.MergedCells),
			strconv.Itoa(t.Records),
			headers,
		})
	}
	r.Table([]string{"Table", "Columns", "Rows", "Merged", "Records", "Headers"}, rows)
}
