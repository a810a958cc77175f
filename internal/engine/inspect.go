package engine

import (
	"context"
	"errors"

	"github.com/leapstack-labs/tablemerge/internal/normalize"
	"github.com/leapstack-labs/tablemerge/pkg/core"
)

// TableReport summarizes one table of an inspected document.
type TableReport struct {
	Index       int
	Columns     int
	Rows        int
	MergedCells int
	Headers     []string
	Records     int
	// Unsupported holds the reason the table cannot be enumerated, if any.
	Unsupported string
}

// Inspection describes the tables of one document without writing anything.
type Inspection struct {
	Path   string
	Tables []TableReport
}

// InspectDocument opens path and reports how each of its tables would be read.
// Unsupported tables are reported rather than returned as errors.
func (e *Engine) InspectDocument(ctx context.Context, path string) (*Inspection, error) {
	doc, err := e.open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = doc.Close() }()

	tables, err := doc.Tables()
	if err != nil {
		return nil, &core.DocumentError{Path: path, Err: err}
	}

	ins := &Inspection{Path: path}
	for i, th := range tables {
		report := TableReport{Index: i + 1, Columns: th.ColumnCount()}

		t, err := core.ReadTable(th, path, i+1)
		switch {
		case errors.Is(err, core.ErrTableEnumerationUnsupported):
			report.Unsupported = err.Error()
		case err != nil:
			return nil, &core.TableError{Document: path, Index: i + 1, Err: err}
		default:
			report.Rows = len(t.Rows)
			for _, row := range t.Rows {
				for _, c := range row.Cells {
					if c.MergeContinuation {
						report.MergedCells++
					}
				}
			}
			b := normalize.NormalizeTable(t, e.sanitizer)
			report.Headers = b.Headers
			report.Records = len(b.Records)
		}
		ins.Tables = append(ins.Tables, report)
	}
	return ins, nil
}
