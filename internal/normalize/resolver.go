// Package normalize turns raw document tables into uniform, deduplicated records.
//
// Stages run in this order for every table:
//
//	ResolveRow -> Sanitizer.Clean -> BuildTable -> TagProvenance
//
// and once per run, after every table has been appended to an Aggregator:
//
//	Aggregator.Dataset -> (checkpoint) -> Deduplicate -> Sanitizer.FilterDataset
package normalize

import (
	"strings"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

// MergeSeparator joins a merge continuation's text onto the previous entry.
const MergeSeparator = "\n"

// ResolveRow resolves one row's cells into a positional list of strings.
//
// Cell text is trimmed of surrounding whitespace. A merge continuation is
// folded into the last entry produced so far instead of opening a new one;
// a continuation with nothing before it starts a new entry. The result is
// right-padded with empty strings to columnCount only after every cell has
// been visited, so a continuation never attaches to padding.
func ResolveRow(cells []core.Cell, columnCount int) []string {
	out := make([]string, 0, max(len(cells), columnCount))
	for _, c := range cells {
		text := strings.TrimSpace(c.Text)
		if c.MergeContinuation && len(out) > 0 {
			out[len(out)-1] += MergeSeparator + text
			continue
		}
		out = append(out, text)
	}
	for len(out) < columnCount {
		out = append(out, "")
	}
	return out
}

// ResolveTable resolves every row of t.
func ResolveTable(t *core.Table) [][]string {
	resolved := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		resolved[i] = ResolveRow(row.Cells, t.ColumnCount)
	}
	return resolved
}
