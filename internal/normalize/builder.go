package normalize

import (
	"strconv"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

// Batch is the set of records built from one table.
type Batch struct {
	// Document is the path of the originating document.
	Document string
	// Table is the 1-based table index within Document.
	Table   int
	Headers []string
	Records []core.Record
}

// BuildTable turns resolved rows into a header-keyed batch.
//
// The first row supplies the headers; every later row becomes one record.
// Rows shorter than the header row are padded with empty values, longer
// rows are truncated, so every record's key set equals the header set.
// Repeated header names get a positional suffix (Name, Name.1, Name.2) and
// a header colliding with core.SourceColumn is suffixed the same way.
func BuildTable(resolved [][]string) Batch {
	if len(resolved) == 0 {
		return Batch{}
	}

	headers := uniqueHeaders(resolved[0], core.SourceColumn)
	records := make([]core.Record, 0, len(resolved)-1)
	for _, row := range resolved[1:] {
		fields := make([]core.Field, len(headers))
		for i, h := range headers {
			text := ""
			if i < len(row) {
				text = row[i]
			}
			fields[i] = core.Field{Name: h, Value: core.Text(text)}
		}
		records = append(records, core.NewRecord(fields...))
	}

	return Batch{Headers: headers, Records: records}
}

// uniqueHeaders suffixes repeated names so every result is distinct and
// none equals a reserved name.
func uniqueHeaders(raw []string, reserved ...string) []string {
	used := make(map[string]bool, len(raw)+len(reserved))
	for _, r := range reserved {
		used[r] = true
	}
	suffix := make(map[string]int)

	out := make([]string, len(raw))
	for i, h := range raw {
		name := h
		for used[name] {
			suffix[h]++
			name = h + "." + strconv.Itoa(suffix[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
