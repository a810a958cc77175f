package normalize

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

// Deduplicate removes records identical in every column, value and presence
// alike, to an earlier record. The first occurrence survives and survivor
// order is preserved.
func Deduplicate(ds core.Dataset) core.Dataset {
	seen := make(map[string]struct{}, len(ds.Rows))
	out := core.Dataset{
		Columns: append([]string(nil), ds.Columns...),
		Rows:    make([][]core.Value, 0, len(ds.Rows)),
	}

	var b strings.Builder
	for _, row := range ds.Rows {
		b.Reset()
		for _, v := range row {
			if !v.Present {
				b.WriteByte('-')
				continue
			}
			b.WriteByte('+')
			b.WriteString(strconv.Itoa(len(v.Text)))
			b.WriteByte(':')
			b.WriteString(v.Text)
		}
		key := b.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, append([]core.Value(nil), row...))
	}
	return out
}
