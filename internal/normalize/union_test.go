package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

func batch(doc string, rows ...[]string) Batch {
	return TagProvenance(BuildTable(rows), doc)
}

func TestAggregator_DisjointHeaders(t *testing.T) {
	agg := NewAggregator()
	agg.Append(batch("/in/one.docx", []string{"A", "B"}, []string{"1", "2"}))
	agg.Append(batch("/in/two.docx", []string{"C"}, []string{"3"}))

	ds := agg.Dataset()

	assert.Equal(t, []string{"A", "B", "C", core.SourceColumn}, ds.Columns)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, []core.Value{core.Text("1"), core.Text("2"), core.Absent(), core.Text("one.docx")}, ds.Rows[0])
	assert.Equal(t, []core.Value{core.Absent(), core.Absent(), core.Text("3"), core.Text("two.docx")}, ds.Rows[1])
}

func TestAggregator_OverlappingHeadersKeepFirstSeenOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Append(batch("a.docx", []string{"B", "A"}, []string{"b1", "a1"}))
	agg.Append(batch("b.docx", []string{"A", "C", "B"}, []string{"a2", "c2", "b2"}))

	ds := agg.Dataset()

	assert.Equal(t, []string{"B", "A", "C", core.SourceColumn}, ds.Columns)
	assert.Equal(t, core.Absent(), ds.Rows[0][2])
	assert.Equal(t, core.Text("b2"), ds.Rows[1][0])
}

// Every record has an entry for every column.
func TestAggregator_RowsAreRectangular(t *testing.T) {
	agg := NewAggregator()
	agg.Append(batch("a.docx", []string{"A"}, []string{"1"}, []string{"2"}))
	agg.Append(batch("b.docx", []string{"B", "C"}, []string{"3", "4"}))
	agg.Append(batch("c.docx", []string{"D"}))

	ds := agg.Dataset()

	assert.Equal(t, 3, agg.Len())
	assert.Equal(t, 3, agg.Batches())
	assert.Contains(t, ds.Columns, "D", "header-only tables still join the union")
	for i, row := range ds.Rows {
		assert.Len(t, row, len(ds.Columns), "row %d", i)
	}
}

func TestAggregator_Empty(t *testing.T) {
	ds := NewAggregator().Dataset()
	assert.Equal(t, []string{core.SourceColumn}, ds.Columns)
	assert.Empty(t, ds.Rows)
}
