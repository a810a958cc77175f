package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_AbsentIsDistinctFromEmpty(t *testing.T) {
	assert.True(t, Absent().IsAbsent())
	assert.False(t, Text("").IsAbsent())
	assert.NotEqual(t, Absent(), Text(""))
}

func TestRecord_WithReturnsCopy(t *testing.T) {
	r := NewRecord(Field{Name: "A", Value: Text("1")})
	r2 := r.With("B", Text("2"))
	r3 := r2.With("A", Text("x"))

	assert.Equal(t, []string{"A"}, r.Names())
	assert.Equal(t, []string{"A", "B"}, r2.Names())

	v, ok := r2.Get("A")
	require.True(t, ok)
	assert.Equal(t, "1", v.Text, "With must not mutate the receiver")

	v, _ = r3.Get("A")
	assert.Equal(t, "x", v.Text)
	assert.Equal(t, []string{"A", "B"}, r3.Names(), "replacement keeps position")
}

func TestNewRecord_DuplicateNameReplaces(t *testing.T) {
	r := NewRecord(
		Field{Name: "A", Value: Text("1")},
		Field{Name: "B", Value: Text("2")},
		Field{Name: "A", Value: Text("3")},
	)
	assert.Equal(t, 2, r.Len())
	v, _ := r.Get("A")
	assert.Equal(t, "3", v.Text)
}

func TestRecord_MapValuesSkipsAbsent(t *testing.T) {
	r := NewRecord(
		Field{Name: "A", Value: Text("ab")},
		Field{Name: "B", Value: Absent()},
	)
	got := r.MapValues(func(s string) string { return s + "!" })

	a, _ := got.Get("A")
	b, _ := got.Get("B")
	assert.Equal(t, Text("ab!"), a)
	assert.Equal(t, Absent(), b)

	orig, _ := r.Get("A")
	assert.Equal(t, "ab", orig.Text)
}

func TestDataset_RecordAndClone(t *testing.T) {
	ds := Dataset{
		Columns: []string{"A", SourceColumn},
		Rows:    [][]Value{{Text("1"), Text("a.docx")}},
	}

	rec := ds.Record(0)
	assert.Equal(t, []string{"A", SourceColumn}, rec.Names())
	assert.Equal(t, 1, ds.ColumnIndex(SourceColumn))
	assert.Equal(t, -1, ds.ColumnIndex("missing"))

	cp := ds.Clone()
	cp.Rows[0][0] = Text("changed")
	assert.Equal(t, "1", ds.Rows[0][0].Text)
}

func TestDocumentError_Is(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := error(&DocumentError{Path: "a.docx", Err: cause})

	assert.ErrorIs(t, err, ErrDocumentOpen)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "a.docx")
}

func TestTableError_Is(t *testing.T) {
	err := error(&TableError{Document: "a.docx", Index: 2, Err: ErrTableEnumerationUnsupported})

	assert.ErrorIs(t, err, ErrTableEnumerationUnsupported)
	assert.Equal(t, "a.docx: table 2: table enumeration unsupported", err.Error())

	var te *TableError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 2, te.Index)
}
