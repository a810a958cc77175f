package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/tablemerge/pkg/core"
	"github.com/leapstack-labs/tablemerge/pkg/sink"
)

func TestSink_Write(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]string
		sheet   string
	}{
		{name: "default sheet", sheet: DefaultSheet},
		{name: "custom sheet", options: map[string]string{"sheet": "Merged"}, sheet: "Merged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "combined.xlsx")
			ds := core.Dataset{
				Columns: []string{"Name", "Qty", core.SourceColumn},
				Rows: [][]core.Value{
					{core.Text("bolt"), core.Text("4"), core.Text("a.docx")},
					{core.Text("nut"), core.Absent(), core.Text("b.docx")},
				},
			}

			s := New(nil)
			require.NoError(t, s.Open(context.Background(), core.SinkConfig{Path: path, Options: tt.options}))
			require.NoError(t, s.Write(context.Background(), ds))

			f, err := excelize.OpenFile(path)
			require.NoError(t, err)
			defer func() { _ = f.Close() }()

			assert.Equal(t, []string{tt.sheet}, f.GetSheetList())

			rows, err := f.GetRows(tt.sheet)
			require.NoError(t, err)
			require.Len(t, rows, 3)
			assert.Equal(t, []string{"Name", "Qty", "sourceFile"}, rows[0])
			assert.Equal(t, []string{"bolt", "4", "a.docx"}, rows[1])

			absent, err := f.GetCellValue(tt.sheet, "B3")
			require.NoError(t, err)
			assert.Empty(t, absent)
			src, err := f.GetCellValue(tt.sheet, "C3")
			require.NoError(t, err)
			assert.Equal(t, "b.docx", src)
		})
	}
}

func TestSink_Errors(t *testing.T) {
	s := New(nil)
	assert.EqualError(t, s.Open(context.Background(), core.SinkConfig{}), "xlsx sink: path is required")
	assert.EqualError(t, s.Write(context.Background(), core.Dataset{}), "xlsx sink: not opened")
}

func TestRegistered(t *testing.T) {
	assert.True(t, sink.IsRegistered("xlsx"))
}
