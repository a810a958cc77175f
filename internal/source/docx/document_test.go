package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tablemerge/internal/testutil"
	"github.com/leapstack-labs/tablemerge/pkg/core"
)

func parseBody(t *testing.T, body string) *Document {
	t.Helper()
	data := testutil.DocxBytes(t, body)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	doc, err := Parse(zr)
	require.NoError(t, err)
	return doc
}

func readTables(t *testing.T, doc core.DocumentHandle) []*core.Table {
	t.Helper()
	handles, err := doc.Tables()
	require.NoError(t, err)

	var out []*core.Table
	for i, th := range handles {
		tbl, err := core.ReadTable(th, doc.Path(), i+1)
		require.NoError(t, err)
		out = append(out, tbl)
	}
	return out
}

func TestOpen_SimpleTable(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteDocx(t, dir, "simple.docx", testutil.T(
		testutil.Row("Name", "Age"),
		testutil.Row("Ann", "30"),
	))

	doc, err := New().Open(context.Background(), path)
	require.NoError(t, err)
	defer func() { _ = doc.Close() }()

	assert.Equal(t, path, doc.Path())

	tables := readTables(t, doc)
	require.Len(t, tables, 1)
	assert.Equal(t, 2, tables[0].ColumnCount)
	require.Len(t, tables[0].Rows, 2)
	assert.True(t, tables[0].Rows[0].IsHeader)
	assert.Equal(t, "Ann", tables[0].Rows[1].Cells[0].Text)
	assert.Equal(t, 1, tables[0].Index)
}

func TestOpen_VerticalMerge(t *testing.T) {
	doc := parseBody(t, testutil.TableXML(testutil.T(
		testutil.Row("Group", "Item"),
		[]testutil.DocxCell{testutil.Restart("Tools"), testutil.C("Hammer")},
		[]testutil.DocxCell{testutil.Cont(), testutil.C("Saw")},
	)))

	tables := readTables(t, doc)
	require.Len(t, tables, 1)

	rows := tables[0].Rows
	assert.False(t, rows[1].Cells[0].MergeContinuation, "restart is not a continuation")
	assert.True(t, rows[2].Cells[0].MergeContinuation)
	assert.False(t, rows[2].Cells[1].MergeContinuation)
}

func TestParse_ExplicitContinueValue(t *testing.T) {
	body := `<w:tbl><w:tblGrid><w:gridCol/></w:tblGrid>
<w:tr><w:tc><w:tcPr><w:vMerge w:val="restart"/></w:tcPr><w:p><w:r><w:t>A</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:tcPr><w:vMerge w:val="continue"/></w:tcPr><w:p/></w:tc></w:tr>
</w:tbl>`
	tables := readTables(t, parseBody(t, body))
	assert.True(t, tables[0].Rows[1].Cells[0].MergeContinuation)
}

func TestParse_CellText(t *testing.T) {
	body := `<w:tbl><w:tblGrid><w:gridCol/></w:tblGrid><w:tr><w:tc>
<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>one</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> two</w:t></w:r></w:p>
<w:p><w:hyperlink><w:r><w:t>link</w:t></w:r></w:hyperlink><w:r><w:br/><w:t>after</w:t></w:r><w:del><w:r><w:delText>gone</w:delText></w:r></w:del></w:p>
</w:tc></w:tr></w:tbl>`

	tables := readTables(t, parseBody(t, body))
	assert.Equal(t, "one\t two\nlink\nafter", tables[0].Rows[0].Cells[0].Text)
}

func TestParse_GridSpanCountsOnceAndSetsWidth(t *testing.T) {
	body := `<w:tbl><w:tr>
<w:tc><w:tcPr><w:gridSpan w:val="2"/></w:tcPr><w:p><w:r><w:t>wide</w:t></w:r></w:p></w:tc>
<w:tc><w:p><w:r><w:t>x</w:t></w:r></w:p></w:tc>
</w:tr></w:tbl>`

	tables := readTables(t, parseBody(t, body))
	assert.Equal(t, 3, tables[0].ColumnCount, "no grid: width from widest span sum")
	assert.Len(t, tables[0].Rows[0].Cells, 2)
}

func TestParse_MultipleTablesInOrder(t *testing.T) {
	body := testutil.TableXML(testutil.T(testutil.Row("first"))) +
		`<w:p><w:r><w:t>between</w:t></w:r></w:p>` +
		testutil.TableXML(testutil.T(testutil.Row("second", "x")))

	tables := readTables(t, parseBody(t, body))
	require.Len(t, tables, 2)
	assert.Equal(t, "first", tables[0].Rows[0].Cells[0].Text)
	assert.Equal(t, 2, tables[1].ColumnCount)
}

func TestParse_UnsupportedTables(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "nested table",
			body: `<w:tbl><w:tblGrid><w:gridCol/></w:tblGrid><w:tr><w:tc>` +
				testutil.TableXML(testutil.T(testutil.Row("inner"))) +
				`<w:p/></w:tc></w:tr></w:tbl>`,
		},
		{
			name: "row content control",
			body: `<w:tbl><w:tblGrid><w:gridCol/></w:tblGrid><w:sdt><w:sdtContent><w:tr><w:tc><w:p/></w:tc></w:tr></w:sdtContent></w:sdt></w:tbl>`,
		},
		{
			name: "cell content control",
			body: `<w:tbl><w:tblGrid><w:gridCol/></w:tblGrid><w:tr><w:sdt><w:sdtContent><w:tc><w:p/></w:tc></w:sdtContent></w:sdt></w:tr></w:tbl>`,
		},
		{
			name: "custom xml rows",
			body: `<w:tbl><w:tblGrid><w:gridCol/></w:tblGrid><w:customXml><w:tr><w:tc><w:p/></w:tc></w:tr></w:customXml></w:tbl>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseBody(t, tt.body)
			handles, err := doc.Tables()
			require.NoError(t, err)
			require.Len(t, handles, 1, "only the top-level table is reported")

			_, err = handles[0].Rows()
			assert.ErrorIs(t, err, core.ErrTableEnumerationUnsupported)
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	notZip := filepath.Join(dir, "plain.docx")
	require.NoError(t, os.WriteFile(notZip, []byte("not a zip"), 0o600))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	noPart := filepath.Join(dir, "nopart.docx")
	require.NoError(t, os.WriteFile(noPart, buf.Bytes(), 0o600))

	_, err = New().Open(context.Background(), notZip)
	assert.ErrorContains(t, err, "opening ZIP archive")

	_, err = New().Open(context.Background(), noPart)
	assert.ErrorContains(t, err, "missing word/document.xml")

	_, err = New().Open(context.Background(), filepath.Join(dir, "missing.docx"))
	assert.Error(t, err)
}

func TestOpen_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Open(ctx, "unused.docx")
	assert.ErrorIs(t, err, context.Canceled)
}
