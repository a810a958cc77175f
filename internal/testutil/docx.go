package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// DocxCell describes one cell of a generated DOCX table.
type DocxCell struct {
	Text string
	// VMerge is "", "restart" or "continue".
	VMerge   string
	GridSpan int
}

// C is a plain cell.
func C(text string) DocxCell { return DocxCell{Text: text} }

// Restart is a cell that starts a vertical merge.
func Restart(text string) DocxCell { return DocxCell{Text: text, VMerge: "restart"} }

// Cont is a cell continuing a vertical merge.
func Cont() DocxCell { return DocxCell{VMerge: "continue"} }

// DocxTable is a generated table: a column count for w:tblGrid and rows of cells.
type DocxTable struct {
	Columns int
	Rows    [][]DocxCell
}

// T builds a DocxTable from rows, taking the column count from the first row.
func T(rows ...[]DocxCell) DocxTable {
	cols := 0
	if len(rows) > 0 {
		for _, c := range rows[0] {
			cols += max(c.GridSpan, 1)
		}
	}
	return DocxTable{Columns: cols, Rows: rows}
}

// Row is shorthand for a row of plain cells.
func Row(texts ...string) []DocxCell {
	out := make([]DocxCell, len(texts))
	for i, t := range texts {
		out[i] = C(t)
	}
	return out
}

// TableXML renders a table as WordprocessingML.
func TableXML(tbl DocxTable) string {
	var b strings.Builder
	b.WriteString("<w:tbl><w:tblPr><w:tblStyle w:val=\"TableGrid\"/></w:tblPr><w:tblGrid>")
	for i := 0; i < tbl.Columns; i++ {
		b.WriteString(`<w:gridCol w:w="2000"/>`)
	}
	b.WriteString("</w:tblGrid>")
	for _, row := range tbl.Rows {
		b.WriteString("<w:tr>")
		for _, c := range row {
			b.WriteString("<w:tc><w:tcPr>")
			if c.GridSpan > 1 {
				fmt.Fprintf(&b, `<w:gridSpan w:val="%d"/>`, c.GridSpan)
			}
			switch c.VMerge {
			case "restart":
				b.WriteString(`<w:vMerge w:val="restart"/>`)
			case "continue":
				b.WriteString(`<w:vMerge/>`)
			}
			b.WriteString("</w:tcPr>")
			for _, p := range strings.Split(c.Text, "\n") {
				fmt.Fprintf(&b, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, html.EscapeString(p))
			}
			b.WriteString("</w:tc>")
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")
	return b.String()
}

// DocxBytes builds a DOCX archive whose body is bodyXML.
func DocxBytes(t testing.TB, bodyXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct{ name, body string }{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`},
		{"_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`},
		{"word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>` + bodyXML + `<w:sectPr/></w:body>
</w:document>`},
	}

	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			t.Fatalf("failed to create %s: %v", p.name, err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			t.Fatalf("failed to write %s: %v", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// WriteDocx writes a DOCX file containing tables to dir/name and returns its path.
func WriteDocx(t testing.TB, dir, name string, tables ...DocxTable) string {
	t.Helper()

	var body strings.Builder
	for _, tbl := range tables {
		body.WriteString(`<w:p><w:r><w:t>Table follows</w:t></w:r></w:p>`)
		body.WriteString(TableXML(tbl))
	}
	return WriteDocxBody(t, dir, name, body.String())
}

// WriteDocxBody writes a DOCX file with raw body XML to dir/name and returns its path.
func WriteDocxBody(t testing.TB, dir, name, bodyXML string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, DocxBytes(t, bodyXML), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
