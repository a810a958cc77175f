// Package odt reads tables from OpenDocument text files.
package odt

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

const (
	contentPart = "content.xml"
	tableNS     = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"
)

// Opener opens .odt files.
type Opener struct{}

// New creates an ODT opener.
func New() *Opener {
	return &Opener{}
}

// Extensions returns the file extensions handled by the opener.
func (o *Opener) Extensions() []string {
	return []string{".odt"}
}

// Open reads content.xml and returns a handle over the document's tables.
func (o *Opener) Open(ctx context.Context, path string) (core.DocumentHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	defer func() { _ = zr.Close() }()

	doc, err := Parse(&zr.Reader)
	if err != nil {
		return nil, err
	}
	doc.path = path
	return doc, nil
}

// Parse decodes the tables of an already opened ODT archive.
func Parse(zr *zip.Reader) (*Document, error) {
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == contentPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, errors.New("invalid ODT: missing content.xml")
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", contentPart, err)
	}
	defer func() { _ = rc.Close() }()

	tables, err := decodeTables(rc)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", contentPart, err)
	}

	doc := &Document{}
	for _, tx := range tables {
		doc.tables = append(doc.tables, newTable(tx))
	}
	return doc, nil
}

// decodeTables returns every table that is not nested inside another table.
func decodeTables(r io.Reader) ([]*tableXML, error) {
	d := xml.NewDecoder(r)
	var tables []*tableXML
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return tables, nil
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Space != tableNS || start.Name.Local != "table" {
			continue
		}
		tx := &tableXML{}
		if err := d.DecodeElement(tx, &start); err != nil {
			return nil, err
		}
		tables = append(tables, tx)
	}
}

// Document is a parsed ODT document.
type Document struct {
	path   string
	tables []core.TableHandle
}

// Path returns the file the document was read from.
func (d *Document) Path() string { return d.path }

// Tables returns the document's tables in content order.
func (d *Document) Tables() ([]core.TableHandle, error) { return d.tables, nil }

// Close is a no-op; the archive is closed once parsing completes.
func (d *Document) Close() error { return nil }

// Table is one top-level table.
type Table struct {
	columns int
	rows    []core.RowHandle
	nested  bool
}

// newTable maps ODF cells onto the row model used by word processors: a
// covered cell under a row-spanning cell is a merge continuation, reported
// once per span; cells covered by a column span are dropped. Every ODF cell
// element, covered or not, occupies one grid column.
func newTable(tx *tableXML) *Table {
	t := &Table{columns: tx.columnCount()}

	widest := 0
	for _, rx := range tx.Rows {
		widest = max(widest, len(rx.Cells))
	}
	if t.columns == 0 {
		t.columns = widest
	}

	remaining := make([]int, max(widest, t.columns))
	spanStart := make([]bool, len(remaining))

	for _, rx := range tx.Rows {
		prev := append([]int(nil), remaining...)
		row := &Row{}
		col := 0

		for _, cx := range rx.Cells {
			if cx.Nested {
				t.nested = true
			}
			for n := cx.repeat(t.columns - col); n > 0; n-- {
				if col >= len(remaining) {
					remaining = append(remaining, 0)
					spanStart = append(spanStart, false)
					prev = append(prev, 0)
				}

				if cx.Covered {
					if prev[col] > 0 && spanStart[col] {
						row.cells = append(row.cells, &Cell{text: cx.text(), continuation: true})
					}
					col++
					continue
				}

				row.cells = append(row.cells, &Cell{text: cx.text()})
				cs, rs := cx.colSpan(), cx.rowSpan()
				for c := col; c < col+cs; c++ {
					if c >= len(remaining) {
						remaining = append(remaining, 0)
						spanStart = append(spanStart, false)
						prev = append(prev, 0)
					}
					if rs > 1 {
						remaining[c] = rs - 1
						spanStart[c] = c == col
					}
				}
				col++
			}
		}

		for c := range prev {
			if prev[c] > 0 && remaining[c] == prev[c] {
				remaining[c]--
			}
		}
		t.rows = append(t.rows, row)
	}
	return t
}

// ColumnCount returns the table's declared column count.
func (t *Table) ColumnCount() int { return t.columns }

// Rows returns the table's rows, or ErrTableEnumerationUnsupported when a
// cell contains a nested table.
func (t *Table) Rows() ([]core.RowHandle, error) {
	if t.nested {
		return nil, fmt.Errorf("%w: nested table", core.ErrTableEnumerationUnsupported)
	}
	return t.rows, nil
}

// Row is one table row.
type Row struct {
	cells []core.CellHandle
}

// Cells returns the row's logical cells.
func (r *Row) Cells() []core.CellHandle { return r.cells }

// Cell is one logical table cell.
type Cell struct {
	text         string
	continuation bool
}

// Text returns the cell's paragraphs joined by newlines.
func (c *Cell) Text() string { return c.text }

// IsMergeContinuation reports whether the cell continues a vertical merge.
func (c *Cell) IsMergeContinuation() bool { return c.continuation }
