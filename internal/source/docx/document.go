// Package docx reads tables from Office Open XML word-processing documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

const documentPart = "word/document.xml"

// Opener opens .docx and .docm files.
type Opener struct{}

// New creates a DOCX opener.
func New() *Opener {
	return &Opener{}
}

// Extensions returns the file extensions handled by the opener.
func (o *Opener) Extensions() []string {
	return []string{".docx", ".docm"}
}

// Open reads the document's main part and returns a handle over its
// top-level tables. The archive is closed before Open returns.
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

// Parse decodes the tables of an already opened DOCX archive.
func Parse(zr *zip.Reader) (*Document, error) {
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, errors.New("invalid DOCX: missing word/document.xml")
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", documentPart, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", documentPart, err)
	}

	var dx documentXML
	if err := xml.Unmarshal(data, &dx); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", documentPart, err)
	}

	doc := &Document{}
	for i := range dx.Body.Tables {
		doc.tables = append(doc.tables, newTable(&dx.Body.Tables[i]))
	}
	return doc, nil
}

// Document is a parsed DOCX document.
type Document struct {
	path   string
	tables []core.TableHandle
}

// Path returns the file the document was read from.
func (d *Document) Path() string { return d.path }

// Tables returns the document's top-level tables in body order.
func (d *Document) Tables() ([]core.TableHandle, error) { return d.tables, nil }

// Close releases the document. The archive is already closed, so this is a no-op.
func (d *Document) Close() error { return nil }

// Table is one top-level table.
type Table struct {
	columns     int
	rows        []core.RowHandle
	unsupported string
}

func newTable(tx *tableXML) *Table {
	t := &Table{columns: len(tx.Grid.Cols)}

	switch {
	case len(tx.ContentControls) > 0:
		t.unsupported = "rows wrapped in content controls"
	case len(tx.CustomXML) > 0:
		t.unsupported = "rows wrapped in custom XML"
	}

	widest := 0
	for _, rx := range tx.Rows {
		if t.unsupported == "" {
			switch {
			case len(rx.ContentControls) > 0:
				t.unsupported = "cells wrapped in content controls"
			case len(rx.CustomXML) > 0:
				t.unsupported = "cells wrapped in custom XML"
			}
		}

		row := &Row{}
		span := 0
		for _, cx := range rx.Cells {
			if len(cx.Tables) > 0 && t.unsupported == "" {
				t.unsupported = "nested table"
			}
			row.cells = append(row.cells, &Cell{
				text:         cx.text(),
				continuation: cx.Props.isContinuation(),
			})
			span += cx.Props.span()
		}
		widest = max(widest, span)
		t.rows = append(t.rows, row)
	}

	if t.columns == 0 {
		t.columns = widest
	}
	return t
}

// ColumnCount returns the table's grid column count.
func (t *Table) ColumnCount() int { return t.columns }

// Rows returns the table's rows, or ErrTableEnumerationUnsupported when the
// table nests tables or wraps rows and cells in structured containers.
func (t *Table) Rows() ([]core.RowHandle, error) {
	if t.unsupported != "" {
		return nil, fmt.Errorf("%w: %s", core.ErrTableEnumerationUnsupported, t.unsupported)
	}
	return t.rows, nil
}

// Row is one table row.
type Row struct {
	cells []core.CellHandle
}

// Cells returns the row's cells; a horizontally merged cell counts once.
func (r *Row) Cells() []core.CellHandle { return r.cells }

// Cell is one table cell.
type Cell struct {
	text         string
	continuation bool
}

// Text returns the cell's paragraphs joined by newlines.
func (c *Cell) Text() string { return c.text }

// IsMergeContinuation reports whether the cell continues a vertical merge.
func (c *Cell) IsMergeContinuation() bool { return c.continuation }

// text joins the cell's paragraph texts.
func (cx *cellXML) text() string {
	parts := make([]string, len(cx.Paragraphs))
	for i, p := range cx.Paragraphs {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n")
}
