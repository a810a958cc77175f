package core

import "context"

// DocumentSource lists and opens documents containing tables.
type DocumentSource interface {
	// ListDocuments returns the recognized documents of dir, sorted by name.
	ListDocuments(ctx context.Context, dir string) ([]string, error)

	// Open opens a document for table enumeration.
	// Failures are wrapped in a *DocumentError carrying ErrDocumentOpen.
	Open(ctx context.Context, path string) (DocumentHandle, error)
}

// DocumentOpener opens documents of one or more file extensions.
type DocumentOpener interface {
	// Extensions returns the lower-case extensions handled, including the dot.
	Extensions() []string

	// Open opens the document at path.
	Open(ctx context.Context, path string) (DocumentHandle, error)
}

// DocumentHandle is an opened document. Callers must Close it.
type DocumentHandle interface {
	Path() string
	Tables() ([]TableHandle, error)
	Close() error
}

// TableHandle is one table of an opened document.
type TableHandle interface {
	// ColumnCount is the table's declared column count.
	ColumnCount() int

	// Rows enumerates the table's rows. It fails with
	// ErrTableEnumerationUnsupported when the table's structure cannot be
	// walked cell by cell.
	Rows() ([]RowHandle, error)
}

// RowHandle is one row of a table.
type RowHandle interface {
	Cells() []CellHandle
}

// CellHandle is one cell of a row.
type CellHandle interface {
	Text() string
	// IsMergeContinuation reports whether the cell continues a vertical
	// merge from the row above.
	IsMergeContinuation() bool
}

// ReadTable reads a table handle into a Table value.
func ReadTable(th TableHandle, documentID string, index int) (*Table, error) {
	rows, err := th.Rows()
	if err != nil {
		return nil, err
	}

	t := &Table{
		Rows:        make([]Row, len(rows)),
		ColumnCount: th.ColumnCount(),
		Index:       index,
		DocumentID:  documentID,
	}
	for i, rh := range rows {
		handles := rh.Cells()
		cells := make([]Cell, len(handles))
		for j, ch := range handles {
			cells[j] = Cell{Text: ch.Text(), MergeContinuation: ch.IsMergeContinuation()}
		}
		t.Rows[i] = Row{Cells: cells, IsHeader: i == 0}
	}
	return t, nil
}
