package core

// Cell is one cell as reported by a document reader.
type Cell struct {
	Text string
	// MergeContinuation marks a cell that continues a vertical merge
	// started in a row above. Its text belongs to the previous entry.
	MergeContinuation bool
}

// Row is an ordered sequence of cells.
type Row struct {
	Cells []Cell
	// IsHeader is true only for the first row of a table.
	IsHeader bool
}

// Table is one table extracted from a document.
type Table struct {
	Rows        []Row
	ColumnCount int
	// Headers is the resolved, cleaned first row as read from the document.
	// Names may repeat. It is nil until the table is normalized.
	Headers []string
	// Index is the 1-based position of the table within its document.
	Index int
	// DocumentID identifies the originating document. It is an identifier
	// only and never implies document ownership.
	DocumentID string
}
