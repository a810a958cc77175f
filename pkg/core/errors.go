package core

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	// ErrTableEnumerationUnsupported is returned when a table's rows or
	// cells cannot be enumerated. The table is abandoned.
	ErrTableEnumerationUnsupported = errors.New("table enumeration unsupported")

	// ErrDocumentOpen is returned when a document cannot be opened.
	ErrDocumentOpen = errors.New("document open failed")

	// ErrNoCheckpoint is returned when a requested checkpoint does not exist.
	ErrNoCheckpoint = errors.New("checkpoint not found")

	// ErrUnsupportedDocument is returned when no opener handles a file's extension.
	ErrUnsupportedDocument = errors.New("unsupported document type")

	// ErrUnknownSink is returned when no sink is registered for a type name.
	ErrUnknownSink = errors.New("unknown sink type")
)

// DocumentError wraps a failure to open a document.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Path, e.Err)
}

// Unwrap exposes both ErrDocumentOpen and the underlying cause.
func (e *DocumentError) Unwrap() []error {
	return []error{ErrDocumentOpen, e.Err}
}

// TableError identifies a table that could not be enumerated.
type TableError struct {
	Document string
	Index    int
	Err      error
}

func (e *TableError) Error() string {
	return fmt.Sprintf("%s: table %d: %v", e.Document, e.Index, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}
