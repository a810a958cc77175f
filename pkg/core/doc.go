// Package core defines the shared language of the tablemerge system.
//
// This package contains:
//   - Table entities (Cell, Row, Table) as read from a document
//   - Normalized data (Value, Record, Dataset)
//   - Run bookkeeping (Run, Checkpoint)
//   - Service interfaces (DocumentSource, Store)
//   - Error sentinels shared by every stage
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
