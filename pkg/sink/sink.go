// Package sink defines the output sink contract for merged datasets.
//
// Concrete sinks live in pkg/sinks/ subdirectories and register themselves
// from init(). Import them with a blank identifier:
//
//	import _ "github.com/leapstack-labs/tablemerge/pkg/sinks/csv"
package sink

import (
	"context"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

// Sink writes a finished dataset to one destination.
type Sink interface {
	// Name returns the registered type name.
	Name() string

	// Open prepares the destination described by cfg.
	Open(ctx context.Context, cfg core.SinkConfig) error

	// Write writes every record of ds. Columns are written in ds order.
	Write(ctx context.Context, ds core.Dataset) error

	// Close releases resources. It is safe to call on an unopened sink.
	Close() error
}

// FileSink is implemented by sinks whose whole output is one file that
// Write replaces. Callers may point such a sink at a staging path and move
// the file into place once every other output has succeeded.
type FileSink interface {
	Sink
	ReplacesFile() bool
}
