// Package csv provides a CSV output sink.
//
// Import this package with a blank identifier to register the sink:
//
//	import _ "github.com/leapstack-labs/tablemerge/pkg/sinks/csv"
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/tablemerge/pkg/core"
	"github.com/leapstack-labs/tablemerge/pkg/sink"
)

func init() {
	sink.Register("csv", func(l *slog.Logger) sink.Sink { return New(l) })
}

// Sink writes a dataset as one CSV file with a header row.
type Sink struct {
	cfg    core.SinkConfig
	logger *slog.Logger
}

// New creates a CSV sink. If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{logger: logger}
}

// Name returns "csv".
func (s *Sink) Name() string { return "csv" }

// ReplacesFile reports that the sink rewrites its output file whole.
func (s *Sink) ReplacesFile() bool { return true }

// Open validates the output path and creates its parent directory.
func (s *Sink) Open(_ context.Context, cfg core.SinkConfig) error {
	if cfg.Path == "" {
		return fmt.Errorf("csv sink: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return fmt.Errorf("csv sink: failed to create output directory: %w", err)
	}
	s.cfg = cfg
	return nil
}

// Write replaces the output file with ds. Absent values are written as the
// configured absent token, which defaults to the empty string.
func (s *Sink) Write(ctx context.Context, ds core.Dataset) error {
	if s.cfg.Path == "" {
		return fmt.Errorf("csv sink: not opened")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp := s.cfg.Path + ".tmp"
	f, err := os.Create(tmp) //nolint:gosec // output path comes from configuration
	if err != nil {
		return fmt.Errorf("csv sink: failed to create file: %w", err)
	}

	if err := s.encode(f, ds); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("csv sink: failed to close file: %w", err)
	}
	if err := os.Rename(tmp, s.cfg.Path); err != nil {
		return fmt.Errorf("csv sink: failed to move file into place: %w", err)
	}

	s.logger.Info("wrote csv", "path", s.cfg.Path, "records", ds.Len(), "columns", len(ds.Columns))
	return nil
}

func (s *Sink) encode(out io.Writer, ds core.Dataset) error {
	w := csv.NewWriter(out)
	if err := w.Write(ds.Columns); err != nil {
		return fmt.Errorf("csv sink: failed to write header: %w", err)
	}

	record := make([]string, len(ds.Columns))
	for i, row := range ds.Rows {
		for j, v := range row {
			if v.IsAbsent() {
				record[j] = s.cfg.AbsentToken
			} else {
				record[j] = v.Text
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("csv sink: failed to write record %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv sink: failed to flush: %w", err)
	}
	return nil
}

// Close is a no-op; every Write closes its file.
func (s *Sink) Close() error { return nil }
