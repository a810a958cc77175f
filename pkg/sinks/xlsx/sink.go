// Package xlsx provides an Excel workbook output sink.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/tablemerge/pkg/core"
	"github.com/leapstack-labs/tablemerge/pkg/sink"
)

func init() {
	sink.Register("xlsx", func(l *slog.Logger) sink.Sink { return New(l) })
}

// DefaultSheet is the worksheet written when options.sheet is unset.
const DefaultSheet = "Sheet1"

// Sink writes a dataset to a single worksheet with a bold header row.
// Absent values leave their cell unset.
type Sink struct {
	cfg    core.SinkConfig
	sheet  string
	logger *slog.Logger
}

// New creates an XLSX sink. If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{logger: logger}
}

// Name returns "xlsx".
func (s *Sink) Name() string { return "xlsx" }

// ReplacesFile reports that the sink rewrites its output file whole.
func (s *Sink) ReplacesFile() bool { return true }

// Open validates the output path and creates its parent directory.
func (s *Sink) Open(_ context.Context, cfg core.SinkConfig) error {
	if cfg.Path == "" {
		return fmt.Errorf("xlsx sink: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return fmt.Errorf("xlsx sink: failed to create output directory: %w", err)
	}
	s.cfg = cfg
	s.sheet = DefaultSheet
	if name := cfg.Options["sheet"]; name != "" {
		s.sheet = name
	}
	return nil
}

// Write replaces the workbook with ds.
func (s *Sink) Write(ctx context.Context, ds core.Dataset) error {
	if s.cfg.Path == "" {
		return fmt.Errorf("xlsx sink: not opened")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if s.sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, s.sheet); err != nil {
			return fmt.Errorf("xlsx sink: failed to name sheet: %w", err)
		}
	}

	sw, err := f.NewStreamWriter(s.sheet)
	if err != nil {
		return fmt.Errorf("xlsx sink: failed to create stream writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx sink: failed to create header style: %w", err)
	}

	header := make([]any, len(ds.Columns))
	for i, c := range ds.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: bold}); err != nil {
		return fmt.Errorf("xlsx sink: failed to write header: %w", err)
	}

	for i, row := range ds.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsx sink: %w", err)
		}
		// nil values are skipped by the stream writer
		if err := sw.SetRow(cell, sink.RowArgs(row)); err != nil {
			return fmt.Errorf("xlsx sink: failed to write record %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("xlsx sink: failed to flush: %w", err)
	}
	if err := f.SaveAs(s.cfg.Path); err != nil {
		return fmt.Errorf("xlsx sink: failed to save workbook: %w", err)
	}

	s.logger.Info("wrote workbook", "path", s.cfg.Path, "sheet", s.sheet, "records", ds.Len())
	return nil
}

// Close is a no-op; every Write saves and closes its workbook.
func (s *Sink) Close() error { return nil }
