// Package sqlite provides a SQLite database output sink.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/leapstack-labs/tablemerge/pkg/core"
	"github.com/leapstack-labs/tablemerge/pkg/sink"
)

func init() {
	sink.Register("sqlite", func(l *slog.Logger) sink.Sink { return New(l) })
}

// DefaultTable is the table written when none is configured.
const DefaultTable = "merged_tables"

// Sink writes a dataset into one TEXT-typed SQLite table.
type Sink struct {
	sink.BaseSQLSink
	table string
}

// New creates a SQLite sink. If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{
		BaseSQLSink: sink.BaseSQLSink{Logger: logger, TextType: "TEXT"},
	}
}

// Name returns "sqlite".
func (s *Sink) Name() string { return "sqlite" }

// Open opens the database file at cfg.Path.
func (s *Sink) Open(ctx context.Context, cfg core.SinkConfig) error {
	if cfg.Path == "" {
		return fmt.Errorf("sqlite sink: path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	s.table = cfg.Table
	if s.table == "" {
		s.table = DefaultTable
	}
	return nil
}

// Write recreates the table and inserts every record. Absent values become NULL.
func (s *Sink) Write(ctx context.Context, ds core.Dataset) error {
	if err := s.CreateTable(ctx, s.table, ds.Columns); err != nil {
		return err
	}
	if err := s.InsertRows(ctx, s.table, ds); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", s.table, err)
	}
	s.Logger.Info("wrote table", "path", s.Cfg.Path, "table", s.table, "records", ds.Len())
	return nil
}
