// Package duckdb provides a DuckDB database output sink.
//
// Import this package with a blank identifier to register the sink:
//
//	import _ "github.com/leapstack-labs/tablemerge/pkg/sinks/duckdb"
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/marcboeker/go-duckdb"

	"github.com/leapstack-labs/tablemerge/pkg/core"
	"github.com/leapstack-labs/tablemerge/pkg/sink"
)

func init() {
	sink.Register("duckdb", func(l *slog.Logger) sink.Sink { return New(l) })
}

// DefaultTable is the table written when none is configured.
const DefaultTable = "merged_tables"

// Sink writes a dataset into one VARCHAR-typed DuckDB table.
type Sink struct {
	sink.BaseSQLSink
	params Params
}

// New creates a DuckDB sink. If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{
		BaseSQLSink: sink.BaseSQLSink{Logger: logger, TextType: "VARCHAR", Replace: true},
	}
}

// Name returns "duckdb".
func (s *Sink) Name() string { return "duckdb" }

// Open connects to the database file at cfg.Path and applies session settings.
// Use ":memory:" for an in-memory database.
func (s *Sink) Open(ctx context.Context, cfg core.SinkConfig) error {
	var params Params
	if err := mapstructure.Decode(cfg.Params, &params); err != nil {
		return fmt.Errorf("invalid duckdb params: %w", err)
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	// the appender and the DDL must share one connection for :memory:
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	s.params = params

	if err := s.applySettings(ctx); err != nil {
		_ = s.Close()
		return err
	}
	return nil
}

func (s *Sink) applySettings(ctx context.Context) error {
	keys := make([]string, 0, len(s.params.Settings))
	for k := range s.params.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := strings.ReplaceAll(s.params.Settings[k], "'", "''")
		//nolint:gosec // setting names come from configuration
		if _, err := s.DB.ExecContext(ctx, fmt.Sprintf("SET %s = '%s'", k, v)); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
		s.Logger.Debug("applied duckdb setting", "name", k)
	}
	return nil
}

func (s *Sink) table() (schema, name string) {
	name = s.Cfg.Table
	if name == "" {
		name = DefaultTable
	}
	return s.Cfg.Schema, name
}

func (s *Sink) qualified() string {
	schema, name := s.table()
	if schema == "" {
		return name
	}
	return schema + "." + name
}

// Write replaces the table with ds. Absent values become NULL.
func (s *Sink) Write(ctx context.Context, ds core.Dataset) error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	if schema, _ := s.table(); schema != "" {
		if _, err := s.DB.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+sink.QuoteIdent(schema)); err != nil {
			return fmt.Errorf("failed to create schema %s: %w", schema, err)
		}
	}
	if err := s.CreateTable(ctx, s.qualified(), ds.Columns); err != nil {
		return err
	}

	var err error
	if s.params.appender() {
		err = s.appendRows(ctx, ds)
	} else {
		err = s.InsertRows(ctx, s.qualified(), ds)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", s.qualified(), err)
	}

	s.Logger.Info("wrote table", "path", s.Cfg.Path, "table", s.qualified(), "records", ds.Len())
	return nil
}

// appendRows streams rows through the DuckDB appender on a raw connection.
func (s *Sink) appendRows(ctx context.Context, ds core.Dataset) error {
	conn, err := s.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	schema, name := s.table()
	return conn.Raw(func(driverConn any) error {
		dc, ok := driverConn.(driver.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}

		appender, err := duckdb.NewAppenderFromConn(dc, schema, name)
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}

		values := make([]driver.Value, len(ds.Columns))
		for i, row := range ds.Rows {
			for j, arg := range sink.RowArgs(row) {
				values[j] = arg
			}
			if err := appender.AppendRow(values...); err != nil {
				_ = appender.Close()
				return fmt.Errorf("append row %d: %w", i+1, err)
			}
		}

		// Close flushes pending rows.
		if err := appender.Close(); err != nil {
			return fmt.Errorf("failed to flush appender: %w", err)
		}
		return nil
	})
}
