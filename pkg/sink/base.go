package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

// BaseSQLSink provides common database/sql functionality for SQL sinks.
// Embed it in concrete sinks to get Close, CreateTable and InsertRows.
type BaseSQLSink struct {
	DB     *sql.DB
	Cfg    core.SinkConfig
	Logger *slog.Logger

	// Placeholder formats the n-th (1-based) bind parameter. Defaults to "?".
	Placeholder func(n int) string
	// TextType is the column type used for every column. Defaults to VARCHAR.
	TextType string
	// Replace uses CREATE OR REPLACE TABLE instead of DROP followed by CREATE.
	Replace bool
}

// Close closes the database connection.
func (b *BaseSQLSink) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		err := b.DB.Close()
		b.DB = nil
		return err
	}
	return nil
}

// QuoteIdent quotes a single SQL identifier with double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteQualified quotes a possibly schema-qualified table name.
func QuoteQualified(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = QuoteIdent(p)
	}
	return strings.Join(parts, ".")
}

// CreateTable (re)creates table with one text column per name.
func (b *BaseSQLSink) CreateTable(ctx context.Context, table string, columns []string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	textType := b.TextType
	if textType == "" {
		textType = "VARCHAR"
	}
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = QuoteIdent(c) + " " + textType
	}

	quoted := QuoteQualified(table)
	create := "CREATE TABLE"
	if b.Replace {
		create = "CREATE OR REPLACE TABLE"
	} else if _, err := b.DB.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	//nolint:gosec // identifiers are quoted
	if _, err := b.DB.ExecContext(ctx, fmt.Sprintf("%s %s (%s)", create, quoted, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

// InsertRows inserts every row of ds into table in one transaction.
// Absent values are inserted as NULL.
func (b *BaseSQLSink) InsertRows(ctx context.Context, table string, ds core.Dataset) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if ds.Len() == 0 {
		return nil
	}

	placeholder := b.Placeholder
	if placeholder == nil {
		placeholder = func(int) string { return "?" }
	}
	cols := make([]string, len(ds.Columns))
	marks := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		cols[i] = QuoteIdent(c)
		marks[i] = placeholder(i + 1)
	}
	//nolint:gosec // identifiers are quoted
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", QuoteQualified(table), strings.Join(cols, ", "), strings.Join(marks, ", "))

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range ds.Rows {
		if _, err := stmt.ExecContext(ctx, RowArgs(row)...); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RowArgs converts a dataset row to bind arguments, absent values as nil.
func RowArgs(row []core.Value) []any {
	args := make([]any, len(row))
	for i, v := range row {
		if v.IsAbsent() {
			continue
		}
		args[i] = v.Text
	}
	return args
}
