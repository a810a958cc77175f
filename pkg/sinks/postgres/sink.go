// Package postgres provides a PostgreSQL output sink.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/leapstack-labs/tablemerge/pkg/core"
	"github.com/leapstack-labs/tablemerge/pkg/sink"
)

func init() {
	sink.Register("postgres", func(l *slog.Logger) sink.Sink { return New(l) })
}

// Defaults applied when the configuration leaves them unset.
const (
	DefaultTable  = "merged_tables"
	DefaultSchema = "public"
)

// Sink recreates one TEXT-typed table and loads it with COPY.
type Sink struct {
	sink.BaseSQLSink
}

// New creates a PostgreSQL sink. If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{
		BaseSQLSink: sink.BaseSQLSink{
			Logger:      logger,
			TextType:    "TEXT",
			Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		},
	}
}

// Name returns "postgres".
func (s *Sink) Name() string { return "postgres" }

// Open establishes a connection to PostgreSQL.
func (s *Sink) Open(ctx context.Context, cfg core.SinkConfig) error {
	dsn := buildPostgresDSN(cfg)

	s.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg core.SinkConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

// identifier returns the target table as a pgx identifier.
func identifier(cfg core.SinkConfig) pgx.Identifier {
	schema := cfg.Schema
	if schema == "" {
		schema = DefaultSchema
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	return pgx.Identifier{schema, table}
}

// Write replaces the table with ds. Absent values become NULL.
func (s *Sink) Write(ctx context.Context, ds core.Dataset) error {
	if s.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	ident := identifier(s.Cfg)
	table := ident[0] + "." + ident[1]
	if err := s.CreateTable(ctx, table, ds.Columns); err != nil {
		return err
	}

	n, err := s.copyRows(ctx, ident, ds)
	if err != nil {
		return fmt.Errorf("failed to copy into %s: %w", ident.Sanitize(), err)
	}

	s.Logger.Info("wrote table", "table", ident.Sanitize(), "records", n)
	return nil
}

// copyRows loads ds with COPY FROM STDIN over the underlying pgx connection.
func (s *Sink) copyRows(ctx context.Context, ident pgx.Identifier, ds core.Dataset) (int64, error) {
	conn, err := s.DB.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var copied int64
	err = conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}

		src := pgx.CopyFromSlice(len(ds.Rows), func(i int) ([]any, error) {
			return sink.RowArgs(ds.Rows[i]), nil
		})
		copied, err = sc.Conn().CopyFrom(ctx, ident, ds.Columns, src)
		return err
	})
	return copied, err
}
