package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

const runColumns = `id, kind, status, started_at, completed_at, error, documents, tables, skipped_tables, records, checkpoint_key`

// CreateRun records a new run of the given kind in the running state.
func (s *SQLiteStore) CreateRun(ctx context.Context, kind core.RunKind) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &core.Run{
		ID:        generateID(),
		Kind:      kind,
		Status:    core.RunStatusRunning,
		StartedAt: s.now(),
	}
	s.logger.Debug("creating run", "id", run.ID, "kind", kind)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, string(run.Kind), string(run.Status), toUnix(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// CompleteRun stores the final status and counters of run. A nil
// CompletedAt is set to the current time.
func (s *SQLiteStore) CompleteRun(ctx context.Context, run *core.Run) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if run.CompletedAt == nil {
		now := s.now()
		run.CompletedAt = &now
	}

	var errMsg, key sql.NullString
	if run.Error != "" {
		errMsg = sql.NullString{String: run.Error, Valid: true}
	}
	if run.CheckpointKey != "" {
		key = sql.NullString{String: run.CheckpointKey, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, completed_at = ?, error = ?, documents = ?,
			tables = ?, skipped_tables = ?, records = ?, checkpoint_key = ?
		WHERE id = ?`,
		string(run.Status), toUnix(*run.CompletedAt), errMsg, run.Documents,
		run.Tables, run.SkippedTables, run.Records, key, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}
	return nil
}

// ListRuns retrieves the most recent runs up to the given limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*core.Run, error) {
	var (
		run                   core.Run
		kind, status          string
		startedAt             int64
		completedAt           sql.NullInt64
		errMsg, checkpointKey sql.NullString
	)
	err := sc.Scan(&run.ID, &kind, &status, &startedAt, &completedAt, &errMsg,
		&run.Documents, &run.Tables, &run.SkippedTables, &run.Records, &checkpointKey)
	if err != nil {
		return nil, err
	}

	run.Kind = core.RunKind(kind)
	run.Status = core.RunStatus(status)
	run.StartedAt = fromUnix(startedAt)
	if completedAt.Valid {
		t := fromUnix(completedAt.Int64)
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	run.CheckpointKey = checkpointKey.String
	return &run, nil
}
