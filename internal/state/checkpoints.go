package state

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

// SaveCheckpoint stores cp under its key, replacing an earlier checkpoint
// with the same key.
func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, cp *core.Checkpoint) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if cp.Key == "" {
		return fmt.Errorf("checkpoint key is required")
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.now()
	}

	payload, err := encodeDataset(cp.Dataset)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO checkpoints (key, run_id, created_at, columns, records, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cp.Key, cp.RunID, toUnix(cp.CreatedAt), len(cp.Dataset.Columns), cp.Dataset.Len(), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	s.logger.Debug("saved checkpoint", "key", cp.Key, "records", cp.Dataset.Len(), "bytes", len(payload))
	return nil
}

// LoadCheckpoint retrieves the checkpoint stored under key.
// It returns core.ErrNoCheckpoint if none exists.
func (s *SQLiteStore) LoadCheckpoint(ctx context.Context, key string) (*core.Checkpoint, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT key, run_id, created_at, payload FROM checkpoints WHERE key = ?`, key)
	cp, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrNoCheckpoint, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return cp, nil
}

// LatestCheckpoint retrieves the most recently created checkpoint.
func (s *SQLiteStore) LatestCheckpoint(ctx context.Context) (*core.Checkpoint, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT key, run_id, created_at, payload FROM checkpoints ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	cp, err := scanCheckpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNoCheckpoint
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest checkpoint: %w", err)
	}
	return cp, nil
}

// ListCheckpoints returns stored checkpoints, newest first.
func (s *SQLiteStore) ListCheckpoints(ctx context.Context) ([]core.CheckpointInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, run_id, created_at, columns, records, length(payload)
		FROM checkpoints ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []core.CheckpointInfo
	for rows.Next() {
		var info core.CheckpointInfo
		var createdAt int64
		if err := rows.Scan(&info.Key, &info.RunID, &createdAt, &info.Columns, &info.Records, &info.Bytes); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		info.CreatedAt = fromUnix(createdAt)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	return infos, nil
}

// PruneCheckpoints deletes all but the keep newest checkpoints and
// returns the number deleted.
func (s *SQLiteStore) PruneCheckpoints(ctx context.Context, keep int) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	if keep < 0 {
		return 0, fmt.Errorf("keep must not be negative: %d", keep)
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM checkpoints WHERE key NOT IN (
			SELECT key FROM checkpoints ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune checkpoints: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune checkpoints: %w", err)
	}
	s.logger.Debug("pruned checkpoints", "deleted", n, "kept", keep)
	return int(n), nil
}

func scanCheckpoint(sc scanner) (*core.Checkpoint, error) {
	var (
		cp        core.Checkpoint
		createdAt int64
		payload   []byte
	)
	if err := sc.Scan(&cp.Key, &cp.RunID, &createdAt, &payload); err != nil {
		return nil, err
	}
	cp.CreatedAt = fromUnix(createdAt)

	ds, err := decodeDataset(payload)
	if err != nil {
		return nil, err
	}
	cp.Dataset = ds
	return &cp, nil
}

func encodeDataset(ds core.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ds); err != nil {
		return nil, fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeDataset(payload []byte) (core.Dataset, error) {
	var ds core.Dataset
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&ds); err != nil {
		return core.Dataset{}, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return ds, nil
}
