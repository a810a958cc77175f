package core

import (
	"context"
	"time"
)

// Store defines the interface for run and checkpoint persistence.
type Store interface {
	Close() error

	// Run operations
	CreateRun(ctx context.Context, kind RunKind) (*Run, error)
	GetRun(ctx context.Context, id string) (*Run, error)
	CompleteRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// Checkpoint operations
	SaveCheckpoint(ctx context.Context, cp *Checkpoint) error
	LoadCheckpoint(ctx context.Context, key string) (*Checkpoint, error)
	LatestCheckpoint(ctx context.Context) (*Checkpoint, error)
	ListCheckpoints(ctx context.Context) ([]CheckpointInfo, error)
	PruneCheckpoints(ctx context.Context, keep int) (int, error)
}

// RunStatus represents the status of a run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunKind distinguishes full extractions from checkpoint recoveries.
type RunKind string

// Run kind constants.
const (
	RunKindExtract RunKind = "extract"
	RunKindRecover RunKind = "recover"
)

// Run represents one pipeline execution.
type Run struct {
	ID            string
	Kind          RunKind
	Status        RunStatus
	StartedAt     time.Time
	CompletedAt   *time.Time
	Error         string
	Documents     int
	Tables        int
	SkippedTables int
	Records       int
	CheckpointKey string
}

// Checkpoint is a snapshot of the aggregated dataset taken before
// deduplication and the final sanitization pass.
type Checkpoint struct {
	Key       string
	RunID     string
	CreatedAt time.Time
	Dataset   Dataset
}

// CheckpointInfo summarizes a stored checkpoint without its payload.
type CheckpointInfo struct {
	Key       string
	RunID     string
	CreatedAt time.Time
	Columns   int
	Records   int
	Bytes     int64
}

// SinkConfig holds configuration for one output sink.
type SinkConfig struct {
	Type        string            `koanf:"type"`
	Path        string            `koanf:"path"`
	Table       string            `koanf:"table"`
	Host        string            `koanf:"host"`
	Port        int               `koanf:"port"`
	Database    string            `koanf:"database"`
	User        string            `koanf:"user"`
	Password    string            `koanf:"password"`
	Schema      string            `koanf:"schema"`
	AbsentToken string            `koanf:"absent_token"`
	Options     map[string]string `koanf:"options"`
	Params      map[string]any    `koanf:"params"`
}
