// Package engine runs the table extraction pipeline.
//
// A run lists the documents of the input directory, normalizes every table,
// aggregates the batches into one dataset, checkpoints it, then deduplicates,
// filters and writes it to the configured sinks.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/tablemerge/internal/normalize"
	"github.com/leapstack-labs/tablemerge/internal/source"
	"github.com/leapstack-labs/tablemerge/internal/state"
	"github.com/leapstack-labs/tablemerge/pkg/core"
)

// Policy decides what happens when a table cannot be enumerated.
type Policy string

// Unsupported-table policies.
const (
	// PolicyFail aborts the run.
	PolicyFail Policy = "fail"
	// PolicySkip logs the table and continues.
	PolicySkip Policy = "skip"
)

// DefaultCheckpointName prefixes daily checkpoint keys.
const DefaultCheckpointName = "tables"

// Engine orchestrates extraction, checkpointing and output.
type Engine struct {
	inputDir       string
	source         core.DocumentSource
	store          core.Store
	ownsStore      bool
	checkpointName string
	policy         Policy
	openTimeout    time.Duration
	workers        int
	sanitizer      *normalize.Sanitizer
	sinks          []core.SinkConfig
	logger         *slog.Logger
	now            func() time.Time
}

// Config holds engine configuration.
type Config struct {
	// InputDir is the directory whose documents are merged
	InputDir string
	// Source lists and opens documents (optional, defaults to DOCX and ODT)
	Source core.DocumentSource
	// Store persists runs and checkpoints (optional, opened from StatePath if nil)
	Store core.Store
	// StatePath is the path to the SQLite state database (":memory:" if empty)
	StatePath string
	// CheckpointName prefixes the daily checkpoint key
	CheckpointName string
	// OnUnsupportedTable is the policy for tables that cannot be enumerated
	OnUnsupportedTable Policy
	// OpenTimeout bounds each document open (zero means no limit)
	OpenTimeout time.Duration
	// Workers is the number of documents processed concurrently (minimum 1)
	Workers int
	// Sanitizer filters cell and header text (optional)
	Sanitizer *normalize.Sanitizer
	// Sinks receive the final dataset, in order
	Sinks []core.SinkConfig
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// Now returns the current time (optional, for tests)
	Now func() time.Time
}

// New creates an engine. It opens the state store when cfg.Store is nil.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	policy := cfg.OnUnsupportedTable
	switch policy {
	case "":
		policy = PolicyFail
	case PolicyFail, PolicySkip:
	default:
		return nil, fmt.Errorf("invalid unsupported-table policy %q (expected %q or %q)", policy, PolicyFail, PolicySkip)
	}

	e := &Engine{
		inputDir:       cfg.InputDir,
		source:         cfg.Source,
		store:          cfg.Store,
		checkpointName: cfg.CheckpointName,
		policy:         policy,
		openTimeout:    cfg.OpenTimeout,
		workers:        max(cfg.Workers, 1),
		sanitizer:      cfg.Sanitizer,
		sinks:          cfg.Sinks,
		logger:         logger,
		now:            cfg.Now,
	}
	if e.source == nil {
		e.source = source.NewDefault(source.Options{Logger: logger})
	}
	if e.checkpointName == "" {
		e.checkpointName = DefaultCheckpointName
	}
	if e.sanitizer == nil {
		e.sanitizer = &normalize.Sanitizer{}
	}
	if e.now == nil {
		e.now = time.Now
	}

	if e.store == nil {
		path := cfg.StatePath
		if path == "" {
			path = ":memory:"
		}
		store, err := state.OpenStore(path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		e.store = store
		e.ownsStore = true
	}

	logger.Debug("engine initialized",
		"input_dir", e.inputDir,
		"policy", string(e.policy),
		"workers", e.workers,
		"sinks", len(e.sinks),
	)
	return e, nil
}

// Close releases the state store if the engine opened it.
func (e *Engine) Close() error {
	if e.ownsStore && e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Store returns the engine's state store.
func (e *Engine) Store() core.Store {
	return e.store
}

// InputDir returns the directory the engine reads.
func (e *Engine) InputDir() string {
	return e.inputDir
}

// finishRun records the outcome of run. Cancellation is recorded as cancelled.
func (e *Engine) finishRun(run *core.Run, runErr error) error {
	switch {
	case runErr == nil:
		run.Status = core.RunStatusCompleted
	case errors.Is(runErr, context.Canceled):
		run.Status = core.RunStatusCancelled
		run.Error = runErr.Error()
	default:
		run.Status = core.RunStatusFailed
		run.Error = runErr.Error()
	}

	// the run context may already be cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.store.CompleteRun(ctx, run); err != nil {
		return errors.Join(runErr, fmt.Errorf("failed to record run: %w", err))
	}

	e.logger.Debug("run recorded", "run_id", run.ID, "status", string(run.Status))
	return runErr
}
