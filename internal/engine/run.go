package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/tablemerge/internal/normalize"
	"github.com/leapstack-labs/tablemerge/internal/state"
	"github.com/leapstack-labs/tablemerge/pkg/core"
	"github.com/leapstack-labs/tablemerge/pkg/sink"
)

// Result describes a finished run.
type Result struct {
	Run     *core.Run
	Dataset core.Dataset
	Skipped []SkippedTable
	// Outputs lists the sinks written, as "type:path" or "type:table".
	Outputs []string
}

// Run extracts every document, checkpoints the aggregate and writes the
// final dataset to every sink. A failed or cancelled run replaces no output
// file; a database sink that succeeded before a later sink failed keeps
// its table.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	run, err := e.store.CreateRun(ctx, core.RunKindExtract)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	logger := e.logger.With("run_id", run.ID)
	logger.Info("starting run", "input_dir", e.inputDir)

	res := &Result{Run: run}
	err = e.run(ctx, res)
	return res, e.finishRun(run, err)
}

func (e *Engine) run(ctx context.Context, res *Result) error {
	ex, err := e.Extract(ctx)
	if err != nil {
		return err
	}
	res.Run.Documents = ex.Documents
	res.Run.Tables = ex.Tables
	res.Run.SkippedTables = len(ex.Skipped)
	res.Skipped = ex.Skipped

	if err := ctx.Err(); err != nil {
		return err
	}

	cp := &core.Checkpoint{
		Key:       state.CheckpointKey(e.checkpointName, e.now()),
		RunID:     res.Run.ID,
		CreatedAt: e.now().UTC(),
		Dataset:   ex.Dataset,
	}
	if err := e.store.SaveCheckpoint(ctx, cp); err != nil {
		return err
	}
	res.Run.CheckpointKey = cp.Key
	e.logger.Info("saved checkpoint", "checkpoint", cp.Key, "records", ex.Dataset.Len())

	return e.finalize(ctx, ex.Dataset, res)
}

// Recover rebuilds the outputs from a stored checkpoint without reading any
// document. An empty key selects the most recent checkpoint.
func (e *Engine) Recover(ctx context.Context, key string) (*Result, error) {
	run, err := e.store.CreateRun(ctx, core.RunKindRecover)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	res := &Result{Run: run}
	err = e.recover(ctx, key, res)
	return res, e.finishRun(run, err)
}

func (e *Engine) recover(ctx context.Context, key string, res *Result) error {
	var (
		cp  *core.Checkpoint
		err error
	)
	if key == "" {
		cp, err = e.store.LatestCheckpoint(ctx)
	} else {
		cp, err = e.store.LoadCheckpoint(ctx, key)
	}
	if err != nil {
		return err
	}
	res.Run.CheckpointKey = cp.Key
	e.logger.Info("recovering from checkpoint", "checkpoint", cp.Key, "records", cp.Dataset.Len(), "run_id", res.Run.ID)

	return e.finalize(ctx, cp.Dataset, res)
}

// finalize deduplicates and filters ds, then writes it to every sink.
func (e *Engine) finalize(ctx context.Context, ds core.Dataset, res *Result) error {
	final := normalize.Finalize(ds, e.sanitizer)
	res.Dataset = final
	res.Run.Records = final.Len()
	e.logger.Debug("finalized dataset", "records", final.Len(), "duplicates", ds.Len()-final.Len())

	return e.writeSinks(ctx, final, res)
}

// stagedFile is a file output written beside its destination.
type stagedFile struct {
	staging string
	path    string
}

// writeSinks writes ds to each sink in order and stops at the first failure.
// File outputs are written to staging paths and moved into place only after
// every sink succeeded; on failure the staged files are removed.
func (e *Engine) writeSinks(ctx context.Context, ds core.Dataset, res *Result) (err error) {
	var staged []stagedFile
	defer func() {
		if err != nil {
			discardStaged(staged)
		}
	}()

	outputs := make([]string, 0, len(e.sinks))
	for _, cfg := range e.sinks {
		if err := ctx.Err(); err != nil {
			return err
		}
		staging, werr := e.writeSink(ctx, cfg, ds)
		if staging != "" {
			staged = append(staged, stagedFile{staging: staging, path: cfg.Path})
		}
		if werr != nil {
			return werr
		}
		outputs = append(outputs, describeSink(cfg))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, f := range staged {
		if err := os.Rename(f.staging, f.path); err != nil {
			discardStaged(staged[i+1:])
			return fmt.Errorf("failed to move output into place: %w", err)
		}
		e.logger.Debug("moved output into place", "path", f.path)
	}
	res.Outputs = outputs
	return nil
}

// writeSink writes ds to one sink. For a file sink it returns the staging
// path written instead of cfg.Path.
func (e *Engine) writeSink(ctx context.Context, cfg core.SinkConfig, ds core.Dataset) (staging string, err error) {
	s, err := sink.NewSink(cfg, e.logger)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close %s output: %w", cfg.Type, cerr))
		}
	}()

	if fs, ok := s.(sink.FileSink); ok && fs.ReplacesFile() && cfg.Path != "" {
		staging = stagingPath(cfg.Path)
		cfg.Path = staging
	}

	if err := s.Open(ctx, cfg); err != nil {
		return staging, fmt.Errorf("failed to open %s output: %w", cfg.Type, err)
	}
	if err := s.Write(ctx, ds); err != nil {
		return staging, fmt.Errorf("failed to write %s output: %w", cfg.Type, err)
	}
	return staging, nil
}

// stagingPath returns a hidden sibling of path that keeps its extension.
func stagingPath(path string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+".partial"+ext)
}

func discardStaged(staged []stagedFile) {
	for _, f := range staged {
		_ = os.Remove(f.staging)
	}
}

func describeSink(cfg core.SinkConfig) string {
	switch {
	case cfg.Path != "":
		return cfg.Type + ":" + cfg.Path
	case cfg.Table != "":
		return cfg.Type + ":" + cfg.Table
	default:
		return cfg.Type
	}
}
