package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/tablemerge/internal/normalize"
	"github.com/leapstack-labs/tablemerge/pkg/core"
)

// SkippedTable identifies a table left out under PolicySkip.
type SkippedTable struct {
	Document string
	Index    int
	Reason   string
}

// Extraction is the aggregated, not yet deduplicated dataset of one pass
// over the input directory.
type Extraction struct {
	Dataset   core.Dataset
	Documents int
	Tables    int
	Skipped   []SkippedTable
}

// documentResult holds the batches of one document in table order.
type documentResult struct {
	batches []normalize.Batch
	skipped []SkippedTable
}

// Extract reads every document of the input directory and aggregates its tables.
// The context is checked between documents, never within one.
func (e *Engine) Extract(ctx context.Context) (*Extraction, error) {
	docs, err := e.source.ListDocuments(ctx, e.inputDir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		e.logger.Warn("no documents found", "dir", e.inputDir)
	}

	results := make([]documentResult, len(docs))
	if e.workers <= 1 || len(docs) <= 1 {
		for i, path := range docs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := e.processDocument(ctx, path)
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
	} else if err := e.extractParallel(ctx, docs, results); err != nil {
		return nil, err
	}

	agg := normalize.NewAggregator()
	ex := &Extraction{Documents: len(docs)}
	for _, r := range results {
		for _, b := range r.batches {
			agg.Append(b)
		}
		ex.Tables += len(r.batches)
		ex.Skipped = append(ex.Skipped, r.skipped...)
	}
	ex.Dataset = agg.Dataset()

	e.logger.Info("extracted tables",
		"documents", ex.Documents,
		"tables", ex.Tables,
		"skipped", len(ex.Skipped),
		"records", ex.Dataset.Len(),
		"columns", len(ex.Dataset.Columns),
	)
	return ex, nil
}

// extractParallel fills results by document position so that aggregation
// order matches the sequential path.
func (e *Engine) extractParallel(ctx context.Context, docs []string, results []documentResult) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, path := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := e.processDocument(gctx, path)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// a cancelled parent can leave every worker returning early without error
	return ctx.Err()
}

// processDocument opens one document and normalizes its tables in order.
func (e *Engine) processDocument(ctx context.Context, path string) (documentResult, error) {
	logger := e.logger.With("document", filepath.Base(path))

	doc, err := e.open(ctx, path)
	if err != nil {
		return documentResult{}, err
	}
	defer func() {
		if err := doc.Close(); err != nil {
			logger.Debug("failed to close document", "error", err)
		}
	}()

	tables, err := doc.Tables()
	if err != nil {
		return documentResult{}, &core.DocumentError{Path: path, Err: err}
	}

	var r documentResult
	for i, th := range tables {
		index := i + 1
		t, err := core.ReadTable(th, path, index)
		if err != nil {
			if errors.Is(err, core.ErrTableEnumerationUnsupported) && e.policy == PolicySkip {
				logger.Warn("skipping table", "table", index, "reason", err.Error())
				r.skipped = append(r.skipped, SkippedTable{Document: path, Index: index, Reason: err.Error()})
				continue
			}
			return documentResult{}, &core.TableError{Document: path, Index: index, Err: err}
		}

		b := normalize.NormalizeTable(t, e.sanitizer)
		logger.Debug("normalized table", "table", index, "rows", len(t.Rows), "records", len(b.Records), "columns", len(b.Headers))
		r.batches = append(r.batches, b)
	}
	return r, nil
}

type openResult struct {
	doc core.DocumentHandle
	err error
}

// open opens path, bounded by the configured open timeout.
func (e *Engine) open(ctx context.Context, path string) (core.DocumentHandle, error) {
	if e.openTimeout <= 0 {
		return e.source.Open(ctx, path)
	}

	tctx, cancel := context.WithTimeout(ctx, e.openTimeout)
	defer cancel()

	done := make(chan openResult, 1)
	go func() {
		doc, err := e.source.Open(tctx, path)
		done <- openResult{doc: doc, err: err}
	}()

	select {
	case r := <-done:
		return r.doc, r.err
	case <-tctx.Done():
		// release a handle that arrives after we gave up on it
		go func() {
			if r := <-done; r.doc != nil {
				_ = r.doc.Close()
			}
		}()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, &core.DocumentError{
			Path: path,
			Err:  fmt.Errorf("open timed out after %s: %w", e.openTimeout, tctx.Err()),
		}
	}
}
