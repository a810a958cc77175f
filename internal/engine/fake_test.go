package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/leapstack-labs/tablemerge/pkg/core"
	"github.com/leapstack-labs/tablemerge/pkg/sink"
)

func init() {
	sink.Register("failing", func(*slog.Logger) sink.Sink { return failingSink{} })
}

// failingSink rejects every write.
type failingSink struct{}

func (failingSink) Name() string                                { return "failing" }
func (failingSink) Open(context.Context, core.SinkConfig) error { return nil }
func (failingSink) Write(context.Context, core.Dataset) error   { return errors.New("disk full") }
func (failingSink) Close() error                                { return nil }

type fakeCell struct {
	text string
	cont bool
}

func (c fakeCell) Text() string              { return c.text }
func (c fakeCell) IsMergeContinuation() bool { return c.cont }

type fakeRow []fakeCell

func (r fakeRow) Cells() []core.CellHandle {
	out := make([]core.CellHandle, len(r))
	for i, c := range r {
		out[i] = c
	}
	return out
}

type fakeTable struct {
	columns int
	rows    []fakeRow
	err     error
}

func (t *fakeTable) ColumnCount() int { return t.columns }

func (t *fakeTable) Rows() ([]core.RowHandle, error) {
	if t.err != nil {
		return nil, t.err
	}
	out := make([]core.RowHandle, len(t.rows))
	for i, r := range t.rows {
		out[i] = r
	}
	return out, nil
}

// table builds a fake table whose column count is the header width.
func table(header []string, rows ...[]string) *fakeTable {
	t := &fakeTable{columns: len(header), rows: []fakeRow{textRow(header...)}}
	for _, r := range rows {
		t.rows = append(t.rows, textRow(r...))
	}
	return t
}

func unsupportedTable() *fakeTable {
	return &fakeTable{err: fmt.Errorf("%w: content control", core.ErrTableEnumerationUnsupported)}
}

func textRow(texts ...string) fakeRow {
	r := make(fakeRow, len(texts))
	for i, t := range texts {
		r[i] = fakeCell{text: t}
	}
	return r
}

type fakeDoc struct {
	path   string
	tables []*fakeTable
	src    *fakeSource
}

func (d *fakeDoc) Path() string { return d.path }

func (d *fakeDoc) Tables() ([]core.TableHandle, error) {
	out := make([]core.TableHandle, len(d.tables))
	for i, t := range d.tables {
		out[i] = t
	}
	return out, nil
}

func (d *fakeDoc) Close() error {
	d.src.mu.Lock()
	defer d.src.mu.Unlock()
	d.src.closed++
	return nil
}

// fakeSource serves in-memory documents keyed by base name.
type fakeSource struct {
	mu        sync.Mutex
	docs      map[string][]*fakeTable
	openErr   map[string]error
	openDelay map[string]time.Duration
	// onOpen runs after each successful open
	onOpen func(name string)
	opened []string
	closed int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		docs:      make(map[string][]*fakeTable),
		openErr:   make(map[string]error),
		openDelay: make(map[string]time.Duration),
	}
}

func (s *fakeSource) add(name string, tables ...*fakeTable) *fakeSource {
	s.docs[name] = tables
	return s
}

func (s *fakeSource) ListDocuments(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, filepath.Join(dir, name))
	}
	sort.Strings(names)
	return names, nil
}

func (s *fakeSource) Open(ctx context.Context, path string) (core.DocumentHandle, error) {
	name := filepath.Base(path)
	if d := s.openDelay[name]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, &core.DocumentError{Path: path, Err: ctx.Err()}
		}
	}
	if err := s.openErr[name]; err != nil {
		return nil, &core.DocumentError{Path: path, Err: err}
	}

	s.mu.Lock()
	s.opened = append(s.opened, name)
	s.mu.Unlock()
	if s.onOpen != nil {
		s.onOpen(name)
	}
	return &fakeDoc{path: path, tables: s.docs[name], src: s}, nil
}

func (s *fakeSource) openedDocs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.opened...)
}
