// Package source lists documents in a directory and opens them with the
// opener registered for their extension.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/tablemerge/internal/source/docx"
	"github.com/leapstack-labs/tablemerge/internal/source/odt"
	"github.com/leapstack-labs/tablemerge/pkg/core"
)

// DefaultSkipPrefix marks editor lock and temporary files such as "~$report.docx".
const DefaultSkipPrefix = "~"

// Registry implements core.DocumentSource over the local filesystem.
type Registry struct {
	mu      sync.RWMutex
	openers map[string]core.DocumentOpener
	allowed map[string]bool

	skipPrefix string
	logger     *slog.Logger
}

// Options configures a Registry.
type Options struct {
	// SkipPrefix excludes files whose name starts with it. Empty uses DefaultSkipPrefix.
	SkipPrefix string
	// Extensions restricts listing to a subset of the registered extensions.
	Extensions []string
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// New creates a registry with no openers.
func New(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	prefix := opts.SkipPrefix
	if prefix == "" {
		prefix = DefaultSkipPrefix
	}

	r := &Registry{
		openers:    make(map[string]core.DocumentOpener),
		skipPrefix: prefix,
		logger:     logger,
	}
	if len(opts.Extensions) > 0 {
		r.allowed = make(map[string]bool, len(opts.Extensions))
		for _, ext := range opts.Extensions {
			r.allowed[normalizeExt(ext)] = true
		}
	}
	return r
}

// NewDefault creates a registry with the DOCX and ODT openers registered.
func NewDefault(opts Options) *Registry {
	r := New(opts)
	r.Register(docx.New())
	r.Register(odt.New())
	return r
}

// Register adds an opener for each of its extensions, replacing earlier ones.
func (r *Registry) Register(o core.DocumentOpener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range o.Extensions() {
		r.openers[normalizeExt(ext)] = o
	}
}

// Extensions returns the recognized extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.openers))
	for ext := range r.openers {
		if r.allowed == nil || r.allowed[ext] {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// Recognizes reports whether name has a recognized extension and is not
// excluded as a temporary or hidden file.
func (r *Registry) Recognizes(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, r.skipPrefix) || strings.HasPrefix(base, ".") {
		return false
	}
	_, ok := r.opener(filepath.Ext(base))
	return ok
}

func (r *Registry) opener(ext string) (core.DocumentOpener, bool) {
	ext = normalizeExt(ext)
	if r.allowed != nil && !r.allowed[ext] {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.openers[ext]
	return o, ok
}

// ListDocuments returns the recognized files directly inside dir, sorted by name.
func (r *Registry) ListDocuments(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var docs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !r.Recognizes(e.Name()) {
			r.logger.Debug("skipping file", "file", e.Name())
			continue
		}
		docs = append(docs, filepath.Join(dir, e.Name()))
	}
	sort.Strings(docs)

	r.logger.Debug("listed documents", "dir", dir, "documents", len(docs))
	return docs, nil
}

// Open opens path with the opener registered for its extension.
// Every failure is wrapped in a *core.DocumentError.
func (r *Registry) Open(ctx context.Context, path string) (core.DocumentHandle, error) {
	o, ok := r.opener(filepath.Ext(path))
	if !ok {
		return nil, &core.DocumentError{Path: path, Err: fmt.Errorf("%w: %q", core.ErrUnsupportedDocument, filepath.Ext(path))}
	}

	doc, err := o.Open(ctx, path)
	if err != nil {
		return nil, &core.DocumentError{Path: path, Err: err}
	}
	return doc, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
