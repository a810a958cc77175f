package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a change triggers a run.
const DefaultDebounce = 500 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	// Debounce is the quiet period after the last change (DefaultDebounce if zero)
	Debounce time.Duration
	// OnResult is called after every run, including the initial one
	OnResult func(*Result, error)
}

// recognizer is implemented by sources that can filter file names.
type recognizer interface {
	Recognizes(name string) bool
}

// Watch runs the pipeline once, then again whenever a recognized document in
// the input directory is created, written, removed or renamed. Runs never
// overlap. It returns when ctx is cancelled.
func (e *Engine) Watch(ctx context.Context, opts WatchOptions) error {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	report := opts.OnResult
	if report == nil {
		report = func(*Result, error) {}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(e.inputDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", e.inputDir, err)
	}

	res, err := e.Run(ctx)
	report(res, err)

	trigger := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	e.logger.Info("watching for changes", "dir", e.inputDir, "debounce", debounce.String())
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !e.relevant(event) {
				continue
			}
			e.logger.Debug("document changed", "document", filepath.Base(event.Name), "op", event.Op.String())

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watcher error", "error", err)

		case <-trigger:
			res, err := e.Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			report(res, err)
		}
	}
}

func (e *Engine) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if r, ok := e.source.(recognizer); ok {
		return r.Recognizes(event.Name)
	}
	return true
}
