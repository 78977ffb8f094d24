// Package watch processes ECG pages as they appear in a directory.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spherical/ecg-extractor/internal/domain"
	"github.com/spherical/ecg-extractor/internal/observability"
	"github.com/spherical/ecg-extractor/internal/pdf"
)

// DefaultSettle is how long a file must stay unchanged before it is
// processed.
const DefaultSettle = 500 * time.Millisecond

// Processor handles one source file.
type Processor interface {
	ProcessFile(ctx context.Context, path string, eventCh chan<- domain.StreamEvent) (*domain.Record, error)
}

// Watcher feeds new source files in a directory to a Processor.
type Watcher struct {
	processor Processor
	settle    time.Duration
	logger    *observability.Logger

	// OnResult, if set, is called after each file is processed.
	OnResult func(domain.PageResult)

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher. A zero settle uses DefaultSettle.
func New(processor Processor, settle time.Duration, logger *observability.Logger) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Watcher{
		processor: processor,
		settle:    settle,
		logger:    logger.WithOperation("watch"),
		pending:   map[string]*time.Timer{},
	}
}

// Run watches dir until ctx is cancelled. Files already present are not
// processed.
func (w *Watcher) Run(ctx context.Context, dir string, eventCh chan<- domain.StreamEvent) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return domain.IOError("create watcher", err)
	}
	defer fsw.Close()

	if err := fsw.Add(dir); err != nil {
		return domain.IOError(fmt.Sprintf("watch %s", dir), err)
	}
	w.logger.Info().Str("dir", dir).Dur("settle", w.settle).Msg("Watching for pages")

	defer w.wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev, eventCh)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event, eventCh chan<- domain.StreamEvent) {
	if !pdf.IsSupported(ev.Name) || filepath.Base(ev.Name)[0] == '.' {
		return
	}
	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		w.schedule(ctx, ev.Name, eventCh)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.cancel(ev.Name)
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, eventCh chan<- domain.StreamEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		if t.Stop() {
			t.Reset(w.settle)
			return
		}
	}
	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.settle, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.process(ctx, path, eventCh)
	})
	w.pending[path] = t
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok && t.Stop() {
		delete(w.pending, path)
		w.wg.Done()
	}
}

func (w *Watcher) process(ctx context.Context, path string, eventCh chan<- domain.StreamEvent) {
	if ctx.Err() != nil {
		return
	}
	rec, err := w.processor.ProcessFile(ctx, path, eventCh)
	if err != nil {
		w.logger.Warn().Err(err).Str("file", path).Msg("Page failed")
	}
	if w.OnResult != nil {
		w.OnResult(domain.PageResult{Path: path, Record: rec, Err: err})
	}
}

// wait stops pending timers and waits for running ones.
func (w *Watcher) wait() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			delete(w.pending, path)
			w.wg.Done()
		}
	}
	w.mu.Unlock()
	w.wg.Wait()
}
