// Package watch reloads a dataset file whenever it changes on disk.
//
// The containing directory is watched rather than the file itself so that
// editors which save by writing a temporary file and renaming it over the
// original are still seen. Bursts of events are debounced into a single
// reload, and every reload is a full replacement of the dataset.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/graph"
)

// DefaultDebounce is the quiet period before a reload.
const DefaultDebounce = 150 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option { return func(w *Watcher) { w.debounce = d } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(w *Watcher) { w.logger = l } }

// WithOnError sets the callback for read and decode failures. The previous
// dataset stays in place when a reload fails.
func WithOnError(fn func(error)) Option { return func(w *Watcher) { w.onError = fn } }

// Watcher monitors one dataset file.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *log.Logger
	onChange func(graph.Dataset)
	onError  func(error)

	mu    sync.Mutex
	timer *time.Timer
	// reloading serializes reload callbacks across timer goroutines.
	reloading sync.Mutex
}

// New creates a watcher for path. onChange receives each successfully
// decoded dataset on a debounce timer goroutine, never on the caller's and
// never concurrently with itself; hosts hand the dataset to their loop.
func New(path string, onChange func(graph.Dataset), opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "watch %s", path)
	}
	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounce,
		logger:   log.Default(),
		onChange: onChange,
		onError:  func(error) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Run watches until ctx is done. It returns nil on cancellation and an
// error only when the watch cannot be established.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create watcher")
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "watch %s", filepath.Dir(w.path))
	}
	w.logger.Info("watching dataset", "path", w.path)

	target := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.trigger(ctx)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
			w.onError(err)
		}
	}
}

func (w *Watcher) trigger(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.reload()
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) reload() {
	w.reloading.Lock()
	defer w.reloading.Unlock()

	d, err := graph.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("reload failed", "path", w.path, "err", err)
		w.onError(err)
		return
	}
	w.logger.Info("dataset changed", "nodes", len(d.Nodes), "edges", len(d.Edges))
	w.onChange(d)
}
