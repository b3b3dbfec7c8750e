// Package watch re-runs an action when any of a fixed set of files changes.
//
// The parent directory of each file is watched rather than the file itself,
// so editors that save by renaming a temporary file over the original are
// still observed. Bursts of events are debounced into a single call.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gpiler/ptxlink/internal/types"
)

// DefaultDebounce is how long the files must be quiet before the action runs.
const DefaultDebounce = 200 * time.Millisecond

// tickInterval is how often pending changes are checked for having settled.
const tickInterval = 50 * time.Millisecond

// ErrNoFiles is returned by New when given nothing to watch.
var ErrNoFiles = errors.New("watch: no files")

// Func is called with the sorted paths that changed since the last call.
// An error is logged and counted; watching continues.
type Func func(ctx context.Context, changed []string) error

// Stats counts watcher activity.
type Stats struct {
	Events int
	Runs   int
	Errors int
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before the action runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.Logger = types.Logger{L: types.Component(logger, "watch")} }
}

// Watcher watches files and runs a Func after they change.
type Watcher struct {
	types.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	files    map[string]struct{} // cleaned absolute paths
	dirs     []string
	fn       Func
	debounce time.Duration
	pending  map[string]time.Time
	stats    Stats
	running  bool
	closed   bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a Watcher for files. Relative paths are resolved against
// the working directory.
func New(files []string, fn Func, opts ...Option) (*Watcher, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	w := &Watcher{
		files:    make(map[string]struct{}, len(files)),
		fn:       fn,
		debounce: DefaultDebounce,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		w.files[abs] = struct{}{}
		if dir := filepath.Dir(abs); !slices.Contains(w.dirs, dir) {
			w.dirs = append(w.dirs, dir)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.watcher = fw
	return w, nil
}

// Start begins watching. It returns after the directories are registered;
// events are handled in a background goroutine until ctx is done or Stop
// is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.closed {
		return nil
	}

	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
		w.Log(slog.LevelDebug, "watching directory", slog.String("dir", dir))
	}

	w.running = true
	go w.run(ctx)
	return nil
}

// Stop ends watching, waits for the event goroutine to exit and releases
// the underlying watcher. It is safe to call more than once, and without
// a prior Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}

	if err := w.watcher.Close(); err != nil {
		w.Log(slog.LevelWarn, "error closing watcher", slog.Any("error", err))
	}
	w.Log(slog.LevelDebug, "stopped")
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.Log(slog.LevelWarn, "watch error", slog.Any("error", err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}
	name := filepath.Clean(event.Name)
	if _, ok := w.files[name]; !ok {
		return
	}
	if w.TraceEnabled() {
		w.Trace("event", slog.String("path", name), slog.String("op", event.Op.String()))
	}

	w.mu.Lock()
	w.stats.Events++
	w.pending[name] = time.Now()
	w.mu.Unlock()
}

// flush runs the action once every pending change has been quiet for the
// debounce period.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, t := range w.pending {
		if now.Sub(t) < w.debounce {
			w.mu.Unlock()
			return
		}
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	clear(w.pending)
	w.stats.Runs++
	w.mu.Unlock()

	slices.Sort(changed)
	w.Log(slog.LevelDebug, "files changed", slog.Any("paths", changed))
	if err := w.fn(ctx, changed); err != nil {
		w.Log(slog.LevelWarn, "action failed", slog.Any("error", err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
	}
}
