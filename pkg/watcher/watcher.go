// Package watcher keeps the panel's view of the configs and results
// directories fresh. It uses fsnotify where the filesystem supports it and
// falls back to periodic polling where it does not.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// ErrAlreadyStarted is returned by Start on a running watcher.
var ErrAlreadyStarted = errors.New("watcher already started")

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		w.pollInterval = d
	}
}

// WithOnChange sets the callback invoked when a watched directory changes.
func WithOnChange(fn func(dir string)) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// dirState is the polling signature of one directory.
type dirState struct {
	count    int
	latest   time.Time
	debounce *Debouncer
}

// Watcher monitors directories for new, changed or removed files.
type Watcher struct {
	dirs             []string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func(dir string)
	onError          func(error)
	forcePoll        bool

	fsWatcher   *fsnotify.Watcher
	states      map[string]*dirState
	useFallback bool

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan string
}

// New creates a watcher over the given directories. Directories that do
// not exist yet are created so they can be watched.
func New(dirs []string, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func(string) {},
		onError:          func(error) {},
		states:           make(map[string]*dirState),
		changeCh:         make(chan string, 4),
	}

	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, err
		}
		w.dirs = append(w.dirs, abs)
	}

	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. fsnotify is preferred; any failure to set it up
// switches the whole watcher to polling.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.useFallback = w.forcePoll

	for _, dir := range w.dirs {
		count, latest := statDir(dir)
		w.states[dir] = &dirState{
			count:    count,
			latest:   latest,
			debounce: NewDebouncer(w.debounceDuration),
		}
	}

	if !w.useFallback {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			w.useFallback = true
		} else {
			for _, dir := range w.dirs {
				if err := fsw.Add(dir); err != nil {
					fsw.Close()
					fsw = nil
					w.useFallback = true
					break
				}
			}
			if fsw != nil {
				w.fsWatcher = fsw
				go w.watchFsnotify()
			}
		}
	}

	if w.useFallback {
		go w.watchPolling()
	}

	w.started = true
	return nil
}

// Stop stops watching. The change channel stays open; readers are cleaned
// up by their own contexts.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}

	if w.cancel != nil {
		w.cancel()
	}
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	for _, st := range w.states {
		st.debounce.Cancel()
	}
	w.started = false
}

// Changed returns a channel receiving the directory that changed. This is
// an alternative to the OnChange callback.
func (w *Watcher) Changed() <-chan string {
	return w.changeCh
}

// IsPolling reports whether the watcher is in polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.useFallback
}

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Dirs returns the watched directories.
func (w *Watcher) Dirs() []string {
	return append([]string(nil), w.dirs...)
}

// watchFsnotify dispatches fsnotify events to the per-directory debouncer.
func (w *Watcher) watchFsnotify() {
	w.mu.RLock()
	if w.fsWatcher == nil {
		w.mu.RUnlock()
		return
	}
	events := w.fsWatcher.Events
	errs := w.fsWatcher.Errors
	w.mu.RUnlock()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			dir := filepath.Dir(event.Name)
			w.mu.RLock()
			st := w.states[dir]
			w.mu.RUnlock()
			if st == nil {
				continue
			}
			st.debounce.Trigger(func() { w.notifyChange(dir) })

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// watchPolling compares directory signatures on a ticker.
func (w *Watcher) watchPolling() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			for _, dir := range w.dirs {
				count, latest := statDir(dir)

				w.mu.Lock()
				st := w.states[dir]
				changed := st != nil && (count != st.count || latest.After(st.latest))
				if changed {
					st.count = count
					st.latest = latest
				}
				w.mu.Unlock()

				if changed {
					st.debounce.Trigger(func() { w.notifyChange(dir) })
				}
			}
		}
	}
}

// statDir summarizes a directory as entry count plus newest mtime.
func statDir(dir string) (int, time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, time.Time{}
	}
	var latest time.Time
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return len(entries), latest
}

// notifyChange invokes the callback and signals the change channel.
func (w *Watcher) notifyChange(dir string) {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if !started {
		return
	}

	w.onChange(dir)

	// Non-blocking send; a slow reader only misses coalesced repeats.
	select {
	case w.changeCh <- dir:
	default:
	}
}
