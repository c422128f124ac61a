// Package remotesync folds changes made to the durable store by other
// processes into the live in-memory store.
package remotesync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ALT-F4-LLC/portfolio/internal/db"
	"github.com/ALT-F4-LLC/portfolio/internal/model"
	"github.com/ALT-F4-LLC/portfolio/internal/store"
)

// DefaultDebounce is how long file events are collected before a refresh.
const DefaultDebounce = 50 * time.Millisecond

// Source loads the committed contents of the durable store.
type Source interface {
	Load() (*model.Snapshot, error)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithErrorHandler sets the hook that receives refresh and watch errors.
func WithErrorHandler(fn func(error)) Option {
	return func(r *Reconciler) { r.onError = fn }
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(r *Reconciler) { r.debounce = d }
}

// Reconciler merges remote changes into a store. It never schedules a
// save: merged values are already durable.
type Reconciler struct {
	store    *store.Store
	source   Source
	dbPath   string
	debounce time.Duration
	onError  func(error)

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New returns a reconciler for the database file at dbPath.
func New(s *store.Store, src Source, dbPath string, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    s,
		source:   src,
		dbPath:   dbPath,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start watches the database file, and its WAL and rollback journal, for
// writes. Bursts of events are collapsed into one Refresh. It returns
// immediately; watching stops when ctx is done or Close is called.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.watcher != nil {
		return errors.New("reconciler already started")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	// SQLite replaces the journal files, so watch the directory rather than
	// the files themselves.
	if err := watcher.Add(filepath.Dir(r.dbPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(r.dbPath), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	r.watcher = watcher
	r.cancel = cancel

	r.wg.Add(1)
	go r.loop(ctx, watcher)
	return nil
}

func (r *Reconciler) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer r.wg.Done()

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !r.relevant(event) {
				continue
			}
			if pending == nil {
				pending = time.After(r.debounce)
			}

		case <-pending:
			pending = nil
			r.Refresh()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.report(fmt.Errorf("watching database: %w", err))

		case <-ctx.Done():
			return
		}
	}
}

func (r *Reconciler) relevant(event fsnotify.Event) bool {
	if event.Op&fsnotify.Write == 0 && event.Op&fsnotify.Create == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	for _, f := range db.Files(r.dbPath) {
		if name == filepath.Base(f) {
			return true
		}
	}
	return false
}

// Refresh reloads the durable store and merges it into the live store,
// property by property, keeping uncommitted local values. Subscribers get
// an EventStale. Load failures are reported and otherwise ignored.
func (r *Reconciler) Refresh() {
	if err := r.store.Refresh(r.source.Load); err != nil {
		r.report(fmt.Errorf("refreshing from durable store: %w", err))
	}
}

// Reconcile removes IDs deleted from the durable store by a bulk operation
// from the live store, with every relationship that referenced them. It
// returns how many entities were removed.
func (r *Reconciler) Reconcile(kind model.EntityKind, ids []string) int {
	return r.store.Reconcile(kind, ids)
}

// Close stops watching and waits for the watch goroutine to exit.
func (r *Reconciler) Close() error {
	r.mu.Lock()
	watcher, cancel := r.watcher, r.cancel
	r.watcher, r.cancel = nil, nil
	r.mu.Unlock()

	if watcher == nil {
		return nil
	}
	cancel()
	r.wg.Wait()
	return watcher.Close()
}

func (r *Reconciler) report(err error) {
	if r.onError != nil {
		r.onError(err)
	}
}
