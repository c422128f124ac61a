package remotesync

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ALT-F4-LLC/portfolio/internal/db"
	"github.com/ALT-F4-LLC/portfolio/internal/model"
	"github.com/ALT-F4-LLC/portfolio/internal/store"
)

type staticSource struct {
	snap *model.Snapshot
	err  error
}

func (s *staticSource) Load() (*model.Snapshot, error) {
	return s.snap, s.err
}

func TestRefreshMergesAndSignalsStale(t *testing.T) {
	s := store.New()
	tag := s.NewTag()
	issue, _ := s.NewIssue(tag.ID)
	if err := s.Save(&discard{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	remote := issue
	remote.Title = "Changed elsewhere"
	src := &staticSource{snap: &model.Snapshot{Issues: []model.Issue{remote}, Tags: []model.Tag{tag}}}

	r := New(s, src, "unused.db")
	events, cancel := s.Subscribe()
	defer cancel()

	r.Refresh()

	select {
	case e := <-events:
		if e != store.EventStale {
			t.Errorf("event = %v, want stale", e)
		}
	default:
		t.Fatal("Refresh did not publish an event")
	}

	got, _ := s.Issue(issue.ID)
	if got.Title != "Changed elsewhere" {
		t.Errorf("Title = %q, want remote value", got.Title)
	}
	if s.HasChanges() {
		t.Error("refresh must not create pending changes")
	}
}

func TestRefreshReportsLoadErrors(t *testing.T) {
	s := store.New()
	s.NewTag()

	var reported error
	r := New(s, &staticSource{err: errors.New("database is locked")}, "unused.db",
		WithErrorHandler(func(err error) { reported = err }))

	r.Refresh()

	if reported == nil {
		t.Fatal("load error was not reported")
	}
	if got := s.CountTags(); got != 1 {
		t.Errorf("CountTags = %d, want 1 (store untouched)", got)
	}
}

func TestReconcileBulkDelete(t *testing.T) {
	s := store.New()
	tag := s.NewTag()
	s.NewIssue(tag.ID)
	s.NewIssue(tag.ID)
	s.Save(&discard{})

	var ids []string
	for _, i := range s.Issues() {
		ids = append(ids, i.ID)
	}

	r := New(s, &staticSource{}, "unused.db")
	if got := r.Reconcile(model.KindIssue, ids); got != 2 {
		t.Errorf("Reconcile = %d, want 2", got)
	}
	if got := len(s.TagIssues(tag.ID)); got != 0 {
		t.Errorf("tag still has %d issues", got)
	}
	if got := s.Dangling(); got != 0 {
		t.Errorf("Dangling = %d, want 0", got)
	}
}

func TestWatchPicksUpExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.db")

	local, err := db.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { local.Close() })
	if err := db.Initialize(local); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	s := store.New()
	r := New(s, db.NewDurable(local), path, WithDebounce(10*time.Millisecond))
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { r.Close() })

	events, cancel := s.Subscribe()
	defer cancel()

	other, err := db.Open(path)
	if err != nil {
		t.Fatalf("Open(other): %v", err)
	}
	t.Cleanup(func() { other.Close() })
	if err := db.NewDurable(other).Apply(model.ChangeSet{
		UpsertTags: []model.Tag{{ID: "remote", Name: "From another process"}},
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for s.CountTags() == 0 {
		select {
		case <-events:
		case <-deadline:
			t.Fatal("external write was not merged")
		}
	}

	if tg, err := s.Tag("remote"); err != nil || tg.Name != "From another process" {
		t.Errorf("Tag = %+v, %v", tg, err)
	}
}

func TestStartTwiceFails(t *testing.T) {
	dir := t.TempDir()
	r := New(store.New(), &staticSource{}, filepath.Join(dir, "portfolio.db"))

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Close()

	if err := r.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
}

func TestCloseWithoutStart(t *testing.T) {
	r := New(store.New(), &staticSource{}, "unused.db")
	if err := r.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}

func TestRelevantEvents(t *testing.T) {
	r := New(store.New(), &staticSource{}, "/data/portfolio.db")

	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "/data/portfolio.db", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/data/portfolio.db-wal", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/data/portfolio.db-journal", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/data/portfolio.db-shm", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/data/settings.yaml", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/data/portfolio.db", Op: fsnotify.Remove}, false},
	}

	for _, tt := range tests {
		if got := r.relevant(tt.event); got != tt.want {
			t.Errorf("relevant(%s) = %v, want %v", tt.event, got, tt.want)
		}
	}
}

// discard accepts every change set.
type discard struct{}

func (discard) Apply(model.ChangeSet) error { return nil }
