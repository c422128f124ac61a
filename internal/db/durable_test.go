package db

import (
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/ALT-F4-LLC/portfolio/internal/model"
	"github.com/ALT-F4-LLC/portfolio/internal/query"
	"github.com/ALT-F4-LLC/portfolio/internal/store"
)

func mustDurable(t *testing.T) *Durable {
	t.Helper()
	return NewDurable(mustInit(t))
}

// seeded returns a durable store holding the sample data and the live store
// it was saved from.
func seeded(t *testing.T) (*Durable, *store.Store) {
	t.Helper()
	d := mustDurable(t)

	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	s := store.New(store.WithClock(func() time.Time {
		tick++
		return start.Add(time.Duration(tick) * 7 * time.Minute)
	}))
	s.CreateSampleData(rand.New(rand.NewSource(7)))

	if err := s.Save(d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return d, s
}

func sortedIDs(issues []model.Issue) []string {
	ids := make([]string, len(issues))
	for i, issue := range issues {
		ids[i] = issue.ID
	}
	sort.Strings(ids)
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyAndLoadRoundTrip(t *testing.T) {
	d, s := seeded(t)

	snap, err := d.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Tags) != 5 || len(snap.Issues) != 50 {
		t.Fatalf("snapshot = %d tags / %d issues, want 5 / 50", len(snap.Tags), len(snap.Issues))
	}

	for _, got := range snap.Issues {
		want, err := s.Issue(got.ID)
		if err != nil {
			t.Fatalf("issue %s missing from live store", got.ID)
		}
		if got.Title != want.Title || got.Completed != want.Completed || got.Priority != want.Priority {
			t.Errorf("issue %s = %+v, want %+v", got.ID, got, want)
		}
		if !got.CreatedDate.Equal(want.CreatedDate) || !got.ModifiedDate.Equal(want.ModifiedDate) {
			t.Errorf("issue %s dates = %v/%v, want %v/%v", got.ID,
				got.CreatedDate, got.ModifiedDate, want.CreatedDate, want.ModifiedDate)
		}
		if len(got.TagIDs) != 1 || got.TagIDs[0] != want.TagIDs[0] {
			t.Errorf("issue %s tags = %v, want %v", got.ID, got.TagIDs, want.TagIDs)
		}
	}
}

func TestApplyDeletesAndUpdates(t *testing.T) {
	d, s := seeded(t)

	tag := s.Tags()[0]
	issue := s.Issues()[len(s.Issues())-1]
	s.Delete(tag)
	s.UpdateIssue(issue.ID, func(i *model.Issue) {
		i.Title = "Edited"
		i.Completed = true
	})
	if err := s.Save(d); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := GetTag(d.DB(), tag.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTag after delete err = %v, want ErrNotFound", err)
	}
	got, err := GetIssue(d.DB(), issue.ID)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if got.Title != "Edited" || !got.Completed {
		t.Errorf("issue = %+v, want edited and completed", got)
	}

	stats, err := GetStats(d.DB())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Issues != 50 || stats.Tags != 4 || stats.Relationships != 40 || stats.Untagged != 10 {
		t.Errorf("stats = %+v, want 50 issues, 4 tags, 40 relationships, 10 untagged", stats)
	}
	if stats.Open+stats.Closed != 50 {
		t.Errorf("open+closed = %d, want 50", stats.Open+stats.Closed)
	}
}

func TestApplySkipsMissingTags(t *testing.T) {
	d := mustDurable(t)

	err := d.Apply(model.ChangeSet{UpsertIssues: []model.Issue{{
		ID:           "i1",
		Title:        "orphan link",
		CreatedDate:  time.Now(),
		ModifiedDate: time.Now(),
		TagIDs:       []string{"ghost"},
	}}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, err := GetIssue(d.DB(), "i1")
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if len(got.TagIDs) != 0 {
		t.Errorf("TagIDs = %v, want none", got.TagIDs)
	}
}

func TestApplyEmptyChangeSet(t *testing.T) {
	d := mustDurable(t)
	if err := d.Apply(model.ChangeSet{}); err != nil {
		t.Errorf("Apply(empty) = %v", err)
	}
}

func TestBatchDelete(t *testing.T) {
	d, s := seeded(t)

	tagIDs, err := d.BatchDelete(model.KindTag)
	if err != nil {
		t.Fatalf("BatchDelete(tags): %v", err)
	}
	if len(tagIDs) != 5 {
		t.Errorf("deleted %d tags, want 5", len(tagIDs))
	}

	issueIDs, err := d.BatchDelete(model.KindIssue)
	if err != nil {
		t.Fatalf("BatchDelete(issues): %v", err)
	}
	sort.Strings(issueIDs)
	if !equalIDs(sortedIDs(s.Issues()), issueIDs) {
		t.Error("BatchDelete(issues) returned a different ID set than was stored")
	}

	stats, err := GetStats(d.DB())
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Issues != 0 || stats.Tags != 0 || stats.Relationships != 0 {
		t.Errorf("stats = %+v, want everything zero", stats)
	}

	if _, err := d.BatchDelete("widgets"); err == nil {
		t.Error("BatchDelete(unknown kind) should fail")
	}
}

func TestGetIssueNotFound(t *testing.T) {
	d := mustDurable(t)
	if _, err := GetIssue(d.DB(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLAgreesWithInMemoryQuery(t *testing.T) {
	d, s := seeded(t)
	tags := s.Tags()
	issues := s.Issues()
	// Put a mix of issues in and out of the recent window.
	now := issues[len(issues)-1].ModifiedDate.Add(time.Minute)

	tests := []struct {
		name   string
		modify func(*model.FilterCriteria)
	}{
		{"default", func(c *model.FilterCriteria) {}},
		{"recent", func(c *model.FilterCriteria) {
			c.SelectedFilter = model.RecentFilter(3*time.Hour, now)
		}},
		{"tag filter", func(c *model.FilterCriteria) {
			c.SelectedFilter = model.TagFilter(tags[1])
		}},
		{"text", func(c *model.FilterCriteria) { c.FreeText = "issue 3-" }},
		{"tokens", func(c *model.FilterCriteria) { c.TagTokens = []string{tags[0].ID, tags[4].ID} }},
		{"high closed", func(c *model.FilterCriteria) {
			c.FiltersEnabled = true
			c.PriorityFilter = model.PriorityHigh
			c.StatusFilter = model.StatusClosed
		}},
		{"open low", func(c *model.FilterCriteria) {
			c.FiltersEnabled = true
			c.PriorityFilter = model.PriorityLow
			c.StatusFilter = model.StatusOpen
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := model.DefaultCriteria()
			tt.modify(&c)

			want := query.Run(s, c)
			got, err := ListIssues(d.DB(), query.Build(c), c.SortKey, c.SortDescending)
			if err != nil {
				t.Fatalf("ListIssues: %v", err)
			}
			if !equalIDs(sortedIDs(got), sortedIDs(want)) {
				t.Errorf("SQL returned %d issues, in-memory %d", len(got), len(want))
			}

			n, err := CountIssues(d.DB(), query.Build(c))
			if err != nil {
				t.Fatalf("CountIssues: %v", err)
			}
			if n != len(want) {
				t.Errorf("CountIssues = %d, want %d", n, len(want))
			}
		})
	}
}

func TestListIssuesSortOrder(t *testing.T) {
	d, _ := seeded(t)

	for _, desc := range []bool{true, false} {
		got, err := ListIssues(d.DB(), query.All(), model.SortModified, desc)
		if err != nil {
			t.Fatalf("ListIssues: %v", err)
		}
		for i := 1; i < len(got); i++ {
			prev, cur := got[i-1].ModifiedDate, got[i].ModifiedDate
			if desc && prev.Before(cur) || !desc && prev.After(cur) {
				t.Fatalf("desc=%v: out of order at %d: %v then %v", desc, i, prev, cur)
			}
		}
	}
}

func TestListTagsCounts(t *testing.T) {
	d, s := seeded(t)

	tags, err := ListTags(d.DB())
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 5 {
		t.Fatalf("len = %d, want 5", len(tags))
	}
	for i, tc := range tags {
		if tc.Name != s.Tags()[i].Name {
			t.Errorf("tags[%d] = %q, want %q", i, tc.Name, s.Tags()[i].Name)
		}
		if tc.IssueCount != 10 {
			t.Errorf("tag %q issue count = %d, want 10", tc.Name, tc.IssueCount)
		}
		if want := len(s.ActiveIssues(tc.ID)); tc.OpenCount != want {
			t.Errorf("tag %q open count = %d, want %d", tc.Name, tc.OpenCount, want)
		}
	}
}

func TestTimeLayoutOrdersLexically(t *testing.T) {
	a := time.Date(2024, 1, 1, 9, 0, 0, 5, time.UTC)
	b := a.Add(time.Nanosecond * 100)
	c := time.Date(2024, 1, 1, 10, 0, 0, 0, time.FixedZone("X", 2*3600))

	if !(formatTime(a) < formatTime(b)) {
		t.Errorf("%s should sort before %s", formatTime(a), formatTime(b))
	}
	// c is 08:00 UTC.
	if !(formatTime(c) < formatTime(a)) {
		t.Errorf("%s should sort before %s", formatTime(c), formatTime(a))
	}

	parsed, err := parseTime(formatTime(b))
	if err != nil || !parsed.Equal(b) {
		t.Errorf("parseTime round trip = %v, %v; want %v", parsed, err, b)
	}
	if _, err := parseTime("2024-01-01T09:00:00Z"); err != nil {
		t.Errorf("parseTime(RFC3339) = %v", err)
	}
}
