package model

import (
	"testing"
	"time"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input   string
		want    Priority
		wantErr bool
	}{
		{"low", PriorityLow, false},
		{"Medium", PriorityMedium, false},
		{" high ", PriorityHigh, false},
		{"0", PriorityLow, false},
		{"2", PriorityHigh, false},
		{"3", 0, true},
		{"-1", 0, true},
		{"urgent", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParsePriority(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePriority(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePriority(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPriorityColorAndIcon(t *testing.T) {
	if c := PriorityHigh.Color(); c != "red" {
		t.Errorf("PriorityHigh.Color() = %q, want %q", c, "red")
	}
	if i := PriorityHigh.Icon(); i != "!" {
		t.Errorf("PriorityHigh.Icon() = %q, want %q", i, "!")
	}
	if i := PriorityLow.Icon(); i != " " {
		t.Errorf("PriorityLow.Icon() = %q, want blank", i)
	}
}

func TestZeroIssueReadsEmptyStrings(t *testing.T) {
	var issue Issue
	if issue.Title != "" || issue.Content != "" {
		t.Errorf("zero Issue title/content = %q/%q, want empty", issue.Title, issue.Content)
	}

	issue.Title = "Updated issue"
	if issue.Title != "Updated issue" {
		t.Errorf("Title = %q, want %q", issue.Title, "Updated issue")
	}
}

func TestIssueSortingIsStable(t *testing.T) {
	now := time.Now()
	issue1 := Issue{ID: "1", Title: "B Issue", CreatedDate: now}
	issue2 := Issue{ID: "2", Title: "B Issue", CreatedDate: now.Add(time.Second)}
	issue3 := Issue{ID: "3", Title: "A Issue", CreatedDate: now.Add(100 * time.Second)}

	issues := []Issue{issue1, issue2, issue3}
	SortIssues(issues)

	want := []string{"3", "1", "2"}
	for i, id := range want {
		if issues[i].ID != id {
			t.Fatalf("issues[%d].ID = %s, want %s (title then creation date)", i, issues[i].ID, id)
		}
	}
}

func TestIssueSortingIgnoresCase(t *testing.T) {
	now := time.Now()
	issues := []Issue{
		{ID: "b", Title: "banana", CreatedDate: now},
		{ID: "a", Title: "Apple", CreatedDate: now},
	}
	SortIssues(issues)
	if issues[0].ID != "a" {
		t.Errorf("first issue = %s, want a", issues[0].ID)
	}
}

func TestTagSortingIsStable(t *testing.T) {
	tag1 := Tag{ID: "FFFFFFFF-06F7-4AC1-A1C2-BCE8274F0E9A", Name: "B tag"}
	tag2 := Tag{ID: "00000000-0000-4000-8000-000000000000", Name: "B tag"}
	tag3 := Tag{ID: "99999999-0000-4000-8000-000000000000", Name: "A tag"}

	tags := []Tag{tag1, tag2, tag3}
	SortTags(tags)

	want := []string{tag3.ID, tag2.ID, tag1.ID}
	for i, id := range want {
		if tags[i].ID != id {
			t.Fatalf("tags[%d].ID = %s, want %s (name then id)", i, tags[i].ID, id)
		}
	}
}

func TestNewTagIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewTagID()
		if seen[id] {
			t.Fatalf("NewTagID returned duplicate %s", id)
		}
		seen[id] = true
	}
}

func TestIssueHasTagAndStatusLabel(t *testing.T) {
	issue := Issue{TagIDs: []string{"t1"}}
	if !issue.HasTag("t1") {
		t.Error("HasTag(t1) = false, want true")
	}
	if issue.HasTag("t2") {
		t.Error("HasTag(t2) = true, want false")
	}
	if got := issue.StatusLabel(); got != "Open" {
		t.Errorf("StatusLabel() = %q, want Open", got)
	}
	issue.Completed = true
	if got := issue.StatusLabel(); got != "Closed" {
		t.Errorf("StatusLabel() = %q, want Closed", got)
	}
}

func TestTagsList(t *testing.T) {
	if got := TagsList(nil); got != "No tags" {
		t.Errorf("TagsList(nil) = %q, want %q", got, "No tags")
	}
	if got := TagsList([]string{"My Tag"}); got != "My Tag" {
		t.Errorf("TagsList = %q, want %q", got, "My Tag")
	}
	if got := TagsList([]string{"Home", "Work"}); got != "Home, Work" {
		t.Errorf("TagsList = %q, want %q", got, "Home, Work")
	}
}

func TestShortID(t *testing.T) {
	issue := Issue{ID: "0123456789abcdef"}
	if got := issue.ShortID(); got != "01234567" {
		t.Errorf("ShortID() = %q, want %q", got, "01234567")
	}
	tag := Tag{ID: "abc"}
	if got := tag.ShortID(); got != "abc" {
		t.Errorf("ShortID() = %q, want %q", got, "abc")
	}
}

func TestFilters(t *testing.T) {
	all := AllFilter()
	if all.Tag != nil {
		t.Error("AllFilter().Tag should be nil")
	}
	if !all.MinModificationDate.Equal(time.Unix(0, 0)) {
		t.Errorf("AllFilter min date = %v, want epoch", all.MinModificationDate)
	}

	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	recent := RecentFilter(48*time.Hour, now)
	if want := now.Add(-48 * time.Hour); !recent.MinModificationDate.Equal(want) {
		t.Errorf("RecentFilter min date = %v, want %v", recent.MinModificationDate, want)
	}
	if def := RecentFilter(0, now); !def.MinModificationDate.Equal(now.Add(-DefaultRecentWindow)) {
		t.Errorf("RecentFilter(0) should fall back to the default window")
	}

	tag := Tag{ID: "t1", Name: "Work"}
	tf := TagFilter(tag)
	if tf.Tag == nil || tf.Tag.ID != "t1" {
		t.Fatalf("TagFilter tag = %+v, want t1", tf.Tag)
	}
	if tf.Name != "Work" || tf.Icon != "tag" {
		t.Errorf("TagFilter name/icon = %q/%q", tf.Name, tf.Icon)
	}
}

func TestParseStatusAndSortKey(t *testing.T) {
	if s, err := ParseStatus("Closed"); err != nil || s != StatusClosed {
		t.Errorf("ParseStatus(Closed) = %q, %v", s, err)
	}
	if _, err := ParseStatus("done"); err == nil {
		t.Error("ParseStatus(done) expected error")
	}
	if k, err := ParseSortKey("modified"); err != nil || k != SortModified {
		t.Errorf("ParseSortKey(modified) = %q, %v", k, err)
	}
	if _, err := ParseSortKey("title"); err == nil {
		t.Error("ParseSortKey(title) expected error")
	}
}

func TestDefaultCriteria(t *testing.T) {
	c := DefaultCriteria()
	if c.SelectedFilter.ID != "all" {
		t.Errorf("SelectedFilter = %q, want all", c.SelectedFilter.ID)
	}
	if c.PriorityFilter != PriorityAny {
		t.Errorf("PriorityFilter = %d, want PriorityAny", c.PriorityFilter)
	}
	if c.StatusFilter != StatusAll || c.SortKey != SortCreated || !c.SortDescending {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.FiltersEnabled {
		t.Error("FiltersEnabled should default to false")
	}
}

func TestChangeSetEmpty(t *testing.T) {
	if !(ChangeSet{}).Empty() {
		t.Error("zero ChangeSet should be empty")
	}
	if (ChangeSet{DeleteTags: []string{"x"}}).Empty() {
		t.Error("ChangeSet with a delete should not be empty")
	}
}
