package model

import (
	"fmt"
	"strings"
	"time"
)

// DefaultRecentWindow is how far back the "recent" smart filter looks when
// no window is configured.
const DefaultRecentWindow = 7 * 24 * time.Hour

// epoch is the lower modification bound of the "all" filter.
var epoch = time.Unix(0, 0).UTC()

// Filter is a named predicate scope selectable by the user: one of the smart
// filters (all, recent) or a filter bound to a single tag.
type Filter struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Icon                string    `json:"icon"`
	Tag                 *Tag      `json:"tag,omitempty"`
	MinModificationDate time.Time `json:"min_modification_date"`
}

// AllFilter returns the smart filter matching every issue.
func AllFilter() Filter {
	return Filter{
		ID:                  "all",
		Name:                "All Issues",
		Icon:                "tray",
		MinModificationDate: epoch,
	}
}

// RecentFilter returns the smart filter matching issues modified within
// window of now.
func RecentFilter(window time.Duration, now time.Time) Filter {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	return Filter{
		ID:                  "recent",
		Name:                "Recent Issues",
		Icon:                "clock",
		MinModificationDate: now.Add(-window),
	}
}

// TagFilter returns a filter bound to tag membership.
func TagFilter(tag Tag) Filter {
	t := tag
	return Filter{
		ID:                  t.ID,
		Name:                t.Name,
		Icon:                "tag",
		Tag:                 &t,
		MinModificationDate: epoch,
	}
}

// Status restricts issues by completion state.
type Status string

const (
	StatusAll    Status = "all"
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// ParseStatus returns the Status named by s.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusAll, StatusOpen, StatusClosed:
		return st, nil
	}
	return "", fmt.Errorf("invalid status %q: must be one of all, open, closed", s)
}

// SortKey selects the date used for ordering query results.
type SortKey string

const (
	SortCreated  SortKey = "created"
	SortModified SortKey = "modified"
)

// ParseSortKey returns the SortKey named by s.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortCreated, SortModified:
		return k, nil
	}
	return "", fmt.Errorf("invalid sort key %q: must be created or modified", s)
}

// FilterCriteria is the full set of active filter and sort options layered
// on top of the selected Filter. It lives for a session only.
type FilterCriteria struct {
	SelectedFilter Filter   `json:"selected_filter"`
	FreeText       string   `json:"free_text"`
	TagTokens      []string `json:"tag_tokens"`
	FiltersEnabled bool     `json:"filters_enabled"`
	PriorityFilter Priority `json:"priority_filter"`
	StatusFilter   Status   `json:"status_filter"`
	SortKey        SortKey  `json:"sort_key"`
	SortDescending bool     `json:"sort_descending"`
}

// DefaultCriteria returns the criteria a session starts with: every issue,
// no extended filters, newest created first.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{
		SelectedFilter: AllFilter(),
		PriorityFilter: PriorityAny,
		StatusFilter:   StatusAll,
		SortKey:        SortCreated,
		SortDescending: true,
	}
}
