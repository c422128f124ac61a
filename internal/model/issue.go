package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultIssueTitle is the placeholder title given to freshly created issues.
const DefaultIssueTitle = "New issue"

// shortIDLen is the number of ID characters shown in human output.
const shortIDLen = 8

// Priority represents the urgency of an issue.
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityMedium Priority = 1
	PriorityHigh   Priority = 2
)

// PriorityAny is the sentinel used by FilterCriteria to disable the
// priority clause.
const PriorityAny Priority = -1

var validPriorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
}

// ValidatePriority returns an error if p is not a recognized priority.
func ValidatePriority(p Priority) error {
	for _, v := range validPriorities {
		if p == v {
			return nil
		}
	}
	return fmt.Errorf("invalid priority %d: must be one of 0 (low), 1 (medium), 2 (high)", int(p))
}

// ParsePriority accepts either a priority name ("high") or its number ("2").
func ParsePriority(input string) (Priority, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	for _, p := range validPriorities {
		if s == p.String() {
			return p, nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid priority %q: must be low, medium, high or 0-2", input)
	}
	p := Priority(n)
	if err := ValidatePriority(p); err != nil {
		return 0, err
	}
	return p, nil
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityAny:
		return "any"
	default:
		return strconv.Itoa(int(p))
	}
}

// Color returns a color name string suitable for terminal rendering.
func (p Priority) Color() string {
	switch p {
	case PriorityHigh:
		return "red"
	case PriorityMedium:
		return "blue"
	case PriorityLow:
		return "gray"
	default:
		return "white"
	}
}

// Icon returns a short marker for the priority level. Only high priority
// issues are flagged.
func (p Priority) Icon() string {
	if p == PriorityHigh {
		return "!"
	}
	return " "
}

// Issue represents a tracked issue. Title and Content are plain strings so
// an unset value always reads as "".
type Issue struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	CreatedDate  time.Time `json:"created_date"`
	ModifiedDate time.Time `json:"modified_date"`
	Completed    bool      `json:"completed"`
	Priority     Priority  `json:"priority"`
	TagIDs       []string  `json:"tag_ids"`
}

// EntityID implements Entity.
func (i Issue) EntityID() string { return i.ID }

// EntityKind implements Entity.
func (i Issue) EntityKind() EntityKind { return KindIssue }

// ShortID returns the abbreviated ID used in human-readable output.
func (i Issue) ShortID() string {
	return shortID(i.ID)
}

// HasTag reports whether the issue is related to the tag with the given ID.
func (i Issue) HasTag(tagID string) bool {
	for _, id := range i.TagIDs {
		if id == tagID {
			return true
		}
	}
	return false
}

// StatusLabel returns "Closed" for completed issues and "Open" otherwise.
func (i Issue) StatusLabel() string {
	if i.Completed {
		return "Closed"
	}
	return "Open"
}

// TagsList renders tag names for display, e.g. "Home, Work". Names are
// expected in natural tag order.
func TagsList(names []string) string {
	if len(names) == 0 {
		return "No tags"
	}
	return strings.Join(names, ", ")
}

// CompareIssues orders issues by case-insensitive title, breaking ties with
// the creation date (oldest first).
func CompareIssues(a, b Issue) int {
	left := strings.ToLower(a.Title)
	right := strings.ToLower(b.Title)
	if left != right {
		return strings.Compare(left, right)
	}
	return a.CreatedDate.Compare(b.CreatedDate)
}

// SortIssues sorts issues in place by their natural order.
func SortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return CompareIssues(issues[i], issues[j]) < 0
	})
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}
