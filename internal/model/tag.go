package model

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// DefaultTagName is the placeholder name given to freshly created tags.
const DefaultTagName = "New tag"

// Tag represents a label that can be attached to any number of issues.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewTagID returns a fresh identifier for a tag. Identifiers are random
// UUIDs and are never reused.
func NewTagID() string {
	return uuid.NewString()
}

// EntityID implements Entity.
func (t Tag) EntityID() string { return t.ID }

// EntityKind implements Entity.
func (t Tag) EntityKind() EntityKind { return KindTag }

// ShortID returns the abbreviated ID used in human-readable output.
func (t Tag) ShortID() string {
	return shortID(t.ID)
}

// CompareTags orders tags by case-insensitive name, breaking ties with the
// identifier string.
func CompareTags(a, b Tag) int {
	left := strings.ToLower(a.Name)
	right := strings.ToLower(b.Name)
	if left != right {
		return strings.Compare(left, right)
	}
	return strings.Compare(a.ID, b.ID)
}

// SortTags sorts tags in place by their natural order.
func SortTags(tags []Tag) {
	sort.Slice(tags, func(i, j int) bool {
		return CompareTags(tags[i], tags[j]) < 0
	})
}

// TagNames returns the names of tags in the order given.
func TagNames(tags []Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}
