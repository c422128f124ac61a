package query

import (
	"strings"

	"github.com/ALT-F4-LLC/portfolio/internal/model"
)

// TokenMarker introduces a tag search in the free-text field.
const TokenMarker = "#"

// SuggestedTags returns the tags a user may add as search tokens while
// typing text that begins with TokenMarker. The remainder after the marker
// is matched case-insensitively against tag names; an empty remainder
// suggests every tag. Text without the marker suggests nothing.
func SuggestedTags(tags []model.Tag, text string) []model.Tag {
	if !strings.HasPrefix(text, TokenMarker) {
		return []model.Tag{}
	}

	needle := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(text, TokenMarker)))

	result := make([]model.Tag, 0, len(tags))
	for _, t := range tags {
		if needle == "" || strings.Contains(strings.ToLower(t.Name), needle) {
			result = append(result, t)
		}
	}
	model.SortTags(result)
	return result
}

// MissingTags returns the tags not yet related to issue, in natural order.
// It is the symmetric difference of all tags and the issue's tags, so a tag
// id on the issue that no longer exists is ignored.
func MissingTags(tags []model.Tag, issue model.Issue) []model.Tag {
	own := toStringSet(issue.TagIDs)

	result := make([]model.Tag, 0, len(tags))
	for _, t := range tags {
		if _, ok := own[t.ID]; !ok {
			result = append(result, t)
		}
	}
	model.SortTags(result)
	return result
}
