package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ALT-F4-LLC/portfolio/internal/model"
)

// Kind identifies the variant of a Predicate.
type Kind int

const (
	// KindAll matches every issue.
	KindAll Kind = iota
	// KindText matches a case-insensitive substring of the title or content.
	KindText
	// KindAnyTag matches issues related to at least one tag in TagIDs.
	KindAnyTag
	// KindPriority matches issues with exactly Priority.
	KindPriority
	// KindCompleted matches issues whose completion state equals Completed.
	KindCompleted
	// KindModifiedAfter matches issues modified strictly after Time.
	KindModifiedAfter
	// KindAnd matches issues satisfying every predicate in Children.
	KindAnd
)

// Predicate is a composable condition over issues. It is evaluated directly
// against in-memory issues with Match, or translated to SQL with SQL.
type Predicate struct {
	Kind      Kind
	Text      string
	TagIDs    []string
	Priority  model.Priority
	Completed bool
	Time      time.Time
	Children  []Predicate
}

// All returns a predicate matching every issue.
func All() Predicate { return Predicate{Kind: KindAll} }

// Text returns a case-insensitive title-or-content substring predicate.
func Text(s string) Predicate { return Predicate{Kind: KindText, Text: s} }

// AnyTag returns a tag membership predicate.
func AnyTag(tagIDs ...string) Predicate { return Predicate{Kind: KindAnyTag, TagIDs: tagIDs} }

// PriorityIs returns a priority equality predicate.
func PriorityIs(p model.Priority) Predicate { return Predicate{Kind: KindPriority, Priority: p} }

// CompletedIs returns a completion state equality predicate.
func CompletedIs(done bool) Predicate { return Predicate{Kind: KindCompleted, Completed: done} }

// ModifiedAfter returns a modification date lower bound (exclusive).
func ModifiedAfter(t time.Time) Predicate { return Predicate{Kind: KindModifiedAfter, Time: t} }

// And returns the conjunction of preds. An empty conjunction matches
// everything.
func And(preds ...Predicate) Predicate {
	if len(preds) == 0 {
		return All()
	}
	return Predicate{Kind: KindAnd, Children: preds}
}

// Match reports whether issue satisfies the predicate.
func (p Predicate) Match(issue model.Issue) bool {
	switch p.Kind {
	case KindAll:
		return true
	case KindText:
		needle := strings.ToLower(p.Text)
		return strings.Contains(strings.ToLower(issue.Title), needle) ||
			strings.Contains(strings.ToLower(issue.Content), needle)
	case KindAnyTag:
		want := toStringSet(p.TagIDs)
		for _, id := range issue.TagIDs {
			if _, ok := want[id]; ok {
				return true
			}
		}
		return false
	case KindPriority:
		return issue.Priority == p.Priority
	case KindCompleted:
		return issue.Completed == p.Completed
	case KindModifiedAfter:
		return issue.ModifiedDate.After(p.Time)
	case KindAnd:
		for _, c := range p.Children {
			if !c.Match(issue) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// SQL translates the predicate to a WHERE clause over the issues table
// aliased as "i", with positional arguments. timeLayout must match the
// layout dates are stored with so that text comparison orders correctly.
//
// SQLite's lower() only folds ASCII, so KindText differs from Match for
// non-ASCII titles.
func (p Predicate) SQL(timeLayout string) (string, []any) {
	switch p.Kind {
	case KindAll:
		return "1 = 1", nil
	case KindText:
		return "(instr(lower(i.title), lower(?)) > 0 OR instr(lower(i.content), lower(?)) > 0)",
			[]any{p.Text, p.Text}
	case KindAnyTag:
		if len(p.TagIDs) == 0 {
			return "1 = 0", nil
		}
		args := make([]any, len(p.TagIDs))
		for i, id := range p.TagIDs {
			args[i] = id
		}
		return fmt.Sprintf("i.id IN (SELECT it.issue_id FROM issue_tags it WHERE it.tag_id IN (%s))",
			placeholders(len(p.TagIDs))), args
	case KindPriority:
		return "i.priority = ?", []any{int(p.Priority)}
	case KindCompleted:
		return "i.completed = ?", []any{p.Completed}
	case KindModifiedAfter:
		return "i.modified_date > ?", []any{p.Time.UTC().Format(timeLayout)}
	case KindAnd:
		var (
			clauses []string
			args    []any
		)
		for _, c := range p.Children {
			clause, cargs := c.SQL(timeLayout)
			clauses = append(clauses, clause)
			args = append(args, cargs...)
		}
		return "(" + strings.Join(clauses, " AND ") + ")", args
	default:
		return "1 = 0", nil
	}
}

// Build composes the predicate for a set of filter criteria. Clauses that
// are not active are left out entirely rather than matching nothing.
func Build(c model.FilterCriteria) Predicate {
	var preds []Predicate

	if tag := c.SelectedFilter.Tag; tag != nil {
		preds = append(preds, AnyTag(tag.ID))
	} else {
		preds = append(preds, ModifiedAfter(c.SelectedFilter.MinModificationDate))
	}

	if text := strings.TrimSpace(c.FreeText); text != "" {
		preds = append(preds, Text(text))
	}

	if len(c.TagTokens) > 0 {
		preds = append(preds, AnyTag(c.TagTokens...))
	}

	if c.FiltersEnabled {
		if c.PriorityFilter != model.PriorityAny {
			preds = append(preds, PriorityIs(c.PriorityFilter))
		}
		if c.StatusFilter != model.StatusAll && c.StatusFilter != "" {
			preds = append(preds, CompletedIs(c.StatusFilter == model.StatusClosed))
		}
	}

	return And(preds...)
}

// Source supplies issues, with TagIDs populated, in storage order.
type Source interface {
	Issues() []model.Issue
}

// Run returns the issues from src matching the criteria, ordered by the
// selected sort key and direction. Issues sharing the exact sort key value
// keep their storage order; that order is not a contract.
func Run(src Source, c model.FilterCriteria) []model.Issue {
	pred := Build(c)

	var result []model.Issue
	for _, issue := range src.Issues() {
		if pred.Match(issue) {
			result = append(result, issue)
		}
	}

	key := sortValue(c.SortKey)
	sort.SliceStable(result, func(i, j int) bool {
		a, b := key(result[i]), key(result[j])
		if c.SortDescending {
			return a.After(b)
		}
		return a.Before(b)
	})

	return result
}

func sortValue(k model.SortKey) func(model.Issue) time.Time {
	if k == model.SortModified {
		return func(i model.Issue) time.Time { return i.ModifiedDate }
	}
	return func(i model.Issue) time.Time { return i.CreatedDate }
}

// toStringSet converts a slice of strings to a set for O(1) membership checks.
func toStringSet(ss []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		set[s] = struct{}{}
	}
	return set
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
