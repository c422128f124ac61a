// Package store holds the canonical in-memory collections of issues and
// tags, their many-to-many relationship, and the bookkeeping needed to write
// changes back to a durable store.
package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ALT-F4-LLC/portfolio/internal/model"
	"github.com/ALT-F4-LLC/portfolio/internal/query"
)

// ErrNotFound is returned when a referenced issue or tag does not exist.
var ErrNotFound = errors.New("not found")

// ErrAmbiguous is returned when a reference matches more than one entity.
var ErrAmbiguous = errors.New("ambiguous reference")

// minPrefixLen is the shortest ID prefix accepted by ResolveIssue and
// ResolveTag.
const minPrefixLen = 4

// Store is the single owner of issues, tags and their relationships. Every
// method takes the store lock, so callers on other goroutines (the save
// timer, the remote change watcher) are serialized with the main caller.
type Store struct {
	mu sync.RWMutex

	issues     map[string]*model.Issue
	issueOrder []string
	tags       map[string]*model.Tag
	tagOrder   []string

	// links maps issue ID to the set of related tag IDs; backlinks is the
	// inverse.
	links     map[string]map[string]struct{}
	backlinks map[string]map[string]struct{}

	dirtyIssues   map[string]field
	dirtyTags     map[string]field
	deletedIssues map[string]struct{}
	deletedTags   map[string]struct{}

	subs    map[int]chan Event
	nextSub int

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created and modified dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		subs: make(map[int]chan Event),
		now:  time.Now,
	}
	s.reset()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) reset() {
	s.issues = make(map[string]*model.Issue)
	s.issueOrder = nil
	s.tags = make(map[string]*model.Tag)
	s.tagOrder = nil
	s.links = make(map[string]map[string]struct{})
	s.backlinks = make(map[string]map[string]struct{})
	s.dirtyIssues = make(map[string]field)
	s.dirtyTags = make(map[string]field)
	s.deletedIssues = make(map[string]struct{})
	s.deletedTags = make(map[string]struct{})
}

// Load replaces the contents of the store with a committed snapshot.
// Pending changes are discarded.
func (s *Store) Load(snap *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	for _, t := range snap.Tags {
		s.insertTag(t)
	}
	for _, i := range snap.Issues {
		s.insertIssue(i)
		for _, tagID := range i.TagIDs {
			if _, ok := s.tags[tagID]; ok {
				s.link(i.ID, tagID)
			}
		}
	}
	s.publish(EventStale)
}

// Issues returns a copy of every issue, in storage order, with TagIDs
// populated.
func (s *Store) Issues() []model.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Issue, 0, len(s.issueOrder))
	for _, id := range s.issueOrder {
		result = append(result, s.hydrate(id))
	}
	return result
}

// Tags returns a copy of every tag in natural order.
func (s *Store) Tags() []model.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedTags()
}

func (s *Store) sortedTags() []model.Tag {
	result := make([]model.Tag, 0, len(s.tagOrder))
	for _, id := range s.tagOrder {
		result = append(result, *s.tags[id])
	}
	model.SortTags(result)
	return result
}

// Issue returns the issue with the given ID.
func (s *Store) Issue(id string) (model.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.issues[id]; !ok {
		return model.Issue{}, ErrNotFound
	}
	return s.hydrate(id), nil
}

// Tag returns the tag with the given ID.
func (s *Store) Tag(id string) (model.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tags[id]
	if !ok {
		return model.Tag{}, ErrNotFound
	}
	return *t, nil
}

// IssueTags returns the tags related to an issue in natural order.
func (s *Store) IssueTags(issueID string) []model.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.issueTags(issueID)
}

func (s *Store) issueTags(issueID string) []model.Tag {
	result := make([]model.Tag, 0, len(s.links[issueID]))
	for tagID := range s.links[issueID] {
		result = append(result, *s.tags[tagID])
	}
	model.SortTags(result)
	return result
}

// TagIssues returns every issue related to a tag, in natural order.
func (s *Store) TagIssues(tagID string) []model.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tagIssues(tagID, false)
}

// ActiveIssues returns the open issues related to a tag, in natural order.
// The result is computed on every call.
func (s *Store) ActiveIssues(tagID string) []model.Issue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tagIssues(tagID, true)
}

func (s *Store) tagIssues(tagID string, openOnly bool) []model.Issue {
	var result []model.Issue
	for issueID := range s.backlinks[tagID] {
		if openOnly && s.issues[issueID].Completed {
			continue
		}
		result = append(result, s.hydrate(issueID))
	}
	model.SortIssues(result)
	return result
}

// Count returns the number of issues matching pred.
func (s *Store) Count(pred query.Predicate) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, id := range s.issueOrder {
		if pred.Match(s.hydrate(id)) {
			n++
		}
	}
	return n
}

// CountIssues returns the total number of issues.
func (s *Store) CountIssues() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.issues)
}

// CountClosedIssues returns the number of completed issues.
func (s *Store) CountClosedIssues() int {
	return s.Count(query.CompletedIs(true))
}

// CountTags returns the total number of tags.
func (s *Store) CountTags() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tags)
}

// ResolveIssue finds an issue by full ID or unique ID prefix.
func (s *Store) ResolveIssue(ref string) (model.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := resolve(ref, s.issueOrder, nil)
	if err != nil {
		return model.Issue{}, err
	}
	return s.hydrate(id), nil
}

// ResolveTag finds a tag by full ID, unique ID prefix, or case-insensitive
// name.
func (s *Store) ResolveTag(ref string) (model.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, err := resolve(ref, s.tagOrder, func(id string) bool {
		return strings.EqualFold(s.tags[id].Name, strings.TrimSpace(ref))
	})
	if err != nil {
		return model.Tag{}, err
	}
	return *s.tags[id], nil
}

func resolve(ref string, ids []string, byName func(string) bool) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrNotFound
	}

	var matches []string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
	}
	if byName != nil {
		for _, id := range ids {
			if byName(id) {
				matches = append(matches, id)
			}
		}
		if len(matches) == 1 {
			return matches[0], nil
		}
		if len(matches) > 1 {
			return "", ErrAmbiguous
		}
	}
	if len(ref) < minPrefixLen {
		return "", ErrNotFound
	}
	for _, id := range ids {
		if strings.HasPrefix(id, strings.ToLower(ref)) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return "", ErrAmbiguous
	}
}

// hydrate returns a copy of the issue with TagIDs in natural tag order.
// Callers must hold the lock.
func (s *Store) hydrate(id string) model.Issue {
	issue := *s.issues[id]
	tags := s.issueTags(id)
	issue.TagIDs = make([]string, len(tags))
	for i, t := range tags {
		issue.TagIDs[i] = t.ID
	}
	return issue
}

func (s *Store) insertIssue(i model.Issue) {
	stored := i
	stored.TagIDs = nil
	s.issues[i.ID] = &stored
	s.issueOrder = append(s.issueOrder, i.ID)
}

func (s *Store) insertTag(t model.Tag) {
	stored := t
	s.tags[t.ID] = &stored
	s.tagOrder = append(s.tagOrder, t.ID)
}

func (s *Store) removeIssue(id string) {
	for tagID := range s.links[id] {
		delete(s.backlinks[tagID], id)
	}
	delete(s.links, id)
	delete(s.issues, id)
	s.issueOrder = without(s.issueOrder, id)
}

// removeTag detaches the tag from every issue and returns the IDs of the
// issues that lost it.
func (s *Store) removeTag(id string) []string {
	var detached []string
	for issueID := range s.backlinks[id] {
		delete(s.links[issueID], id)
		detached = append(detached, issueID)
	}
	delete(s.backlinks, id)
	delete(s.tags, id)
	s.tagOrder = without(s.tagOrder, id)
	sort.Strings(detached)
	return detached
}

func (s *Store) link(issueID, tagID string) bool {
	if _, ok := s.links[issueID][tagID]; ok {
		return false
	}
	if s.links[issueID] == nil {
		s.links[issueID] = make(map[string]struct{})
	}
	if s.backlinks[tagID] == nil {
		s.backlinks[tagID] = make(map[string]struct{})
	}
	s.links[issueID][tagID] = struct{}{}
	s.backlinks[tagID][issueID] = struct{}{}
	return true
}

func (s *Store) unlink(issueID, tagID string) bool {
	if _, ok := s.links[issueID][tagID]; !ok {
		return false
	}
	delete(s.links[issueID], tagID)
	delete(s.backlinks[tagID], issueID)
	return true
}

func without(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
