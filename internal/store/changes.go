package store

import (
	"fmt"
	"sort"

	"github.com/ALT-F4-LLC/portfolio/internal/model"
)

// field is a bit set of entity properties with uncommitted local changes.
type field uint16

const (
	fieldTitle field = 1 << iota
	fieldContent
	fieldCreated
	fieldModified
	fieldCompleted
	fieldPriority
	fieldTags
	fieldName
	// fieldNew marks an entity that does not exist in the durable store yet.
	fieldNew
)

// ChangeWriter persists a change set to the durable store atomically.
type ChangeWriter interface {
	Apply(cs model.ChangeSet) error
}

func diffIssue(a, b model.Issue) field {
	var f field
	if a.Title != b.Title {
		f |= fieldTitle
	}
	if a.Content != b.Content {
		f |= fieldContent
	}
	if !a.CreatedDate.Equal(b.CreatedDate) {
		f |= fieldCreated
	}
	if !a.ModifiedDate.Equal(b.ModifiedDate) {
		f |= fieldModified
	}
	if a.Completed != b.Completed {
		f |= fieldCompleted
	}
	if a.Priority != b.Priority {
		f |= fieldPriority
	}
	return f
}

func (s *Store) markIssue(id string, f field) {
	s.dirtyIssues[id] |= f
}

func (s *Store) markTag(id string, f field) {
	s.dirtyTags[id] |= f
}

// forgetIssue drops change tracking for a deleted issue and records a
// pending delete if the issue was already committed.
func (s *Store) forgetIssue(id string) {
	f := s.dirtyIssues[id]
	delete(s.dirtyIssues, id)
	if f&fieldNew == 0 {
		s.deletedIssues[id] = struct{}{}
	}
}

func (s *Store) forgetTag(id string) {
	f := s.dirtyTags[id]
	delete(s.dirtyTags, id)
	if f&fieldNew == 0 {
		s.deletedTags[id] = struct{}{}
	}
}

// HasChanges reports whether the store holds changes not yet written to
// the durable store.
func (s *Store) HasChanges() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasChanges()
}

func (s *Store) hasChanges() bool {
	return len(s.dirtyIssues) > 0 || len(s.dirtyTags) > 0 ||
		len(s.deletedIssues) > 0 || len(s.deletedTags) > 0
}

// PendingChanges returns the uncommitted changes without clearing them.
func (s *Store) PendingChanges() model.ChangeSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingChanges()
}

func (s *Store) pendingChanges() model.ChangeSet {
	var cs model.ChangeSet
	for _, id := range sortedKeys(s.dirtyTags) {
		cs.UpsertTags = append(cs.UpsertTags, *s.tags[id])
	}
	for _, id := range sortedKeys(s.dirtyIssues) {
		cs.UpsertIssues = append(cs.UpsertIssues, s.hydrate(id))
	}
	cs.DeleteIssues = sortedKeys(s.deletedIssues)
	cs.DeleteTags = sortedKeys(s.deletedTags)
	return cs
}

// Save writes pending changes through w and marks them committed. Nothing
// is written when there are no changes. On failure the changes stay pending.
// The store lock is held for the duration of the write.
func (s *Store) Save(w ChangeWriter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasChanges() {
		return nil
	}

	if err := w.Apply(s.pendingChanges()); err != nil {
		return fmt.Errorf("saving changes: %w", err)
	}

	s.dirtyIssues = make(map[string]field)
	s.dirtyTags = make(map[string]field)
	s.deletedIssues = make(map[string]struct{})
	s.deletedTags = make(map[string]struct{})
	s.publish(EventSaved)
	return nil
}

// Merge folds a snapshot of the durable store, written by someone else, into
// the live store. Merging is per property: a property with an uncommitted
// local change keeps the local value, every other property takes the
// snapshot value. Entities deleted locally stay deleted; committed entities
// missing from the snapshot are removed; uncommitted new entities are kept.
// Merge does not create pending changes.
func (s *Store) Merge(snap *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merge(snap)
}

// Refresh loads a snapshot through load and merges it. The store lock is
// held across the load so a concurrent Save cannot slip in between reading
// the durable store and merging what was read.
func (s *Store) Refresh(load func() (*model.Snapshot, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := load()
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}
	s.merge(snap)
	return nil
}

func (s *Store) merge(snap *model.Snapshot) {
	s.mergeTags(snap.Tags)
	s.mergeIssues(snap.Issues)
	s.publish(EventStale)
}

func (s *Store) mergeTags(remote []model.Tag) {
	seen := make(map[string]struct{}, len(remote))
	for _, r := range remote {
		seen[r.ID] = struct{}{}
		if _, deleted := s.deletedTags[r.ID]; deleted {
			continue
		}
		local, ok := s.tags[r.ID]
		if !ok {
			s.insertTag(r)
			continue
		}
		if s.dirtyTags[r.ID]&fieldName == 0 {
			local.Name = r.Name
		}
	}

	for _, id := range append([]string(nil), s.tagOrder...) {
		if _, ok := seen[id]; ok {
			continue
		}
		if s.dirtyTags[id]&fieldNew != 0 {
			continue
		}
		s.removeTag(id)
		delete(s.dirtyTags, id)
	}
}

func (s *Store) mergeIssues(remote []model.Issue) {
	seen := make(map[string]struct{}, len(remote))
	for _, r := range remote {
		seen[r.ID] = struct{}{}
		if _, deleted := s.deletedIssues[r.ID]; deleted {
			continue
		}

		local, ok := s.issues[r.ID]
		if !ok {
			s.insertIssue(r)
			s.replaceLinks(r.ID, r.TagIDs)
			continue
		}

		mask := s.dirtyIssues[r.ID]
		if mask&fieldTitle == 0 {
			local.Title = r.Title
		}
		if mask&fieldContent == 0 {
			local.Content = r.Content
		}
		if mask&fieldCreated == 0 {
			local.CreatedDate = r.CreatedDate
		}
		if mask&fieldModified == 0 {
			local.ModifiedDate = r.ModifiedDate
		}
		if mask&fieldCompleted == 0 {
			local.Completed = r.Completed
		}
		if mask&fieldPriority == 0 {
			local.Priority = r.Priority
		}
		if mask&fieldTags == 0 {
			s.replaceLinks(r.ID, r.TagIDs)
		}
	}

	for _, id := range append([]string(nil), s.issueOrder...) {
		if _, ok := seen[id]; ok {
			continue
		}
		if s.dirtyIssues[id]&fieldNew != 0 {
			continue
		}
		s.removeIssue(id)
		delete(s.dirtyIssues, id)
	}
}

// replaceLinks sets the tags of an issue, skipping tags that do not exist.
func (s *Store) replaceLinks(issueID string, tagIDs []string) {
	for tagID := range s.links[issueID] {
		s.unlink(issueID, tagID)
	}
	for _, tagID := range tagIDs {
		if _, ok := s.tags[tagID]; ok {
			s.link(issueID, tagID)
		}
	}
}

// Reconcile removes entities that were deleted from the durable store by a
// bulk operation, together with every relationship that referenced them.
// Because the durable store no longer holds them, no pending deletes are
// recorded. It returns the number of entities removed from the live store.
func (s *Store) Reconcile(kind model.EntityKind, ids []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, id := range ids {
		switch kind {
		case model.KindIssue:
			if _, ok := s.issues[id]; ok {
				s.removeIssue(id)
				removed++
			}
			delete(s.dirtyIssues, id)
			delete(s.deletedIssues, id)
		case model.KindTag:
			if _, ok := s.tags[id]; ok {
				s.removeTag(id)
				removed++
			}
			delete(s.dirtyTags, id)
			delete(s.deletedTags, id)
		}
	}

	s.publish(EventStale)
	return removed
}

// Relationships returns the number of issue-tag links held in memory. Every
// link refers to an issue and a tag that exist.
func (s *Store) Relationships() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for issueID, tagIDs := range s.links {
		if _, ok := s.issues[issueID]; !ok {
			continue
		}
		for tagID := range tagIDs {
			if _, ok := s.tags[tagID]; ok {
				n++
			}
		}
	}
	return n
}

// Dangling returns the number of relationship entries, in either direction,
// that reference a missing issue or tag. It is zero for a consistent store.
func (s *Store) Dangling() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for issueID, tagIDs := range s.links {
		_, issueOK := s.issues[issueID]
		for tagID := range tagIDs {
			if _, tagOK := s.tags[tagID]; !issueOK || !tagOK {
				n++
			}
		}
	}
	for tagID, issueIDs := range s.backlinks {
		_, tagOK := s.tags[tagID]
		for issueID := range issueIDs {
			if _, issueOK := s.issues[issueID]; !issueOK || !tagOK {
				n++
			}
		}
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
