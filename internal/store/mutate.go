package store

import (
	"fmt"
	"math/rand"

	"github.com/ALT-F4-LLC/portfolio/internal/model"
)

// NewIssue creates an issue with the placeholder title and medium priority.
// When tagID is not empty the issue is related to that tag.
func (s *Store) NewIssue(tagID string) (model.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tagID != "" {
		if _, ok := s.tags[tagID]; !ok {
			return model.Issue{}, fmt.Errorf("tag %s: %w", tagID, ErrNotFound)
		}
	}

	now := s.now()
	issue := model.Issue{
		ID:           model.NewIssueID(),
		Title:        model.DefaultIssueTitle,
		CreatedDate:  now,
		ModifiedDate: now,
		Priority:     model.PriorityMedium,
	}
	s.insertIssue(issue)
	s.markIssue(issue.ID, fieldNew)

	if tagID != "" {
		s.link(issue.ID, tagID)
	}

	s.publish(EventChanged)
	return s.hydrate(issue.ID), nil
}

// NewTag creates a tag with a fresh identifier and the placeholder name.
func (s *Store) NewTag() model.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()

	tag := model.Tag{ID: model.NewTagID(), Name: model.DefaultTagName}
	s.insertTag(tag)
	s.markTag(tag.ID, fieldNew)

	s.publish(EventChanged)
	return tag
}

// UpdateIssue applies edit to the issue and records which properties
// changed. The modification date is bumped when anything changed. The ID and
// tag relationships cannot be changed through edit.
func (s *Store) UpdateIssue(id string, edit func(*model.Issue)) (model.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.issues[id]
	if !ok {
		return model.Issue{}, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}

	updated := *current
	edit(&updated)
	updated.ID = id
	updated.TagIDs = nil

	changed := diffIssue(*current, updated)
	if changed == 0 {
		return s.hydrate(id), nil
	}
	if changed&fieldModified == 0 {
		updated.ModifiedDate = s.now()
		changed |= fieldModified
	}

	*current = updated
	s.markIssue(id, changed)
	s.publish(EventChanged)
	return s.hydrate(id), nil
}

// UpdateTag applies edit to the tag. Only the name is editable.
func (s *Store) UpdateTag(id string, edit func(*model.Tag)) (model.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tags[id]
	if !ok {
		return model.Tag{}, fmt.Errorf("tag %s: %w", id, ErrNotFound)
	}

	updated := *current
	edit(&updated)
	if updated.Name == current.Name {
		return *current, nil
	}

	current.Name = updated.Name
	s.markTag(id, fieldName)
	s.publish(EventChanged)
	return *current, nil
}

// AddTag relates an issue to a tag. It is a no-op when they are already
// related.
func (s *Store) AddTag(issueID, tagID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPair(issueID, tagID); err != nil {
		return err
	}
	if s.link(issueID, tagID) {
		s.touch(issueID, fieldTags)
		s.publish(EventChanged)
	}
	return nil
}

// RemoveTag removes the relationship between an issue and a tag. It is a
// no-op when they are not related.
func (s *Store) RemoveTag(issueID, tagID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPair(issueID, tagID); err != nil {
		return err
	}
	if s.unlink(issueID, tagID) {
		s.touch(issueID, fieldTags)
		s.publish(EventChanged)
	}
	return nil
}

func (s *Store) checkPair(issueID, tagID string) error {
	if _, ok := s.issues[issueID]; !ok {
		return fmt.Errorf("issue %s: %w", issueID, ErrNotFound)
	}
	if _, ok := s.tags[tagID]; !ok {
		return fmt.Errorf("tag %s: %w", tagID, ErrNotFound)
	}
	return nil
}

// touch marks an issue changed and bumps its modification date.
func (s *Store) touch(issueID string, f field) {
	s.issues[issueID].ModifiedDate = s.now()
	s.markIssue(issueID, f|fieldModified)
}

// Delete removes an issue or a tag. Deleting a tag detaches it from its
// issues; the issues themselves are kept.
func (s *Store) Delete(e model.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := e.EntityID()
	switch e.EntityKind() {
	case model.KindIssue:
		if _, ok := s.issues[id]; !ok {
			return fmt.Errorf("issue %s: %w", id, ErrNotFound)
		}
		s.removeIssue(id)
		s.forgetIssue(id)
	case model.KindTag:
		if _, ok := s.tags[id]; !ok {
			return fmt.Errorf("tag %s: %w", id, ErrNotFound)
		}
		s.removeTag(id)
		s.forgetTag(id)
	default:
		return fmt.Errorf("unknown entity kind %q", e.EntityKind())
	}

	s.publish(EventChanged)
	return nil
}

// CreateSampleData adds 5 tags with 10 issues each. Priorities and
// completion states are drawn from rng.
func (s *Store) CreateSampleData(rng *rand.Rand) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for tagCounter := 1; tagCounter <= 5; tagCounter++ {
		tag := model.Tag{ID: model.NewTagID(), Name: fmt.Sprintf("Tag %d", tagCounter)}
		s.insertTag(tag)
		s.markTag(tag.ID, fieldNew)

		for issueCounter := 1; issueCounter <= 10; issueCounter++ {
			now := s.now()
			issue := model.Issue{
				ID:           model.NewIssueID(),
				Title:        fmt.Sprintf("Issue %d-%d", tagCounter, issueCounter),
				Content:      "Description goes here",
				CreatedDate:  now,
				ModifiedDate: now,
				Completed:    rng.Intn(2) == 1,
				Priority:     model.Priority(rng.Intn(3)),
			}
			s.insertIssue(issue)
			s.markIssue(issue.ID, fieldNew)
			s.link(issue.ID, tag.ID)
		}
	}

	s.publish(EventChanged)
}
