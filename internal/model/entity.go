package model

import "github.com/google/uuid"

// EntityKind identifies the collection an entity belongs to.
type EntityKind string

const (
	KindIssue EntityKind = "issue"
	KindTag   EntityKind = "tag"
)

// Entity is implemented by Issue and Tag so that deletion and bulk
// reconciliation can be expressed once for both collections.
type Entity interface {
	EntityID() string
	EntityKind() EntityKind
}

// NewIssueID returns a fresh identifier for an issue.
func NewIssueID() string {
	return uuid.NewString()
}

// Snapshot is the committed content of the durable store. Issues carry
// their TagIDs.
type Snapshot struct {
	Issues []Issue
	Tags   []Tag
}

// ChangeSet describes the uncommitted difference between the in-memory
// store and the durable store. Upserted issues carry their full tag set.
type ChangeSet struct {
	UpsertIssues []Issue
	UpsertTags   []Tag
	DeleteIssues []string
	DeleteTags   []string
}

// Empty reports whether the change set has nothing to write.
func (c ChangeSet) Empty() bool {
	return len(c.UpsertIssues) == 0 && len(c.UpsertTags) == 0 &&
		len(c.DeleteIssues) == 0 && len(c.DeleteTags) == 0
}
