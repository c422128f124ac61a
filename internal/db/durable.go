package db

import (
	"database/sql"
	"fmt"

	"github.com/ALT-F4-LLC/portfolio/internal/model"
)

// Durable is the committed store of issues and tags. It loads snapshots for
// the in-memory store and writes its change sets back.
type Durable struct {
	db *sql.DB
}

// NewDurable wraps an initialized database.
func NewDurable(db *sql.DB) *Durable {
	return &Durable{db: db}
}

// DB returns the underlying connection for read-only queries.
func (d *Durable) DB() *sql.DB {
	return d.db
}

// Load returns every stored issue and tag. Issues come back in insertion
// order with their tag IDs.
func (d *Durable) Load() (*model.Snapshot, error) {
	snap := &model.Snapshot{}

	rows, err := d.db.Query(`SELECT id, name FROM tags ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		snap.Tags = append(snap.Tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tag rows: %w", err)
	}
	rows.Close()

	issueRows, err := d.db.Query(`SELECT ` + issueColumns + ` FROM issues i ORDER BY i.rowid`)
	if err != nil {
		return nil, fmt.Errorf("loading issues: %w", err)
	}
	defer issueRows.Close()

	var issues []*model.Issue
	for issueRows.Next() {
		issue, err := scanIssue(issueRows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	if err := issueRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issue rows: %w", err)
	}
	issueRows.Close()

	if err := hydrateTags(d.db, issues); err != nil {
		return nil, err
	}
	for _, issue := range issues {
		snap.Issues = append(snap.Issues, *issue)
	}

	return snap, nil
}

// Apply writes a change set in a single transaction: tags are upserted,
// then issues with their tag sets, then deletions. Relationships to tags
// that no longer exist are skipped.
func (d *Durable) Apply(cs model.ChangeSet) error {
	if cs.Empty() {
		return nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range cs.UpsertTags {
		if _, err := tx.Exec(
			`INSERT INTO tags (id, name) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			t.ID, t.Name,
		); err != nil {
			return fmt.Errorf("upserting tag %s: %w", t.ID, err)
		}
	}

	for _, issue := range cs.UpsertIssues {
		if err := upsertIssue(tx, issue); err != nil {
			return err
		}
	}

	for _, id := range cs.DeleteIssues {
		if _, err := tx.Exec(`DELETE FROM issues WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting issue %s: %w", id, err)
		}
	}

	for _, id := range cs.DeleteTags {
		if _, err := tx.Exec(`DELETE FROM tags WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting tag %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func upsertIssue(tx *sql.Tx, issue model.Issue) error {
	if _, err := tx.Exec(
		`INSERT INTO issues (id, title, content, created_date, modified_date, completed, priority)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			created_date = excluded.created_date,
			modified_date = excluded.modified_date,
			completed = excluded.completed,
			priority = excluded.priority`,
		issue.ID,
		issue.Title,
		issue.Content,
		formatTime(issue.CreatedDate),
		formatTime(issue.ModifiedDate),
		issue.Completed,
		int(issue.Priority),
	); err != nil {
		return fmt.Errorf("upserting issue %s: %w", issue.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM issue_tags WHERE issue_id = ?`, issue.ID); err != nil {
		return fmt.Errorf("clearing tags of issue %s: %w", issue.ID, err)
	}
	for _, tagID := range issue.TagIDs {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO issue_tags (issue_id, tag_id)
			 SELECT ?, id FROM tags WHERE id = ?`,
			issue.ID, tagID,
		); err != nil {
			return fmt.Errorf("linking issue %s to tag %s: %w", issue.ID, tagID, err)
		}
	}
	return nil
}

// BatchDelete removes every entity of the given kind and returns the IDs
// that were deleted. Relationship rows go with them through ON DELETE
// CASCADE.
func (d *Durable) BatchDelete(kind model.EntityKind) ([]string, error) {
	var table string
	switch kind {
	case model.KindIssue:
		table = "issues"
	case model.KindTag:
		table = "tags"
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`DELETE FROM ` + table + ` RETURNING id`)
	if err != nil {
		return nil, fmt.Errorf("deleting %s: %w", table, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning deleted id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deleted ids: %w", err)
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return ids, nil
}
