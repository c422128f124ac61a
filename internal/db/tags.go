package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ALT-F4-LLC/portfolio/internal/model"
)

// TagWithCount is a tag with the number of issues related to it.
type TagWithCount struct {
	model.Tag
	IssueCount int `json:"issue_count"`
	OpenCount  int `json:"open_count"`
}

// GetTag retrieves a tag by ID.
func GetTag(db *sql.DB, id string) (*model.Tag, error) {
	var t model.Tag
	err := db.QueryRow(`SELECT id, name FROM tags WHERE id = ?`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying tag: %w", err)
	}
	return &t, nil
}

// ListTags returns every tag with its issue counts, sorted by name.
func ListTags(db *sql.DB) ([]TagWithCount, error) {
	rows, err := db.Query(
		`SELECT t.id, t.name,
		        COUNT(i.id) AS issue_count,
		        COALESCE(SUM(CASE WHEN i.completed = 0 THEN 1 ELSE 0 END), 0) AS open_count
		 FROM tags t
		 LEFT JOIN issue_tags it ON it.tag_id = t.id
		 LEFT JOIN issues i ON i.id = it.issue_id
		 GROUP BY t.id
		 ORDER BY lower(t.name), t.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []TagWithCount
	for rows.Next() {
		var tc TagWithCount
		if err := rows.Scan(&tc.ID, &tc.Name, &tc.IssueCount, &tc.OpenCount); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tag rows: %w", err)
	}

	return tags, nil
}

// CountTags returns the number of stored tags.
func CountTags(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM tags`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting tags: %w", err)
	}
	return n, nil
}
