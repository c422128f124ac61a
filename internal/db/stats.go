package db

import (
	"database/sql"
	"fmt"

	"github.com/ALT-F4-LLC/portfolio/internal/model"
)

// Stats summarizes the stored data.
type Stats struct {
	Issues        int            `json:"issues"`
	Open          int            `json:"open"`
	Closed        int            `json:"closed"`
	Tags          int            `json:"tags"`
	Relationships int            `json:"relationships"`
	Untagged      int            `json:"untagged"`
	ByPriority    map[string]int `json:"by_priority"`
}

// GetStats returns counts over the stored data.
func GetStats(db *sql.DB) (*Stats, error) {
	s := &Stats{ByPriority: make(map[string]int)}

	err := db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN completed = 0 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN completed = 1 THEN 1 ELSE 0 END), 0)
		 FROM issues`,
	).Scan(&s.Issues, &s.Open, &s.Closed)
	if err != nil {
		return nil, fmt.Errorf("counting issues: %w", err)
	}

	if s.Tags, err = CountTags(db); err != nil {
		return nil, err
	}

	if err := db.QueryRow(`SELECT COUNT(*) FROM issue_tags`).Scan(&s.Relationships); err != nil {
		return nil, fmt.Errorf("counting relationships: %w", err)
	}

	if err := db.QueryRow(
		`SELECT COUNT(*) FROM issues i WHERE NOT EXISTS (SELECT 1 FROM issue_tags it WHERE it.issue_id = i.id)`,
	).Scan(&s.Untagged); err != nil {
		return nil, fmt.Errorf("counting untagged issues: %w", err)
	}

	rows, err := db.Query(`SELECT priority, COUNT(*) FROM issues GROUP BY priority`)
	if err != nil {
		return nil, fmt.Errorf("counting priorities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p, n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, fmt.Errorf("scanning priority count: %w", err)
		}
		s.ByPriority[model.Priority(p).String()] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating priority counts: %w", err)
	}

	return s, nil
}
