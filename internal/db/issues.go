package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ALT-F4-LLC/portfolio/internal/model"
	"github.com/ALT-F4-LLC/portfolio/internal/query"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// TimeLayout is the fixed-width UTC layout dates are stored with, so that
// text comparison in SQL orders the same as time comparison.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// scanner abstracts *sql.Row and *sql.Rows for scanning a single row.
type scanner interface {
	Scan(dest ...any) error
}

const issueColumns = `i.id, i.title, i.content, i.created_date, i.modified_date, i.completed, i.priority`

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		// Rows written by hand or by older tools.
		if t2, err2 := time.Parse(time.RFC3339Nano, s); err2 == nil {
			return t2.UTC(), nil
		}
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

func scanIssue(s scanner) (*model.Issue, error) {
	var (
		issue             model.Issue
		created, modified string
		priority          int
	)
	if err := s.Scan(&issue.ID, &issue.Title, &issue.Content, &created, &modified, &issue.Completed, &priority); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning issue: %w", err)
	}

	var err error
	if issue.CreatedDate, err = parseTime(created); err != nil {
		return nil, err
	}
	if issue.ModifiedDate, err = parseTime(modified); err != nil {
		return nil, err
	}
	issue.Priority = model.Priority(priority)
	return &issue, nil
}

// GetIssue retrieves an issue by ID with its tag IDs.
func GetIssue(db *sql.DB, id string) (*model.Issue, error) {
	issue, err := scanIssue(db.QueryRow(
		`SELECT `+issueColumns+` FROM issues i WHERE i.id = ?`, id,
	))
	if err != nil {
		return nil, err
	}
	if err := hydrateTags(db, []*model.Issue{issue}); err != nil {
		return nil, err
	}
	return issue, nil
}

// ListIssues returns the issues matching pred ordered by the sort key, with
// tag IDs populated. Ties keep insertion order.
func ListIssues(db *sql.DB, pred query.Predicate, key model.SortKey, descending bool) ([]model.Issue, error) {
	where, args := pred.SQL(TimeLayout)

	column := "i.created_date"
	if key == model.SortModified {
		column = "i.modified_date"
	}
	dir := "ASC"
	if descending {
		dir = "DESC"
	}

	rows, err := db.Query(
		fmt.Sprintf(`SELECT %s FROM issues i WHERE %s ORDER BY %s %s, i.rowid`, issueColumns, where, column, dir),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	var issues []*model.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issue rows: %w", err)
	}
	rows.Close()

	if err := hydrateTags(db, issues); err != nil {
		return nil, err
	}

	result := make([]model.Issue, len(issues))
	for i, issue := range issues {
		result[i] = *issue
	}
	return result, nil
}

// CountIssues returns the number of stored issues matching pred.
func CountIssues(db *sql.DB, pred query.Predicate) (int, error) {
	where, args := pred.SQL(TimeLayout)

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM issues i WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting issues: %w", err)
	}
	return n, nil
}

// hydrateTags fills TagIDs on each issue, ordered by tag ID.
func hydrateTags(db *sql.DB, issues []*model.Issue) error {
	if len(issues) == 0 {
		return nil
	}

	byID := make(map[string]*model.Issue, len(issues))
	for _, issue := range issues {
		issue.TagIDs = nil
		byID[issue.ID] = issue
	}

	rows, err := db.Query(`SELECT issue_id, tag_id FROM issue_tags ORDER BY issue_id, tag_id`)
	if err != nil {
		return fmt.Errorf("querying issue tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var issueID, tagID string
		if err := rows.Scan(&issueID, &tagID); err != nil {
			return fmt.Errorf("scanning issue tag: %w", err)
		}
		if issue, ok := byID[issueID]; ok {
			issue.TagIDs = append(issue.TagIDs, tagID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating issue tag rows: %w", err)
	}
	return nil
}
