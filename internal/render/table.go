package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ALT-F4-LLC/portfolio/internal/model"
)

const (
	maxTitleWidth = 40
	maxTagsWidth  = 30
)

// StyledText applies a lipgloss style to text when colors are enabled.
// When colors are disabled, it returns the plain text unchanged.
func StyledText(text string, style lipgloss.Style) string {
	if ColorsEnabled() {
		return style.Render(text)
	}
	return text
}

// ColorFromName maps model and award color names to lipgloss colors.
func ColorFromName(name string) lipgloss.Color {
	switch strings.ToLower(name) {
	case "red":
		return lipgloss.Color("9")
	case "yellow":
		return lipgloss.Color("11")
	case "blue":
		return lipgloss.Color("12")
	case "green":
		return lipgloss.Color("10")
	case "magenta":
		return lipgloss.Color("13")
	case "gray":
		return lipgloss.Color("8")
	case "dark blue":
		return lipgloss.Color("19")
	case "dark gray":
		return lipgloss.Color("240")
	case "gold":
		return lipgloss.Color("220")
	case "light blue":
		return lipgloss.Color("117")
	case "midnight":
		return lipgloss.Color("17")
	case "orange":
		return lipgloss.Color("208")
	case "pink":
		return lipgloss.Color("211")
	case "purple":
		return lipgloss.Color("129")
	case "teal":
		return lipgloss.Color("30")
	default:
		return lipgloss.Color("15")
	}
}

// truncate shortens a string to maxLen runes, appending an ellipsis if truncated.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// statusLabel returns a status string with icon, e.g. "✔ Closed".
func statusLabel(issue model.Issue) string {
	if issue.Completed {
		return "✔ " + issue.StatusLabel()
	}
	return "○ " + issue.StatusLabel()
}

func statusColor(issue model.Issue) string {
	if issue.Completed {
		return "green"
	}
	return "yellow"
}

func priorityLabel(p model.Priority) string {
	return p.Icon() + " " + p.String()
}

// EmptyState renders a styled empty-state message with an optional contextual hint.
// When colors are enabled the message is rendered in dim gray and the hint is italic.
// When quiet is true the hint is suppressed.
func EmptyState(message, hint string, quiet bool) string {
	if !ColorsEnabled() {
		if quiet || hint == "" {
			return message
		}
		return message + "\n" + hint
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)

	result := dimStyle.Render(message)
	if !quiet && hint != "" {
		result += "\n" + hintStyle.Render(hint)
	}
	return result
}

// TagNamer resolves the display names of an issue's tags.
type TagNamer func(issue model.Issue) []string

// RenderIssueTable renders issues as a formatted table in the order given.
func RenderIssueTable(issues []model.Issue, tagNames TagNamer) string {
	if len(issues) == 0 {
		return EmptyState("No issues found.", "Create one with: portfolio issue new", false)
	}

	if !ColorsEnabled() {
		return renderPlainIssueTable(issues, tagNames)
	}

	headers := []string{"ID", "Status", "Priority", "Title", "Tags", "Modified"}

	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, issueToRow(issue, tagNames))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)

			if row == table.HeaderRow {
				return s.Bold(true).Foreground(lipgloss.Color("15"))
			}
			if row < 0 || row >= len(issues) {
				return s
			}

			issue := issues[row]
			switch col {
			case 0:
				return s.Foreground(lipgloss.Color("15"))
			case 1:
				return s.Foreground(ColorFromName(statusColor(issue)))
			case 2:
				return s.Foreground(ColorFromName(issue.Priority.Color()))
			case 3:
				if issue.Completed {
					return s.Strikethrough(true).Foreground(lipgloss.Color("8"))
				}
				return s.Bold(true)
			case 4:
				return s.Foreground(lipgloss.Color("14"))
			default:
				return s.Foreground(lipgloss.Color("8"))
			}
		})

	return t.Render()
}

func issueTags(issue model.Issue, tagNames TagNamer) string {
	if tagNames == nil {
		return ""
	}
	names := tagNames(issue)
	if len(names) == 0 {
		return ""
	}
	return truncate(strings.Join(names, ", "), maxTagsWidth)
}

func issueToRow(issue model.Issue, tagNames TagNamer) []string {
	return []string{
		issue.ShortID(),
		statusLabel(issue),
		priorityLabel(issue.Priority),
		truncate(issue.Title, maxTitleWidth),
		issueTags(issue, tagNames),
		humanize.Time(issue.ModifiedDate),
	}
}

func renderPlainIssueTable(issues []model.Issue, tagNames TagNamer) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%-10s %-10s %-10s %-40s %-30s %s\n",
		"ID", "Status", "Priority", "Title", "Tags", "Modified")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 118))

	for _, issue := range issues {
		fmt.Fprintf(&b, "%-10s %-10s %-10s %-40s %-30s %s\n",
			issue.ShortID(),
			statusLabel(issue),
			priorityLabel(issue.Priority),
			truncate(issue.Title, maxTitleWidth),
			issueTags(issue, tagNames),
			humanize.Time(issue.ModifiedDate),
		)
	}

	return b.String()
}

// TagRow is one line of the tag table.
type TagRow struct {
	Tag    model.Tag
	Issues int
	Open   int
}

// RenderTagTable renders tags with their issue counts.
func RenderTagTable(rows []TagRow) string {
	if len(rows) == 0 {
		return EmptyState("No tags found.", "Create one with: portfolio tag new", false)
	}

	if !ColorsEnabled() {
		var b strings.Builder
		fmt.Fprintf(&b, "%-10s %-30s %-8s %s\n", "ID", "Name", "Issues", "Open")
		fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 56))
		for _, r := range rows {
			fmt.Fprintf(&b, "%-10s %-30s %-8d %d\n", r.Tag.ShortID(), truncate(r.Tag.Name, 30), r.Issues, r.Open)
		}
		return b.String()
	}

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{
			r.Tag.ShortID(),
			truncate(r.Tag.Name, 30),
			fmt.Sprintf("%d", r.Issues),
			fmt.Sprintf("%d", r.Open),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("ID", "Name", "Issues", "Open").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
			if row == table.HeaderRow {
				return s.Bold(true).Foreground(lipgloss.Color("15"))
			}
			if col == 1 {
				return s.Bold(true).Foreground(lipgloss.Color("14"))
			}
			return s
		})

	return t.Render()
}
