package render

import (
	"fmt"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/ALT-F4-LLC/portfolio/internal/model"
)

// RenderDetail renders a full issue view: header, metadata, tags and content.
func RenderDetail(issue model.Issue, tags []model.Tag) string {
	if !ColorsEnabled() {
		return renderPlainDetail(issue, tags)
	}

	sections := []string{
		renderHeader(issue),
		renderMetadata(issue, tags),
	}
	if issue.Content != "" {
		sections = append(sections, renderContent(issue.Content))
	}
	return strings.Join(sections, "\n\n")
}

func renderHeader(issue model.Issue) string {
	idStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	titleStyle := lipgloss.NewStyle().Bold(true)
	statusStyle := lipgloss.NewStyle().
		Foreground(ColorFromName(statusColor(issue))).
		Bold(true)
	priorityStyle := lipgloss.NewStyle().
		Foreground(ColorFromName(issue.Priority.Color())).
		Bold(true)

	return fmt.Sprintf("%s  %s\n%s  %s",
		idStyle.Render(issue.ShortID()),
		titleStyle.Render(issue.Title),
		statusStyle.Render(statusLabel(issue)),
		priorityStyle.Render(priorityLabel(issue.Priority)),
	)
}

func renderMetadata(issue model.Issue, tags []model.Tag) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tagStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14"))

	lines := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("ID:"), issue.ID),
		fmt.Sprintf("%s %s", labelStyle.Render("Tags:"), tagStyle.Render(model.TagsList(model.TagNames(tags)))),
		fmt.Sprintf("%s %s", labelStyle.Render("Created:"), humanize.Time(issue.CreatedDate)),
		fmt.Sprintf("%s %s", labelStyle.Render("Modified:"), humanize.Time(issue.ModifiedDate)),
	}
	return strings.Join(lines, "\n")
}

func renderContent(content string) string {
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	header := sectionStyle.Render("Content")

	rendered, err := RenderMarkdown(content)
	if err != nil {
		rendered = content
	}
	return header + "\n" + rendered
}

func renderPlainDetail(issue model.Issue, tags []model.Tag) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n", issue.ShortID(), issue.Title)
	fmt.Fprintf(&b, "%s  %s\n\n", statusLabel(issue), priorityLabel(issue.Priority))
	fmt.Fprintf(&b, "ID: %s\n", issue.ID)
	fmt.Fprintf(&b, "Tags: %s\n", model.TagsList(model.TagNames(tags)))
	fmt.Fprintf(&b, "Created: %s\n", humanize.Time(issue.CreatedDate))
	fmt.Fprintf(&b, "Modified: %s\n", humanize.Time(issue.ModifiedDate))

	if issue.Content != "" {
		fmt.Fprintf(&b, "\nContent\n%s\n", issue.Content)
	}
	return b.String()
}

// SidebarEntry is one selectable filter in the sidebar.
type SidebarEntry struct {
	Name     string
	Icon     string
	Count    int
	Selected bool
}

// RenderSidebar renders the smart filters and tags as a tree, marking the
// selected filter.
func RenderSidebar(smart, tags []SidebarEntry) string {
	if !ColorsEnabled() {
		var b strings.Builder
		b.WriteString("Smart Filters\n")
		for _, e := range smart {
			fmt.Fprintf(&b, "  %s\n", plainEntry(e))
		}
		b.WriteString("Tags\n")
		if len(tags) == 0 {
			b.WriteString("  (none)\n")
		}
		for _, e := range tags {
			fmt.Fprintf(&b, "  %s\n", plainEntry(e))
		}
		return b.String()
	}

	sectionStyle := lipgloss.NewStyle().Bold(true)

	smartNode := tree.Root(sectionStyle.Render("Smart Filters"))
	for _, e := range smart {
		smartNode.Child(styledEntry(e))
	}
	tagNode := tree.Root(sectionStyle.Render("Tags"))
	for _, e := range tags {
		tagNode.Child(styledEntry(e))
	}

	return tree.New().Child(smartNode, tagNode).String()
}

func plainEntry(e SidebarEntry) string {
	marker := " "
	if e.Selected {
		marker = "*"
	}
	return fmt.Sprintf("%s %s (%d)", marker, e.Name, e.Count)
}

func styledEntry(e SidebarEntry) string {
	name := lipgloss.NewStyle()
	if e.Selected {
		name = name.Bold(true).Foreground(lipgloss.Color("12"))
	}
	count := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	return fmt.Sprintf("%s %s", name.Render(e.Name), count.Render(fmt.Sprintf("%d", e.Count)))
}
