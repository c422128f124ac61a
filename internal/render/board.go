package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/ALT-F4-LLC/portfolio/internal/award"
)

const (
	minColumnWidth   = 20
	defaultTermWidth = 100
	cardPadding      = 2 // left+right padding inside cards
)

// CriterionOrder defines the left-to-right column order for the awards board.
var CriterionOrder = []string{
	award.CriterionIssues,
	award.CriterionClosed,
	award.CriterionTags,
}

var criterionTitles = map[string]string{
	award.CriterionIssues: "Issues Created",
	award.CriterionClosed: "Issues Closed",
	award.CriterionTags:   "Tags Created",
}

// AwardCard is an award together with whether it has been earned.
type AwardCard struct {
	Award  award.Award `json:"award"`
	Earned bool        `json:"earned"`
}

// RenderAwards renders awards as a board with one column per criterion.
// Awards with a criterion outside CriterionOrder are listed last.
func RenderAwards(cards []AwardCard) string {
	if len(cards) == 0 {
		return EmptyState("No awards defined.", "", false)
	}

	if !ColorsEnabled() {
		return renderPlainAwards(cards)
	}
	return renderColorAwards(cards)
}

// terminalWidth returns the current terminal width, falling back to a default.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultTermWidth
	}
	return w
}

// groupByCriterion groups cards by criterion and returns the non-empty
// criteria in display order.
func groupByCriterion(cards []AwardCard) (map[string][]AwardCard, []string) {
	groups := make(map[string][]AwardCard)
	var extra []string
	for _, c := range cards {
		k := c.Award.Criterion
		if _, known := criterionTitles[k]; !known && len(groups[k]) == 0 {
			extra = append(extra, k)
		}
		groups[k] = append(groups[k], c)
	}

	var order []string
	for _, k := range CriterionOrder {
		if len(groups[k]) > 0 {
			order = append(order, k)
		}
	}
	return groups, append(order, extra...)
}

func columnTitle(criterion string) string {
	if t, ok := criterionTitles[criterion]; ok {
		return t
	}
	return criterion
}

func earnedCount(cards []AwardCard) int {
	n := 0
	for _, c := range cards {
		if c.Earned {
			n++
		}
	}
	return n
}

func renderColorAwards(cards []AwardCard) string {
	groups, order := groupByCriterion(cards)

	tw := terminalWidth()
	gaps := len(order) - 1
	colWidth := (tw - gaps) / len(order)
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}
	contentWidth := max(colWidth-cardPadding-2, 5)

	columns := make([]string, 0, len(order))
	for _, k := range order {
		columns = append(columns, renderColorColumn(k, groups[k], colWidth, contentWidth))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func renderColorColumn(criterion string, cards []AwardCard, colWidth, contentWidth int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Width(colWidth).
		Align(lipgloss.Center).
		Render(fmt.Sprintf("%s (%d/%d)", strings.ToUpper(columnTitle(criterion)), earnedCount(cards), len(cards)))

	blocks := make([]string, 0, len(cards)+1)
	blocks = append(blocks, header)
	for _, c := range cards {
		blocks = append(blocks, renderColorCard(c, colWidth, contentWidth))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderColorCard(c AwardCard, colWidth, contentWidth int) string {
	border := lipgloss.Color("8")
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	mark := "○"
	if c.Earned {
		border = ColorFromName(c.Award.Color)
		nameStyle = lipgloss.NewStyle().Bold(true).Foreground(border)
		mark = "★"
	}

	body := strings.Join([]string{
		nameStyle.Render(truncate(mark+" "+c.Award.Name, contentWidth)),
		truncate(c.Award.Description, contentWidth),
	}, "\n")

	return lipgloss.NewStyle().
		Width(colWidth-2).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Render(body)
}

func renderPlainAwards(cards []AwardCard) string {
	groups, order := groupByCriterion(cards)

	var b strings.Builder
	for i, k := range order {
		if i > 0 {
			b.WriteString("\n")
		}
		col := groups[k]
		fmt.Fprintf(&b, "=== %s (%d/%d) ===\n", strings.ToUpper(columnTitle(k)), earnedCount(col), len(col))
		for _, c := range col {
			mark := "[ ]"
			if c.Earned {
				mark = "[x]"
			}
			fmt.Fprintf(&b, "  %s %s\n", mark, c.Award.Name)
			fmt.Fprintf(&b, "      %s\n", c.Award.Description)
		}
	}
	return b.String()
}
