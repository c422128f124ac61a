package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/portfolio/internal/db"
	"github.com/ALT-F4-LLC/portfolio/internal/model"
	"github.com/ALT-F4-LLC/portfolio/internal/output"
	"github.com/ALT-F4-LLC/portfolio/internal/render"
	"github.com/spf13/cobra"
)

type statsResult struct {
	*db.Stats
	AwardsEarned int `json:"awards_earned"`
	AwardsTotal  int `json:"awards_total"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show summary statistics for the stored issues",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		sess := getSession(cmd)
		ctrl := sess.ctrl

		// Counts come from the database, so flush first.
		ctrl.SaveNow()

		stats, err := db.GetStats(sess.durable.DB())
		if err != nil {
			return cmdErr(fmt.Errorf("reading stats: %w", err), output.ErrStorage)
		}

		result := statsResult{Stats: stats, AwardsTotal: len(ctrl.Awards())}
		for _, a := range ctrl.Awards() {
			if ctrl.HasEarned(a) {
				result.AwardsEarned++
			}
		}

		jsonMode, _ := cmd.Flags().GetBool("json")
		var message string
		if !jsonMode {
			message = formatStatsHuman(result)
		}
		w.Success(result, message)
		return nil
	},
}

func formatStatsHuman(r statsResult) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var b strings.Builder
	b.WriteString(render.StyledText("Issues", header) + "\n")
	fmt.Fprintf(&b, "  %s %d (%d open, %d closed)\n", render.StyledText("Total:", label), r.Issues, r.Open, r.Closed)
	fmt.Fprintf(&b, "  %s %d\n", render.StyledText("Untagged:", label), r.Untagged)
	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
		name := p.String()
		fmt.Fprintf(&b, "  %s %d\n", render.StyledText(strings.ToUpper(name[:1])+name[1:]+":", label), r.ByPriority[name])
	}
	b.WriteString(render.StyledText("Tags", header) + "\n")
	fmt.Fprintf(&b, "  %s %d\n", render.StyledText("Total:", label), r.Tags)
	fmt.Fprintf(&b, "  %s %d\n", render.StyledText("Relationships:", label), r.Relationships)
	b.WriteString(render.StyledText("Awards", header) + "\n")
	fmt.Fprintf(&b, "  %s %d of %d", render.StyledText("Earned:", label), r.AwardsEarned, r.AwardsTotal)
	return b.String()
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
