package main

import (
	"fmt"

	"github.com/ALT-F4-LLC/portfolio/internal/render"
	"github.com/spf13/cobra"
)

type awardsResult struct {
	Awards []render.AwardCard `json:"awards"`
	Earned int                `json:"earned"`
	Total  int                `json:"total"`
}

var awardsCmd = &cobra.Command{
	Use:   "awards",
	Short: "Show awards and which ones have been earned",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		earnedOnly, _ := cmd.Flags().GetBool("earned")

		var cards []render.AwardCard
		earned := 0
		for _, a := range ctrl.Awards() {
			ok := ctrl.HasEarned(a)
			if ok {
				earned++
			}
			if earnedOnly && !ok {
				continue
			}
			cards = append(cards, render.AwardCard{Award: a, Earned: ok})
		}
		if cards == nil {
			cards = []render.AwardCard{}
		}

		result := awardsResult{Awards: cards, Earned: earned, Total: len(ctrl.Awards())}

		jsonMode, _ := cmd.Flags().GetBool("json")
		var message string
		if !jsonMode {
			message = render.RenderAwards(cards)
			if !w.QuietMode {
				message += fmt.Sprintf("\n%d of %d awards earned", earned, result.Total)
			}
		}
		w.Success(result, message)
		return nil
	},
}

func init() {
	awardsCmd.Flags().Bool("earned", false, "Only show earned awards")
	rootCmd.AddCommand(awardsCmd)
}
