package main

import (
	"github.com/ALT-F4-LLC/portfolio/internal/model"
	"github.com/ALT-F4-LLC/portfolio/internal/render"
	"github.com/spf13/cobra"
)

type filterEntry struct {
	model.Filter
	Count int `json:"count"`
}

type filtersResult struct {
	Smart []filterEntry `json:"smart"`
	Tags  []filterEntry `json:"tags"`
}

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Show the smart filters and tag filters with their issue counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		selected := ctrl.Criteria().SelectedFilter.ID
		result := filtersResult{Smart: []filterEntry{}, Tags: []filterEntry{}}
		var smart, tags []render.SidebarEntry

		for _, f := range ctrl.SmartFilters() {
			n := ctrl.FilterCount(f)
			result.Smart = append(result.Smart, filterEntry{Filter: f, Count: n})
			smart = append(smart, render.SidebarEntry{Name: f.Name, Icon: f.Icon, Count: n, Selected: f.ID == selected})
		}
		// Tag rows count open issues, as the sidebar badge does.
		for _, t := range ctrl.Store().Tags() {
			f := model.TagFilter(t)
			n := len(ctrl.Store().ActiveIssues(t.ID))
			result.Tags = append(result.Tags, filterEntry{Filter: f, Count: n})
			tags = append(tags, render.SidebarEntry{Name: f.Name, Icon: f.Icon, Count: n, Selected: f.ID == selected})
		}

		jsonMode, _ := cmd.Flags().GetBool("json")
		var message string
		if !jsonMode {
			message = render.RenderSidebar(smart, tags)
		}
		w.Success(result, message)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filtersCmd)
}
