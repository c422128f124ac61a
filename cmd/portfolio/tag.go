package main

import (
	"fmt"
	"strings"

	"github.com/ALT-F4-LLC/portfolio/internal/app"
	"github.com/ALT-F4-LLC/portfolio/internal/db"
	"github.com/ALT-F4-LLC/portfolio/internal/model"
	"github.com/ALT-F4-LLC/portfolio/internal/output"
	"github.com/ALT-F4-LLC/portfolio/internal/render"
	"github.com/spf13/cobra"
)

type tagView struct {
	model.Tag
	Issues int `json:"issues"`
	Open   int `json:"open"`
}

func tagRows(ctrl *app.Controller, tags []model.Tag) []render.TagRow {
	rows := make([]render.TagRow, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, render.TagRow{
			Tag:    t,
			Issues: len(ctrl.Store().TagIssues(t.ID)),
			Open:   len(ctrl.Store().ActiveIssues(t.ID)),
		})
	}
	return rows
}

func tagViews(rows []render.TagRow) []tagView {
	views := make([]tagView, 0, len(rows))
	for _, r := range rows {
		views = append(views, tagView{Tag: r.Tag, Issues: r.Issues, Open: r.Open})
	}
	return views
}

var tagCmd = &cobra.Command{
	Use:     "tag",
	Short:   "Manage tags",
	Aliases: []string{"t"},
}

var tagNewCmd = &cobra.Command{
	Use:     "new [name]",
	Short:   "Create a tag",
	Aliases: []string{"create"},
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		tag := ctrl.NewTag()
		if len(args) == 1 {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return cmdErr(fmt.Errorf("tag name must not be empty"), output.ErrValidation)
			}
			var err error
			if tag, err = ctrl.RenameTag(tag.ID, name); err != nil {
				return lookupErr(err, "tag", tag.ID)
			}
		}

		w.Success(tag, fmt.Sprintf("Created tag %s (%s)", tag.Name, tag.ShortID()))
		return nil
	},
}

var tagListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List tags with their issue counts",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		sess := getSession(cmd)
		ctrl := sess.ctrl

		var rows []render.TagRow
		if stored, _ := cmd.Flags().GetBool("stored"); stored {
			ctrl.SaveNow()
			counted, err := db.ListTags(sess.durable.DB())
			if err != nil {
				return cmdErr(fmt.Errorf("listing tags: %w", err), output.ErrStorage)
			}
			rows = make([]render.TagRow, 0, len(counted))
			for _, tc := range counted {
				rows = append(rows, render.TagRow{Tag: tc.Tag, Issues: tc.IssueCount, Open: tc.OpenCount})
			}
		} else {
			rows = tagRows(ctrl, ctrl.Store().Tags())
		}

		jsonMode, _ := cmd.Flags().GetBool("json")
		var message string
		if !jsonMode {
			message = render.RenderTagTable(rows)
		}
		w.Success(tagViews(rows), message)
		return nil
	},
}

var tagRenameCmd = &cobra.Command{
	Use:   "rename [tag] [name]",
	Short: "Rename a tag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		tag, err := resolveTag(ctrl, args[0])
		if err != nil {
			return err
		}
		name := strings.TrimSpace(args[1])
		if name == "" {
			return cmdErr(fmt.Errorf("tag name must not be empty"), output.ErrValidation)
		}

		old := tag.Name
		if tag, err = ctrl.RenameTag(tag.ID, name); err != nil {
			return lookupErr(err, "tag", args[0])
		}

		w.Success(tag, fmt.Sprintf("Renamed tag %s to %s", old, tag.Name))
		return nil
	},
}

var tagDeleteCmd = &cobra.Command{
	Use:     "delete [tag]",
	Short:   "Delete a tag; its issues are kept",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		tag, err := resolveTag(ctrl, args[0])
		if err != nil {
			return err
		}
		detached := len(ctrl.Store().TagIssues(tag.ID))
		if err := ctrl.Delete(tag); err != nil {
			return lookupErr(err, "tag", args[0])
		}

		w.Success(struct {
			ID       string `json:"id"`
			Deleted  bool   `json:"deleted"`
			Detached int    `json:"detached_issues"`
		}{ID: tag.ID, Deleted: true, Detached: detached}, fmt.Sprintf("Deleted tag %s", tag.Name))
		if detached > 0 {
			w.Info("%d issue(s) no longer carry the tag", detached)
		}
		return nil
	},
}

var tagSuggestCmd = &cobra.Command{
	Use:   "suggest [#text]",
	Short: "Suggest tags for a search that starts with #",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		ctrl.SetCriteria(func(c *model.FilterCriteria) { c.FreeText = args[0] })
		tags := ctrl.SuggestedTags()
		if tags == nil {
			tags = []model.Tag{}
		}

		jsonMode, _ := cmd.Flags().GetBool("json")
		var message string
		if !jsonMode {
			if len(tags) == 0 && !strings.HasPrefix(args[0], "#") {
				message = render.EmptyState("No suggestions.", "Start the search with # to match tag names", w.QuietMode)
			} else {
				message = render.RenderTagTable(tagRows(ctrl, tags))
			}
		}
		w.Success(tags, message)
		return nil
	},
}

func init() {
	tagListCmd.Flags().Bool("stored", false, "Count issues in the database instead of the loaded issues")
	tagCmd.AddCommand(tagNewCmd, tagListCmd, tagRenameCmd, tagDeleteCmd, tagSuggestCmd)
	rootCmd.AddCommand(tagCmd)
}
