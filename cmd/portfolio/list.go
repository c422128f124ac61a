package main

import (
	"fmt"

	"github.com/ALT-F4-LLC/portfolio/internal/db"
	"github.com/ALT-F4-LLC/portfolio/internal/model"
	"github.com/ALT-F4-LLC/portfolio/internal/output"
	"github.com/ALT-F4-LLC/portfolio/internal/query"
	"github.com/ALT-F4-LLC/portfolio/internal/render"
	"github.com/spf13/cobra"
)

type listResult struct {
	Criteria model.FilterCriteria `json:"criteria"`
	Issues   []model.Issue        `json:"issues"`
	Matched  int                  `json:"matched"`
	Total    int                  `json:"total"`
}

var issueListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List issues matching the selected filter and criteria",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		sess := getSession(cmd)
		ctrl := sess.ctrl

		filter, _ := cmd.Flags().GetString("filter")
		tagRef, _ := cmd.Flags().GetString("tag")
		search, _ := cmd.Flags().GetString("search")
		tokens, _ := cmd.Flags().GetStringSlice("token")
		filtersOn, _ := cmd.Flags().GetBool("filters")
		priorityFlag, _ := cmd.Flags().GetString("priority")
		statusFlag, _ := cmd.Flags().GetString("status")
		sortFlag, _ := cmd.Flags().GetString("sort")
		oldestFirst, _ := cmd.Flags().GetBool("oldest-first")
		stored, _ := cmd.Flags().GetBool("stored")

		switch {
		case tagRef != "":
			tag, err := resolveTag(ctrl, tagRef)
			if err != nil {
				return err
			}
			if err := ctrl.SelectTagFilter(tag.ID); err != nil {
				return lookupErr(err, "tag", tagRef)
			}
		case filter == "recent":
			ctrl.SelectRecentFilter()
		case filter == "all":
			ctrl.SelectAllFilter()
		default:
			return cmdErr(fmt.Errorf("invalid filter %q: must be all or recent", filter), output.ErrValidation)
		}

		tokenIDs := make([]string, 0, len(tokens))
		for _, ref := range tokens {
			tag, err := resolveTag(ctrl, ref)
			if err != nil {
				return err
			}
			tokenIDs = append(tokenIDs, tag.ID)
		}

		priority := model.PriorityAny
		if priorityFlag != "any" {
			p, err := model.ParsePriority(priorityFlag)
			if err != nil {
				return cmdErr(err, output.ErrValidation)
			}
			priority = p
		}
		status, err := model.ParseStatus(statusFlag)
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}
		sortKey, err := model.ParseSortKey(sortFlag)
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		ctrl.SetCriteria(func(c *model.FilterCriteria) {
			c.FreeText = search
			c.TagTokens = tokenIDs
			c.FiltersEnabled = filtersOn || cmd.Flags().Changed("priority") || cmd.Flags().Changed("status")
			c.PriorityFilter = priority
			c.StatusFilter = status
			c.SortKey = sortKey
			c.SortDescending = !oldestFirst
		})
		criteria := ctrl.Criteria()

		var (
			issues []model.Issue
			total  int
		)
		if stored {
			issues, err = db.ListIssues(sess.durable.DB(), query.Build(criteria), criteria.SortKey, criteria.SortDescending)
			if err != nil {
				return cmdErr(fmt.Errorf("listing issues: %w", err), output.ErrStorage)
			}
			if total, err = db.CountIssues(sess.durable.DB(), query.All()); err != nil {
				return cmdErr(fmt.Errorf("counting issues: %w", err), output.ErrStorage)
			}
		} else {
			issues = ctrl.Query()
			total = ctrl.Store().CountIssues()
		}
		if issues == nil {
			issues = []model.Issue{}
		}

		jsonMode, _ := cmd.Flags().GetBool("json")
		var message string
		if !jsonMode {
			message = render.RenderIssueTable(issues, tagNamer(ctrl))
			if len(issues) > 0 && len(issues) < total {
				message += fmt.Sprintf("\n%d of %d issues", len(issues), total)
			}
		}
		w.Success(listResult{Criteria: criteria, Issues: issues, Matched: len(issues), Total: total}, message)
		return nil
	},
}

func init() {
	issueListCmd.Flags().StringP("filter", "f", "all", "Smart filter: all or recent")
	issueListCmd.Flags().String("tag", "", "Only issues related to this tag (name or ID)")
	issueListCmd.Flags().StringP("search", "s", "", "Case-insensitive text to find in title or content")
	issueListCmd.Flags().StringSlice("token", nil, "Require any of these tags (repeatable)")
	issueListCmd.Flags().Bool("filters", false, "Apply the priority and status filters")
	issueListCmd.Flags().StringP("priority", "p", "any", "Priority filter: any, low, medium, high or 0-2")
	issueListCmd.Flags().String("status", "all", "Status filter: all, open or closed")
	issueListCmd.Flags().String("sort", "created", "Sort by created or modified date")
	issueListCmd.Flags().Bool("oldest-first", false, "Sort ascending instead of newest first")
	issueListCmd.Flags().Bool("stored", false, "Query the database directly instead of the loaded issues")
	issueCmd.AddCommand(issueListCmd)
}
