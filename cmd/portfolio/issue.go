package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ALT-F4-LLC/portfolio/internal/app"
	"github.com/ALT-F4-LLC/portfolio/internal/db"
	"github.com/ALT-F4-LLC/portfolio/internal/model"
	"github.com/ALT-F4-LLC/portfolio/internal/output"
	"github.com/ALT-F4-LLC/portfolio/internal/render"
	"github.com/spf13/cobra"
)

// issueView is the JSON shape of a single issue with its tags resolved.
type issueView struct {
	model.Issue
	Tags []model.Tag `json:"tags"`
}

func viewIssue(ctrl *app.Controller, issue model.Issue) issueView {
	tags := ctrl.Store().IssueTags(issue.ID)
	if tags == nil {
		tags = []model.Tag{}
	}
	return issueView{Issue: issue, Tags: tags}
}

func resolveIssue(ctrl *app.Controller, ref string) (model.Issue, error) {
	issue, err := ctrl.Store().ResolveIssue(ref)
	if err != nil {
		return model.Issue{}, lookupErr(err, "issue", ref)
	}
	return issue, nil
}

func resolveTag(ctrl *app.Controller, ref string) (model.Tag, error) {
	tag, err := ctrl.Store().ResolveTag(ref)
	if err != nil {
		return model.Tag{}, lookupErr(err, "tag", ref)
	}
	return tag, nil
}

// storedIssue reads an issue and its tags from the database as last saved.
func storedIssue(sess *session, id string) (issueView, error) {
	issue, err := db.GetIssue(sess.durable.DB(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return issueView{}, cmdErr(fmt.Errorf("issue %s has not been saved", id), output.ErrNotFound)
		}
		return issueView{}, cmdErr(fmt.Errorf("reading issue: %w", err), output.ErrStorage)
	}

	tags := make([]model.Tag, 0, len(issue.TagIDs))
	for _, tagID := range issue.TagIDs {
		tag, err := db.GetTag(sess.durable.DB(), tagID)
		if err != nil {
			return issueView{}, cmdErr(fmt.Errorf("reading tag %s: %w", tagID, err), output.ErrStorage)
		}
		tags = append(tags, *tag)
	}
	model.SortTags(tags)
	return issueView{Issue: *issue, Tags: tags}, nil
}

// tagNamer resolves tag names through the live store.
func tagNamer(ctrl *app.Controller) render.TagNamer {
	return func(issue model.Issue) []string {
		return model.TagNames(ctrl.Store().IssueTags(issue.ID))
	}
}

// readContent returns the flag value, or stdin when the value is "-".
func readContent(value string) (string, error) {
	if value != "-" {
		return value, nil
	}
	const maxStdinSize = 1 << 20 // 1 MiB
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinSize))
	if err != nil {
		return "", fmt.Errorf("reading content from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// issueEdit collects the field flags shared by new and edit.
func issueEdit(cmd *cobra.Command) (func(*model.Issue), bool, error) {
	var edits []func(*model.Issue)

	if cmd.Flags().Changed("title") {
		title, _ := cmd.Flags().GetString("title")
		if strings.TrimSpace(title) == "" {
			return nil, false, cmdErr(fmt.Errorf("title must not be empty"), output.ErrValidation)
		}
		edits = append(edits, func(i *model.Issue) { i.Title = title })
	}

	if cmd.Flags().Changed("content") {
		raw, _ := cmd.Flags().GetString("content")
		content, err := readContent(raw)
		if err != nil {
			return nil, false, cmdErr(err, output.ErrGeneral)
		}
		edits = append(edits, func(i *model.Issue) { i.Content = content })
	}

	if cmd.Flags().Changed("priority") {
		raw, _ := cmd.Flags().GetString("priority")
		p, err := model.ParsePriority(raw)
		if err != nil {
			return nil, false, cmdErr(err, output.ErrValidation)
		}
		edits = append(edits, func(i *model.Issue) { i.Priority = p })
	}

	return func(i *model.Issue) {
		for _, e := range edits {
			e(i)
		}
	}, len(edits) > 0, nil
}

func addIssueFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("title", "t", "", "Issue title")
	cmd.Flags().StringP("content", "c", "", "Issue content in markdown (use - to read stdin)")
	cmd.Flags().StringP("priority", "p", "", "Priority: low, medium, high or 0-2")
}

var issueCmd = &cobra.Command{
	Use:     "issue",
	Short:   "Manage issues",
	Aliases: []string{"i"},
}

var issueNewCmd = &cobra.Command{
	Use:     "new",
	Short:   "Create an issue",
	Aliases: []string{"create"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		edit, changed, err := issueEdit(cmd)
		if err != nil {
			return err
		}

		if form, _ := cmd.Flags().GetBool("interactive"); form {
			if !interactive(w) {
				return cmdErr(fmt.Errorf("--interactive needs a terminal"), output.ErrValidation)
			}
			draft := model.Issue{Priority: model.PriorityMedium}
			edit(&draft)
			if err := issueForm(&draft); err != nil {
				if errors.Is(err, errCancelled) {
					w.Info("Cancelled.")
					return nil
				}
				return err
			}
			edit = func(i *model.Issue) {
				i.Title = draft.Title
				i.Content = draft.Content
				i.Priority = draft.Priority
			}
			changed = true
		}

		if ref, _ := cmd.Flags().GetString("tag"); ref != "" {
			tag, err := resolveTag(ctrl, ref)
			if err != nil {
				return err
			}
			if err := ctrl.SelectTagFilter(tag.ID); err != nil {
				return lookupErr(err, "tag", ref)
			}
		}

		issue, err := ctrl.NewIssue()
		if err != nil {
			return cmdErr(fmt.Errorf("creating issue: %w", err), output.ErrGeneral)
		}
		if changed {
			if issue, err = ctrl.EditIssue(issue.ID, edit); err != nil {
				return cmdErr(fmt.Errorf("editing issue: %w", err), output.ErrGeneral)
			}
			ctrl.SaveNow()
		}

		w.Success(viewIssue(ctrl, issue), fmt.Sprintf("Created issue %s: %s", issue.ShortID(), issue.Title))
		return nil
	},
}

var issueShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		issue, err := resolveIssue(ctrl, args[0])
		if err != nil {
			return err
		}
		if err := ctrl.Select(issue.ID); err != nil {
			return lookupErr(err, "issue", args[0])
		}

		view := viewIssue(ctrl, issue)
		if stored, _ := cmd.Flags().GetBool("stored"); stored {
			if view, err = storedIssue(getSession(cmd), issue.ID); err != nil {
				return err
			}
			issue = view.Issue
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		var message string
		if !jsonMode {
			message = render.RenderDetail(issue, view.Tags)
		}
		w.Success(view, message)
		return nil
	},
}

var issueEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit an issue's title, content or priority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		issue, err := resolveIssue(ctrl, args[0])
		if err != nil {
			return err
		}

		edit, changed, err := issueEdit(cmd)
		if err != nil {
			return err
		}
		if !changed {
			return cmdErr(fmt.Errorf("nothing to edit: pass --title, --content or --priority"), output.ErrValidation)
		}

		// Field edits are debounced; the save happens when the session closes.
		issue, err = ctrl.EditIssue(issue.ID, edit)
		if err != nil {
			return lookupErr(err, "issue", args[0])
		}

		w.Success(viewIssue(ctrl, issue), fmt.Sprintf("Updated issue %s", issue.ShortID()))
		return nil
	},
}

func setCompleted(done bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		issue, err := resolveIssue(ctrl, args[0])
		if err != nil {
			return err
		}

		if issue.Completed == done {
			if w.JSONMode {
				w.Success(viewIssue(ctrl, issue), "")
			} else {
				w.Info("Issue %s is already %s", issue.ShortID(), strings.ToLower(issue.StatusLabel()))
			}
			return nil
		}

		issue, err = ctrl.ToggleCompleted(issue.ID)
		if err != nil {
			return lookupErr(err, "issue", args[0])
		}

		verb := "Reopened"
		if done {
			verb = "Closed"
		}
		w.Success(viewIssue(ctrl, issue), fmt.Sprintf("%s issue %s", verb, issue.ShortID()))
		return nil
	}
}

var issueCloseCmd = &cobra.Command{
	Use:   "close [id]",
	Short: "Mark an issue as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  setCompleted(true),
}

var issueReopenCmd = &cobra.Command{
	Use:   "reopen [id]",
	Short: "Mark a completed issue as open",
	Args:  cobra.ExactArgs(1),
	RunE:  setCompleted(false),
}

var issueDeleteCmd = &cobra.Command{
	Use:     "delete [id]",
	Short:   "Delete an issue",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		issue, err := resolveIssue(ctrl, args[0])
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")
		if !force && interactive(w) {
			if err := confirm(fmt.Sprintf("Delete issue %s %q?", issue.ShortID(), issue.Title), "Delete"); err != nil {
				if errors.Is(err, errCancelled) {
					w.Info("Cancelled.")
					return nil
				}
				return err
			}
		}

		if err := ctrl.Delete(issue); err != nil {
			return lookupErr(err, "issue", args[0])
		}

		w.Success(struct {
			ID      string `json:"id"`
			Deleted bool   `json:"deleted"`
		}{ID: issue.ID, Deleted: true}, fmt.Sprintf("Deleted issue %s", issue.ShortID()))
		return nil
	},
}

var issueTagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Add or remove tags on an issue",
}

func changeTag(add bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		issue, err := resolveIssue(ctrl, args[0])
		if err != nil {
			return err
		}
		tag, err := resolveTag(ctrl, args[1])
		if err != nil {
			return err
		}

		msg := fmt.Sprintf("Tagged issue %s with %s", issue.ShortID(), tag.Name)
		if add {
			err = ctrl.AddTag(issue.ID, tag.ID)
		} else {
			err = ctrl.RemoveTag(issue.ID, tag.ID)
			msg = fmt.Sprintf("Removed tag %s from issue %s", tag.Name, issue.ShortID())
		}
		if err != nil {
			return lookupErr(err, "issue", args[0])
		}

		issue, _ = ctrl.Store().Issue(issue.ID)
		w.Success(viewIssue(ctrl, issue), msg)
		return nil
	}
}

var issueTagAddCmd = &cobra.Command{
	Use:   "add [id] [tag]",
	Short: "Relate an issue to a tag",
	Args:  cobra.ExactArgs(2),
	RunE:  changeTag(true),
}

var issueTagRemoveCmd = &cobra.Command{
	Use:     "remove [id] [tag]",
	Short:   "Remove a tag from an issue",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(2),
	RunE:    changeTag(false),
}

var issueMissingTagsCmd = &cobra.Command{
	Use:   "missing-tags [id]",
	Short: "List the tags an issue does not have",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		issue, err := resolveIssue(ctrl, args[0])
		if err != nil {
			return err
		}
		tags, err := ctrl.MissingTags(issue.ID)
		if err != nil {
			return lookupErr(err, "issue", args[0])
		}

		jsonMode, _ := cmd.Flags().GetBool("json")
		var message string
		if !jsonMode {
			message = render.RenderTagTable(tagRows(ctrl, tags))
		}
		w.Success(tags, message)
		return nil
	},
}

func init() {
	addIssueFieldFlags(issueNewCmd)
	issueNewCmd.Flags().String("tag", "", "Tag to relate the new issue to (name or ID)")
	issueNewCmd.Flags().BoolP("interactive", "i", false, "Fill in the issue with a form")
	issueDeleteCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")
	addIssueFieldFlags(issueEditCmd)
	issueShowCmd.Flags().Bool("stored", false, "Show the issue as last saved to the database")

	issueTagCmd.AddCommand(issueTagAddCmd, issueTagRemoveCmd)
	issueCmd.AddCommand(
		issueNewCmd,
		issueShowCmd,
		issueEditCmd,
		issueCloseCmd,
		issueReopenCmd,
		issueDeleteCmd,
		issueTagCmd,
		issueMissingTagsCmd,
	)
	rootCmd.AddCommand(issueCmd)
}
