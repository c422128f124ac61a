package main

import (
	"errors"
	"fmt"

	"github.com/ALT-F4-LLC/portfolio/internal/output"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every issue and tag",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			if !interactive(w) {
				return cmdErr(fmt.Errorf("reset deletes all data, pass --force to confirm"), output.ErrValidation)
			}
			if err := confirm("This will delete ALL issues and tags. Continue?", "Yes, delete everything"); err != nil {
				if errors.Is(err, errCancelled) {
					w.Info("Cancelled.")
					return nil
				}
				return err
			}
		}

		issues, tags := ctrl.Store().CountIssues(), ctrl.Store().CountTags()
		if err := ctrl.DeleteAll(); err != nil {
			return cmdErr(err, output.ErrStorage)
		}

		w.Success(struct {
			Issues int `json:"issues_deleted"`
			Tags   int `json:"tags_deleted"`
		}{Issues: issues, Tags: tags}, fmt.Sprintf("Deleted %d issues and %d tags", issues, tags))
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("force", false, "Confirm deleting all data")
	rootCmd.AddCommand(resetCmd)
}
