package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Add sample tags and issues",
	Long:  "Add 5 sample tags with 10 issues each, with random priorities and completion.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		ctrl := getCtrl(cmd)

		seed, _ := cmd.Flags().GetInt64("seed")
		if !cmd.Flags().Changed("seed") {
			seed = time.Now().UnixNano()
		}

		beforeIssues, beforeTags := ctrl.Store().CountIssues(), ctrl.Store().CountTags()
		ctrl.CreateSampleData(rand.New(rand.NewSource(seed)))
		s := ctrl.Store()

		w.Success(struct {
			Issues int `json:"issues_created"`
			Tags   int `json:"tags_created"`
		}{
			Issues: s.CountIssues() - beforeIssues,
			Tags:   s.CountTags() - beforeTags,
		}, fmt.Sprintf("Created %d sample issues in %d tags", s.CountIssues()-beforeIssues, s.CountTags()-beforeTags))
		return nil
	},
}

func init() {
	sampleCmd.Flags().Int64("seed", 0, "Random seed for reproducible sample data")
	rootCmd.AddCommand(sampleCmd)
}
