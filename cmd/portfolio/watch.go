package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ALT-F4-LLC/portfolio/internal/output"
	"github.com/ALT-F4-LLC/portfolio/internal/store"
	"github.com/spf13/cobra"
)

type watchResult struct {
	Refreshes int `json:"refreshes"`
	Issues    int `json:"issues"`
	Tags      int `json:"tags"`
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes other processes make to the database",
	Long: `Watch the database for writes from other portfolio processes and merge
them into the loaded issues until interrupted. Uncommitted local edits are
never overwritten by a merge.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		sess := getSession(cmd)
		ctrl := sess.ctrl

		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		events, unsubscribe := ctrl.Subscribe()
		defer unsubscribe()

		if err := sess.reconciler.Start(ctx); err != nil {
			return cmdErr(fmt.Errorf("watching database: %w", err), output.ErrStorage)
		}
		w.Info("Watching %s (Ctrl-C to stop)", getCfg(cmd).DBPath)

		s := ctrl.Store()
		refreshes := 0
		for {
			select {
			case e := <-events:
				if e != store.EventStale {
					continue
				}
				refreshes++
				w.Info("%s reloaded: %d issues, %d tags", time.Now().Format(time.TimeOnly), s.CountIssues(), s.CountTags())
			case <-ctx.Done():
				w.Success(watchResult{
					Refreshes: refreshes,
					Issues:    s.CountIssues(),
					Tags:      s.CountTags(),
				}, fmt.Sprintf("Stopped watching after %d reload(s)", refreshes))
				return nil
			}
		}
	},
}

func init() {
	watchCmd.Flags().Duration("timeout", 0, "Stop watching after this long (0 watches until interrupted)")
	rootCmd.AddCommand(watchCmd)
}
