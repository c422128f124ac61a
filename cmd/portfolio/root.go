package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/ALT-F4-LLC/portfolio/internal/app"
	"github.com/ALT-F4-LLC/portfolio/internal/award"
	"github.com/ALT-F4-LLC/portfolio/internal/config"
	"github.com/ALT-F4-LLC/portfolio/internal/db"
	"github.com/ALT-F4-LLC/portfolio/internal/output"
	"github.com/ALT-F4-LLC/portfolio/internal/store"
	remotesync "github.com/ALT-F4-LLC/portfolio/internal/sync"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type contextKey string

const (
	cfgKey     contextKey = "cfg"
	sessionKey contextKey = "session"
	writerKey  contextKey = "writer"
)

func cmdErr(err error, code output.ErrorCode) *output.Error {
	return output.Wrap(err, code)
}

// session is everything a command needs once the database is open.
type session struct {
	conn       *sql.DB
	durable    *db.Durable
	ctrl       *app.Controller
	reconciler *remotesync.Reconciler

	once sync.Once
	err  error
}

// close flushes outstanding edits and releases the database. Safe to call
// more than once.
func (s *session) close() error {
	s.once.Do(func() {
		s.err = errors.Join(s.ctrl.Close(), s.conn.Close())
	})
	return s.err
}

// current is the open session, closed by Execute even when a command fails.
var current *session

func openSession(cfg *config.Config, settings *config.Settings, w *output.Writer) (*session, error) {
	awards := award.Builtin()
	if settings.AwardsFile != "" {
		loaded, err := award.LoadFile(settings.AwardsFile)
		if err != nil {
			return nil, cmdErr(fmt.Errorf("loading awards: %w", err), output.ErrValidation)
		}
		awards = loaded
	}

	conn, err := db.OpenExisting(cfg.DBPath)
	if err != nil {
		if errors.Is(err, db.ErrNoDatabase) {
			return nil, cmdErr(
				fmt.Errorf("no portfolio database found, run 'portfolio init' to create one"),
				output.ErrNotFound,
			)
		}
		return nil, cmdErr(fmt.Errorf("failed to open database: %w", err), output.ErrStorage)
	}

	durable := db.NewDurable(conn)
	snap, err := durable.Load()
	if err != nil {
		conn.Close()
		return nil, cmdErr(fmt.Errorf("loading data: %w", err), output.ErrStorage)
	}

	s := store.New()
	s.Load(snap)

	onError := w.SaveErrorHandler()
	r := remotesync.New(s, durable, cfg.DBPath, remotesync.WithErrorHandler(onError))
	ctrl := app.New(s, durable, r, app.Options{
		SaveDelay:    settings.SaveDelay,
		RecentWindow: settings.RecentWindow,
		Awards:       awards,
		OnError:      onError,
	})

	return &session{conn: conn, durable: durable, ctrl: ctrl, reconciler: r}, nil
}

var rootCmd = &cobra.Command{
	Use:     "portfolio",
	Short:   "Local-first personal issue tracker",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Resolve()
		if err != nil {
			return err
		}

		w := newWriter(cmd)
		ctx := context.WithValue(context.WithValue(cmd.Context(), cfgKey, cfg), writerKey, w)
		cmd.SetContext(ctx)

		if _, ok := cmd.Annotations["skipDB"]; ok {
			return nil
		}

		settings, err := cfg.LoadSettings()
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		sess, err := openSession(cfg, settings, w)
		if err != nil {
			return err
		}
		current = sess

		cmd.SetContext(context.WithValue(ctx, sessionKey, sess))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		sess, ok := cmd.Context().Value(sessionKey).(*session)
		if ok && sess != nil {
			return sess.close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-essential output")
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func newWriter(cmd *cobra.Command) *output.Writer {
	jsonMode, _ := cmd.Flags().GetBool("json")
	quietMode, _ := cmd.Flags().GetBool("quiet")
	return output.New(jsonMode, quietMode)
}

// getWriter returns the command's writer. The session reports background
// save failures through the same writer, so they reach the command's
// envelope.
func getWriter(cmd *cobra.Command) *output.Writer {
	if w, ok := cmd.Context().Value(writerKey).(*output.Writer); ok {
		return w
	}
	return newWriter(cmd)
}

func getCfg(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(cfgKey).(*config.Config)
	return cfg
}

func getSession(cmd *cobra.Command) *session {
	sess, _ := cmd.Context().Value(sessionKey).(*session)
	return sess
}

func getCtrl(cmd *cobra.Command) *app.Controller {
	return getSession(cmd).ctrl
}

// Execute runs the root command and returns an exit code.
func Execute() int {
	cmd, err := rootCmd.ExecuteC()
	if current != nil {
		if cerr := current.close(); err == nil && cerr != nil {
			err = cmdErr(fmt.Errorf("closing database: %w", cerr), output.ErrStorage)
		}
	}
	if err == nil {
		return output.ExitSuccess
	}

	// Flag parsing can fail before any context is set.
	w := newWriter(rootCmd)
	if cmd != nil && cmd.Context() != nil {
		w = getWriter(cmd)
	}
	return w.Fail(err)
}

// lookupErr classifies errors from store lookups and mutations.
func lookupErr(err error, what, ref string) *output.Error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return cmdErr(fmt.Errorf("%s %s not found", what, ref), output.ErrNotFound)
	case errors.Is(err, store.ErrAmbiguous):
		return cmdErr(fmt.Errorf("%s %q matches more than one %s, use a longer ID", what, ref, what), output.ErrConflict)
	default:
		return cmdErr(err, output.ErrGeneral)
	}
}
