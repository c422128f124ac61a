package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/portfolio/internal/db"
	"github.com/ALT-F4-LLC/portfolio/internal/output"
	"github.com/ALT-F4-LLC/portfolio/internal/render"
	"github.com/spf13/cobra"
)

type initResult struct {
	Path          string `json:"path"`
	DBPath        string `json:"db_path"`
	SettingsPath  string `json:"settings_path"`
	SchemaVersion int    `json:"schema_version"`
	Created       bool   `json:"created"`
}

var initCmd = &cobra.Command{
	Use:         "init",
	Short:       "Initialize a new portfolio database",
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		cfg := getCfg(cmd)

		conn, created, err := db.Create(cfg.DataDir, cfg.DBPath)
		if err != nil {
			return cmdErr(err, output.ErrStorage)
		}
		defer conn.Close()

		schemaVersion, err := db.SchemaVersion(conn)
		if err != nil {
			return cmdErr(fmt.Errorf("reading schema version: %w", err), output.ErrStorage)
		}
		result := initResult{
			Path:          cfg.DataDir,
			DBPath:        cfg.DBPath,
			SettingsPath:  cfg.SettingsPath,
			SchemaVersion: schemaVersion,
			Created:       created,
		}

		if !created {
			w.Warn("Database already exists at %s", cfg.DBPath)
			msg := render.StyledText("Database already initialized", lipgloss.NewStyle().Foreground(lipgloss.Color("3")))
			w.Success(result, msg)
			return nil
		}

		if err := cfg.WriteDefaultSettings(); err != nil {
			return cmdErr(err, output.ErrGeneral)
		}

		successMsg := render.StyledText("Initialized portfolio database", lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")))
		w.Success(result, successMsg)

		w.Info("Database created at %s", cfg.DBPath)
		w.Info("Settings written to %s", cfg.SettingsPath)
		w.Info("Try it out with: portfolio sample")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
