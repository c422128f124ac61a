package main

import (
	"fmt"
	"os"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/ALT-F4-LLC/portfolio/internal/config"
	"github.com/ALT-F4-LLC/portfolio/internal/db"
	"github.com/ALT-F4-LLC/portfolio/internal/output"
	"github.com/spf13/cobra"
)

type configInfo struct {
	DBPath           string           `json:"db_path"`
	DBSizeBytes      int64            `json:"db_size_bytes"`
	SchemaVersion    int              `json:"schema_version"`
	SettingsPath     string           `json:"settings_path"`
	Settings         *config.Settings `json:"settings"`
	PortfolioPathEnv string           `json:"portfolio_path_env"`
	PortfolioPathSet bool             `json:"portfolio_path_set"`
}

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Display portfolio configuration",
	Annotations: map[string]string{"skipDB": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		cfg := getCfg(cmd)

		settings, err := cfg.LoadSettings()
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		info := configInfo{
			DBPath:           cfg.DBPath,
			SettingsPath:     cfg.SettingsPath,
			Settings:         settings,
			PortfolioPathEnv: os.Getenv("PORTFOLIO_PATH"),
			PortfolioPathSet: cfg.EnvVarSet,
		}

		exists, err := cfg.Exists()
		if err != nil {
			return cmdErr(fmt.Errorf("checking database: %w", err), output.ErrGeneral)
		}

		if !exists {
			w.Warn("No portfolio database found. Run 'portfolio init' to create one.")
			w.Success(info, formatConfigHuman(info, true))
			return nil
		}

		conn, err := db.Open(cfg.DBPath)
		if err != nil {
			return cmdErr(fmt.Errorf("opening database: %w", err), output.ErrStorage)
		}
		defer conn.Close()

		info.SchemaVersion, err = db.SchemaVersion(conn)
		if err != nil {
			return cmdErr(fmt.Errorf("reading schema version: %w", err), output.ErrStorage)
		}

		info.DBSizeBytes, err = db.Size(cfg.DBPath)
		if err != nil {
			return cmdErr(err, output.ErrGeneral)
		}

		w.Success(info, formatConfigHuman(info, false))
		return nil
	},
}

func formatEnvValue(val string) string {
	if val == "" {
		return "(not set)"
	}
	return val
}

func formatConfigHuman(info configInfo, notFound bool) string {
	var b strings.Builder

	dbPath := info.DBPath
	if notFound {
		dbPath = fmt.Sprintf("%s (not found)", info.DBPath)
	}

	fmt.Fprintf(&b, "Database path:   %s\n", dbPath)
	if !notFound {
		fmt.Fprintf(&b, "Database size:   %s\n", humanize.Bytes(uint64(info.DBSizeBytes)))
		fmt.Fprintf(&b, "Schema version:  %d\n", info.SchemaVersion)
	}
	fmt.Fprintf(&b, "Settings path:   %s\n", info.SettingsPath)
	fmt.Fprintf(&b, "Save delay:      %s\n", info.Settings.SaveDelay)
	fmt.Fprintf(&b, "Recent window:   %s\n", info.Settings.RecentWindow)
	fmt.Fprintf(&b, "Awards file:     %s\n", formatEnvValue(info.Settings.AwardsFile))
	fmt.Fprintf(&b, "PORTFOLIO_PATH:  %s", formatEnvValue(info.PortfolioPathEnv))

	return b.String()
}

func init() {
	rootCmd.AddCommand(configCmd)
}
