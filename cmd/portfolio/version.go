package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/portfolio/internal/db"
	"github.com/ALT-F4-LLC/portfolio/internal/render"
	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	BuildDate     string `json:"build_date"`
	GoVersion     string `json:"go_version"`
	SchemaVersion int    `json:"schema_version"`
}

// buildVersion reports the linker-set version, filling commit and date from
// the module's VCS stamp when the linker left the defaults.
func buildVersion(info *debug.BuildInfo) versionInfo {
	v := versionInfo{
		Version:       version,
		Commit:        commit,
		BuildDate:     buildDate,
		GoVersion:     runtime.Version(),
		SchemaVersion: db.LatestSchemaVersion(),
	}
	if info == nil {
		return v
	}

	if v.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && v.Commit == "none":
			v.Commit = s.Value
			if len(v.Commit) > 12 {
				v.Commit = v.Commit[:12]
			}
		case s.Key == "vcs.time" && v.BuildDate == "unknown":
			v.BuildDate = s.Value
		}
	}
	return v
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print portfolio version information",
	Annotations: map[string]string{"skipDB": "true"},
	Run: func(cmd *cobra.Command, args []string) {
		w := getWriter(cmd)

		info, _ := debug.ReadBuildInfo()
		v := buildVersion(info)

		bold := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		msg := fmt.Sprintf("portfolio %s %s",
			render.StyledText(v.Version, bold),
			render.StyledText(fmt.Sprintf("(commit: %s, built: %s, %s, schema v%d)", v.Commit, v.BuildDate, v.GoVersion, v.SchemaVersion), dim),
		)
		w.Success(v, msg)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
