package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ALT-F4-LLC/portfolio/internal/config"
	"github.com/ALT-F4-LLC/portfolio/internal/db"
	"github.com/ALT-F4-LLC/portfolio/internal/model"
	"github.com/ALT-F4-LLC/portfolio/internal/output"
	"github.com/ALT-F4-LLC/portfolio/internal/store"
)

// run executes the CLI with args and returns the exit code.
func run(t *testing.T, args ...string) int {
	t.Helper()
	current = nil
	rootCmd.SetArgs(append(args, "--quiet"))
	return Execute()
}

func storedSnapshot(t *testing.T, dir string) *model.Snapshot {
	t.Helper()
	conn, err := db.Open(filepath.Join(dir, "portfolio.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer conn.Close()
	snap, err := db.NewDurable(conn).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return snap
}

func TestCommandsRequireDatabase(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("PORTFOLIO_PATH", t.TempDir())

	if code := run(t, "tag", "list"); code != output.ExitNotFound {
		t.Errorf("exit code = %d, want %d", code, output.ExitNotFound)
	}
}

func TestSessionLifecycle(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	dir := t.TempDir()
	t.Setenv("PORTFOLIO_PATH", dir)

	if code := run(t, "init"); code != 0 {
		t.Fatalf("init exit code = %d", code)
	}
	// A second init keeps the existing database.
	if code := run(t, "init"); code != 0 {
		t.Fatalf("repeated init exit code = %d", code)
	}
	if code := run(t, "sample", "--seed", "7"); code != 0 {
		t.Fatalf("sample exit code = %d", code)
	}

	snap := storedSnapshot(t, dir)
	if len(snap.Issues) != 50 || len(snap.Tags) != 5 {
		t.Fatalf("stored %d issues / %d tags, want 50 / 5", len(snap.Issues), len(snap.Tags))
	}

	if code := run(t, "issue", "show", "no-such-issue"); code != output.ExitNotFound {
		t.Errorf("show missing exit code = %d, want %d", code, output.ExitNotFound)
	}

	// Debounced edits are flushed when the command finishes.
	target := snap.Issues[0]
	if code := run(t, "issue", "edit", target.ID, "--title", "Edited from the CLI"); code != 0 {
		t.Fatalf("edit exit code = %d", code)
	}
	for _, i := range storedSnapshot(t, dir).Issues {
		if i.ID == target.ID && i.Title != "Edited from the CLI" {
			t.Errorf("stored title = %q, want the edit", i.Title)
		}
	}

	if code := run(t, "reset"); code != output.ExitValidation {
		t.Errorf("reset without --force exit code = %d, want %d", code, output.ExitValidation)
	}
	if code := run(t, "reset", "--force"); code != 0 {
		t.Fatalf("reset exit code = %d", code)
	}
	snap = storedSnapshot(t, dir)
	if len(snap.Issues) != 0 || len(snap.Tags) != 0 {
		t.Errorf("stored %d issues / %d tags after reset, want 0 / 0", len(snap.Issues), len(snap.Tags))
	}
}

func TestReadCommands(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	dir := t.TempDir()
	t.Setenv("PORTFOLIO_PATH", dir)

	if code := run(t, "init"); code != 0 {
		t.Fatalf("init exit code = %d", code)
	}
	if code := run(t, "sample", "--seed", "11"); code != 0 {
		t.Fatalf("sample exit code = %d", code)
	}

	for _, args := range [][]string{
		{"issue", "list"},
		{"issue", "list", "--stored", "--status", "open", "--sort", "modified"},
		{"tag", "list"},
		{"tag", "suggest", "#a"},
		{"filters"},
		{"awards"},
		{"stats"},
		{"config"},
		{"watch", "--timeout", "50ms"},
	} {
		if code := run(t, args...); code != 0 {
			t.Errorf("%v exit code = %d", args, code)
		}
	}

	issue := storedSnapshot(t, dir).Issues[0]
	for _, args := range [][]string{
		{"issue", "show", issue.ID, "--stored"},
		{"tag", "list", "--stored"},
		{"version"},
	} {
		if code := run(t, args...); code != 0 {
			t.Errorf("%v exit code = %d", args, code)
		}
	}

	if code := run(t, "issue", "list", "--status", "done"); code != output.ExitValidation {
		t.Errorf("invalid status exit code = %d, want %d", code, output.ExitValidation)
	}
}

func TestLookupErr(t *testing.T) {
	tests := []struct {
		err  error
		code output.ErrorCode
	}{
		{fmt.Errorf("wrapped: %w", store.ErrNotFound), output.ErrNotFound},
		{store.ErrAmbiguous, output.ErrConflict},
		{errors.New("boom"), output.ErrGeneral},
	}
	for _, tt := range tests {
		if got := lookupErr(tt.err, "issue", "abcd"); got.Code != tt.code {
			t.Errorf("lookupErr(%v).Code = %s, want %s", tt.err, got.Code, tt.code)
		}
	}
}

func TestReadContent(t *testing.T) {
	got, err := readContent("plain text")
	if err != nil || got != "plain text" {
		t.Errorf("readContent = %q, %v", got, err)
	}
}

func TestFormatConfigHuman(t *testing.T) {
	info := configInfo{
		DBPath:       "/data/portfolio.db",
		DBSizeBytes:  2048,
		SettingsPath: "/data/settings.yaml",
		Settings: &config.Settings{
			SaveDelay:    3 * time.Second,
			RecentWindow: 168 * time.Hour,
		},
	}

	got := formatConfigHuman(info, false)
	for _, want := range []string{"2.0 kB", "Save delay:      3s", "Recent window:   168h0m0s", "PORTFOLIO_PATH:  (not set)"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in:\n%s", want, got)
		}
	}

	got = formatConfigHuman(info, true)
	if !strings.Contains(got, "(not found)") || strings.Contains(got, "Schema version") {
		t.Errorf("not-found config rendered wrong:\n%s", got)
	}
}
