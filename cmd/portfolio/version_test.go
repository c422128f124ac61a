package main

import (
	"runtime/debug"
	"testing"

	"github.com/ALT-F4-LLC/portfolio/internal/db"
)

func TestBuildVersionFromVCS(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2025-01-02T03:04:05Z"},
		},
	}

	v := buildVersion(info)
	if v.Version != "v1.2.3" {
		t.Errorf("Version = %q, want v1.2.3", v.Version)
	}
	if v.Commit != "0123456789ab" {
		t.Errorf("Commit = %q, want the short revision", v.Commit)
	}
	if v.BuildDate != "2025-01-02T03:04:05Z" {
		t.Errorf("BuildDate = %q", v.BuildDate)
	}
	if v.SchemaVersion != db.LatestSchemaVersion() {
		t.Errorf("SchemaVersion = %d, want %d", v.SchemaVersion, db.LatestSchemaVersion())
	}
}

func TestBuildVersionWithoutBuildInfo(t *testing.T) {
	v := buildVersion(nil)
	if v.Version != version || v.Commit != commit || v.BuildDate != buildDate {
		t.Errorf("buildVersion(nil) = %+v, want the linker values", v)
	}
	if v.GoVersion == "" {
		t.Error("GoVersion should be set")
	}
}

func TestBuildVersionIgnoresDevelModule(t *testing.T) {
	v := buildVersion(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if v.Version != version {
		t.Errorf("Version = %q, want %q", v.Version, version)
	}
}
