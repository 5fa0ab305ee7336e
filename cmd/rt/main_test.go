package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(out, "rt dev") {
		t.Errorf("expected output to contain 'rt dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	for _, want := range []string{"rt 1.0.0", "commit: abc123", "built: 2026-01-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
}

func TestRootCmdHelp(t *testing.T) {
	out, err := runCmd(t, "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}
	for _, want := range []string{"Roundtable", "serve", "roles", "doc"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected help output to contain %q, got: %s", want, out)
		}
	}
}

func TestRolesCmd(t *testing.T) {
	out, err := runCmd(t, "roles")
	if err != nil {
		t.Fatalf("roles command failed: %v", err)
	}
	if !strings.Contains(out, "jarvis") {
		t.Errorf("expected roles output to list jarvis, got: %s", out)
	}
	if !strings.Contains(out, "(moderator)") {
		t.Errorf("expected roles output to flag the moderator, got: %s", out)
	}
}

func TestDBMigrateCmd(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "roundtable.yaml")
	dbPath := filepath.Join(dir, "test.db")
	cfg := "database:\n  driver: sqlite\n  path: " + dbPath + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "db", "migrate", "--config", cfgPath)
	if err != nil {
		t.Fatalf("db migrate failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Migrated sqlite database") {
		t.Errorf("unexpected output: %s", out)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestDocListCmd_Empty(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "roundtable.yaml")
	cfg := "database:\n  driver: sqlite\n  path: " + filepath.Join(dir, "test.db") + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCmd(t, "db", "migrate", "--config", cfgPath); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "doc", "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("doc list failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "No documents.") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestLoadConfig_DefaultPathMissing(t *testing.T) {
	dir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(orig)

	cfg, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("missing default config should fall back to defaults: %v", err)
	}
	if cfg.Moderator != "jarvis" {
		t.Errorf("Moderator = %q, want jarvis", cfg.Moderator)
	}
}
