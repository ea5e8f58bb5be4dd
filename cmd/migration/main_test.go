package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSteps(t *testing.T) {
	if got, err := parseSteps(nil); err != nil || got != 1 {
		t.Fatalf("expected default of one step, got=%d err=%v", got, err)
	}
	if got, err := parseSteps([]string{" 3 "}); err != nil || got != 3 {
		t.Fatalf("unexpected steps got=%d err=%v", got, err)
	}
	for _, raw := range []string{"0", "-2", "many"} {
		if _, err := parseSteps([]string{raw}); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseVersionAndTarget(t *testing.T) {
	if got, err := parseVersion("1"); err != nil || got != 1 {
		t.Fatalf("unexpected version got=%d err=%v", got, err)
	}
	if _, err := parseVersion("-1"); err == nil {
		t.Fatalf("expected negative version error")
	}
	if got, err := parseTarget("12"); err != nil || got != 12 {
		t.Fatalf("unexpected target got=%d err=%v", got, err)
	}
	if _, err := parseTarget("v2"); err == nil {
		t.Fatalf("expected invalid target error")
	}
}

func TestResolveMigrationsDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MIGRATIONS_DIR", "")

	got, err := resolveMigrationsDir(dir)
	if err != nil {
		t.Fatalf("resolve explicit dir: %v", err)
	}
	if got != dir {
		t.Fatalf("unexpected dir %q", got)
	}

	file := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("MIGRATIONS_DIR", dir)
	if got, err := resolveMigrationsDir(file); err != nil || got != dir {
		t.Fatalf("expected fallback to MIGRATIONS_DIR, got=%q err=%v", got, err)
	}
}

func TestMigrationRequiresDBURL(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("DB_URL", "")

	root := newRootCmd()
	root.SetArgs([]string{"version", "--dir", t.TempDir()})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err == nil {
		t.Fatalf("expected DB_URL error")
	}
}
