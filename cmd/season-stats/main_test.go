package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("APP_ENV", "dev")
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "false")
	t.Setenv("DB_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("TEAMS_FILE", "")
	t.Setenv("PLAYER_ID_MAP_PATH", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "absent.env")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestTeamsCommand_ListsLeague(t *testing.T) {
	out, err := runCommand(t, "teams", "--league", "al")
	if err != nil {
		t.Fatalf("teams command: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 16 {
		t.Fatalf("expected header plus 15 AL clubs, got=%d\n%s", len(lines), out)
	}
	if !strings.Contains(out, "NYY") || strings.Contains(out, "NYM") {
		t.Fatalf("unexpected league filtering:\n%s", out)
	}
}

func TestTeamsCommand_TeamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teams.json")
	content := `[{"mlbam_team_id":147,"abbrev":"NYY","name":"New York Yankees","league":"AL","fangraphs_team_id":9}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write teams file: %v", err)
	}

	out, err := runCommand(t, "teams", "--teams-file", path)
	if err != nil {
		t.Fatalf("teams command: %v", err)
	}
	if got := len(strings.Split(strings.TrimSpace(out), "\n")); got != 2 {
		t.Fatalf("expected one club, got=%d\n%s", got-1, out)
	}
}

func TestTeamsCommand_RejectsUnknownLeague(t *testing.T) {
	if _, err := runCommand(t, "teams", "--league", "XL"); err == nil {
		t.Fatalf("expected league validation error")
	}
}

func TestDownloadCommand_RequiresSeason(t *testing.T) {
	out, err := runCommand(t, "download", "--output-dir", t.TempDir())
	if err == nil {
		t.Fatalf("expected missing --season error")
	}
	if !strings.Contains(out, "season") {
		t.Fatalf("expected error to mention season, got=%q", out)
	}
}

func TestDownloadCommand_FlagDefaults(t *testing.T) {
	cmd := downloadCmd()
	if err := cmd.ParseFlags([]string{"--season", "2024", "--teams", "147,121", "--retry-delay", "1s"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	teams, err := cmd.Flags().GetInt64Slice("teams")
	if err != nil {
		t.Fatalf("get teams: %v", err)
	}
	if len(teams) != 2 || teams[0] != 147 || teams[1] != 121 {
		t.Fatalf("unexpected teams %v", teams)
	}
	if got, _ := cmd.Flags().GetInt("max-workers"); got != 10 {
		t.Fatalf("unexpected max-workers default %d", got)
	}
	if got, _ := cmd.Flags().GetString("player-type"); got != "none" {
		t.Fatalf("unexpected player-type default %q", got)
	}
}
