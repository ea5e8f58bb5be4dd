package fangraphs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
	"github.com/riskibarqy/season-stats/internal/platform/resilience"
)

type capturedQueries struct {
	mu      sync.Mutex
	queries []url.Values
}

func (c *capturedQueries) add(values url.Values) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, values)
}

func (c *capturedQueries) last() url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queries) == 0 {
		return nil
	}
	return c.queries[len(c.queries)-1]
}

func newTestClient(t *testing.T, status int, body string) (*Client, *capturedQueries) {
	t.Helper()
	captured := &capturedQueries{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != leadersPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		captured.add(r.URL.Query())
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:       server.URL,
		Timeout:       5 * time.Second,
		RatePerMinute: 60000,
		IDs:           NewIDMap(map[int64]int64{592450: 15640, 605400: 16149}),
		Logger:        logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 3,
		},
		Now: func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
	return client, captured
}

func TestFetchStats_BuildsLeadersQuery(t *testing.T) {
	t.Parallel()

	client, captured := newTestClient(t, http.StatusOK, `{"data":[{"Name":"<a href=\"x\">Aaron Judge</a>","HR":58,"WAR":10.6,"playerid":15640}]}`)

	record, out := client.FetchStats(context.Background(), 592450, 2024, seasonstats.RoleBatter, &seasonstats.TeamScope{TeamID: 147, ScopeID: 9})
	if !out.OK() {
		t.Fatalf("fetch failed: %s", out)
	}
	if record["HR"] != float64(58) {
		t.Fatalf("unexpected HR %v", record["HR"])
	}

	query := captured.last()
	expected := map[string]string{
		"pos":       "all",
		"stats":     "bat",
		"lg":        "all",
		"qual":      "0",
		"season":    "2024",
		"startdate": "2024-03-01",
		"enddate":   "2024-11-01",
		"month":     "0",
		"team":      "9",
		"players":   "15640",
	}
	for key, want := range expected {
		if got := query.Get(key); got != want {
			t.Fatalf("query %s: got=%q want=%q", key, got, want)
		}
	}
}

func TestFetchStats_CurrentSeasonPitcherWithoutScope(t *testing.T) {
	t.Parallel()

	client, captured := newTestClient(t, http.StatusOK, `{"data":[{"ERA":3.57}]}`)

	_, out := client.FetchStats(context.Background(), 605400, 2025, seasonstats.RolePitcher, nil)
	if !out.OK() {
		t.Fatalf("fetch failed: %s", out)
	}

	query := captured.last()
	if query.Get("stats") != "pit" {
		t.Fatalf("expected pit stats, got=%s", query.Get("stats"))
	}
	if query.Get("month") != "33" {
		t.Fatalf("expected month=33 for the running season, got=%s", query.Get("month"))
	}
	if query.Has("team") {
		t.Fatalf("expected no team filter, got=%s", query.Get("team"))
	}
}

func TestFetchStats_Outcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		playerID seasonstats.PlayerID
		want     seasonstats.OutcomeKind
	}{
		{name: "empty data", status: http.StatusOK, body: `{"data":[]}`, playerID: 592450, want: seasonstats.OutcomeNoStats},
		{name: "unmapped player", status: http.StatusOK, body: `{"data":[{"HR":1}]}`, playerID: 1, want: seasonstats.OutcomeNoIdentityMapping},
		{name: "override mapped", status: http.StatusOK, body: `{"data":[{"HR":1}]}`, playerID: 690916, want: seasonstats.OutcomeSuccess},
		{name: "server error", status: http.StatusServiceUnavailable, body: `oops`, playerID: 592450, want: seasonstats.OutcomeTransientError},
		{name: "rate limited", status: http.StatusTooManyRequests, body: ``, playerID: 592450, want: seasonstats.OutcomeTransientError},
		{name: "bad request", status: http.StatusBadRequest, body: `bad`, playerID: 592450, want: seasonstats.OutcomeInvalidInput},
		{name: "not found", status: http.StatusNotFound, body: ``, playerID: 592450, want: seasonstats.OutcomeNotFound},
		{name: "garbage payload", status: http.StatusOK, body: `<html>`, playerID: 592450, want: seasonstats.OutcomeTransientError},
		{name: "invalid player", status: http.StatusOK, body: `{}`, playerID: 0, want: seasonstats.OutcomeInvalidInput},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client, _ := newTestClient(t, tc.status, tc.body)
			_, out := client.FetchStats(context.Background(), tc.playerID, 2024, seasonstats.RoleBatter, nil)
			if out.Kind != tc.want {
				t.Fatalf("got=%s want=%s", out, tc.want)
			}
		})
	}
}

func TestFetchStats_CancelledContextIsTransient(t *testing.T) {
	t.Parallel()

	client, captured := newTestClient(t, http.StatusOK, `{"data":[{"HR":1}]}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, out := client.FetchStats(ctx, 592450, 2024, seasonstats.RoleBatter, nil)
	if out.Kind != seasonstats.OutcomeTransientError {
		t.Fatalf("expected transient_error, got=%s", out)
	}
	if captured.last() != nil {
		t.Fatalf("expected no request to be sent")
	}
}

func TestLoadIDMap(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	register := filepath.Join(dir, "register.csv")
	content := strings.Join([]string{
		"key_person,key_mlbam,key_fangraphs,name_last",
		"a,592450,15640,Judge",
		"b,660271,19755.0,Ohtani",
		"c,700000,sa3011918,Prospect",
		"d,,123,Nobody",
		"e,690916,1,Override",
	}, "\n")
	if err := os.WriteFile(register, []byte(content), 0o644); err != nil {
		t.Fatalf("write register: %v", err)
	}

	ids, err := LoadIDMap(register)
	if err != nil {
		t.Fatalf("load id map: %v", err)
	}

	cases := map[seasonstats.PlayerID]int64{592450: 15640, 660271: 19755, 690916: 30160, 695578: 29518, 702616: 31781}
	for mlbam, want := range cases {
		got, ok := ids.Lookup(mlbam)
		if !ok || got != want {
			t.Fatalf("lookup %d: got=%d ok=%v want=%d", mlbam, got, ok, want)
		}
	}
	if _, ok := ids.Lookup(700000); ok {
		t.Fatalf("expected minor-league key to be skipped")
	}
}

func TestLoadIDMap_AlternateHeaders(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "map.csv")
	if err := os.WriteFile(path, []byte("IDPLAYER,MLBID,IDFANGRAPHS\nx,605400,16149\n"), 0o644); err != nil {
		t.Fatalf("write map: %v", err)
	}

	ids, err := LoadIDMap(path)
	if err != nil {
		t.Fatalf("load id map: %v", err)
	}
	if got, _ := ids.Lookup(605400); got != 16149 {
		t.Fatalf("unexpected fangraphs id %d", got)
	}
}

func TestLoadIDMap_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	noColumns := filepath.Join(dir, "bad.csv")
	if err := os.WriteFile(noColumns, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadIDMap(noColumns); err == nil {
		t.Fatalf("expected missing column error")
	}
	if _, err := LoadIDMap(filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatalf("expected open error")
	}

	ids, err := LoadIDMap("")
	if err != nil {
		t.Fatalf("empty path: %v", err)
	}
	if ids.Len() != len(knownOverrides) {
		t.Fatalf("expected overrides only, got=%d", ids.Len())
	}
}
