package mlbstats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/riskibarqy/season-stats/internal/domain/seasonstats"
	"github.com/riskibarqy/season-stats/internal/platform/logging"
	"github.com/riskibarqy/season-stats/internal/platform/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{
		HTTPClient:    server.Client(),
		BaseURL:       server.URL,
		RatePerMinute: 60000,
		Logger:        logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
		},
	})
}

func TestGetRoster_ReturnsPersonIDs(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/teams/147/roster" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("rosterType"); got != "fullSeason" {
			t.Errorf("unexpected rosterType=%s", got)
		}
		if got := r.URL.Query().Get("season"); got != "2024" {
			t.Errorf("unexpected season=%s", got)
		}
		_, _ = w.Write([]byte(`{"roster":[{"person":{"id":592450,"fullName":"Aaron Judge"}},{"person":{"id":0}},{"person":{"id":665742}}]}`))
	})

	roster, err := client.GetRoster(context.Background(), 147, 2024)
	if err != nil {
		t.Fatalf("get roster: %v", err)
	}
	if len(roster) != 2 || roster[0] != 592450 || roster[1] != 665742 {
		t.Fatalf("unexpected roster %v", roster)
	}
}

func TestGetRoster_ServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetRoster(context.Background(), 147, 2024)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !isCircuitFailure(err) {
		t.Fatalf("expected transient error, got=%v", err)
	}
}

func TestResolve_PitcherWithTradeSplits(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/people/605400" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"people":[{"id":605400,"fullName":"Aaron Nola ","primaryPosition":{"abbreviation":"P"},
			"stats":[{"splits":[{"team":{"id":116}},{"team":{"id":119}},{},{"team":{"id":116}}]}]}]}`))
	})

	identity, out := client.Resolve(context.Background(), 605400, 2024)
	if !out.OK() {
		t.Fatalf("resolve failed: %s", out)
	}
	if identity.Role != seasonstats.RolePitcher {
		t.Fatalf("expected pitcher, got=%s", identity.Role)
	}
	if identity.Name != "Aaron Nola" {
		t.Fatalf("unexpected name %q", identity.Name)
	}
	if len(identity.Teams) != 2 || identity.Teams[0] != 116 || identity.Teams[1] != 119 {
		t.Fatalf("unexpected teams %v", identity.Teams)
	}
}

func TestResolve_NotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, out := client.Resolve(context.Background(), 1, 2024)
	if out.Kind != seasonstats.OutcomeNotFound {
		t.Fatalf("expected not_found, got=%s", out)
	}
}

func TestResolve_EmptyPeopleIsNotFound(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"people":[]}`))
	})

	_, out := client.Resolve(context.Background(), 1, 2024)
	if out.Kind != seasonstats.OutcomeNotFound {
		t.Fatalf("expected not_found, got=%s", out)
	}
}

func TestResolve_InvalidInputSkipsRequest(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) { hits.Add(1) })

	_, out := client.Resolve(context.Background(), 0, 2024)
	if out.Kind != seasonstats.OutcomeInvalidInput {
		t.Fatalf("expected invalid_input, got=%s", out)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no request, got=%d", hits.Load())
	}
}

func TestClient_CircuitOpensAfterTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for i := 0; i < 2; i++ {
		if _, out := client.Resolve(context.Background(), 1, 2024); out.Kind != seasonstats.OutcomeTransientError {
			t.Fatalf("attempt %d: expected transient_error, got=%s", i, out)
		}
	}
	if client.Guard().State() != resilience.CircuitStateOpen {
		t.Fatalf("expected open circuit, got=%s", client.Guard().State())
	}

	_, out := client.Resolve(context.Background(), 1, 2024)
	if out.Kind != seasonstats.OutcomeTransientError {
		t.Fatalf("expected transient_error while open, got=%s", out)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected the open circuit to short-circuit, hits=%d", hits.Load())
	}
}

func TestClient_NotFoundDoesNotTripCircuit(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 5; i++ {
		client.Resolve(context.Background(), 1, 2024)
	}
	if client.Guard().State() != resilience.CircuitStateClosed {
		t.Fatalf("expected closed circuit, got=%s", client.Guard().State())
	}
}

func TestRoleFromPosition(t *testing.T) {
	t.Parallel()

	cases := map[string]seasonstats.PlayerRole{
		"P":   seasonstats.RolePitcher,
		"twp": seasonstats.RoleTwoWay,
		"SS":  seasonstats.RoleBatter,
		"":    seasonstats.RoleUnknown,
	}
	for in, want := range cases {
		if got := roleFromPosition(in); got != want {
			t.Fatalf("roleFromPosition(%q)=%s want=%s", in, got, want)
		}
	}
}
