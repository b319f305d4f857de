// Package integration contains tests that wire real suggest components
// together behind httptest servers. A stub HTTP server stands in for the
// host application's control endpoint; Redis-backed cases skip when Redis
// is unavailable.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/suggestkit/suggestd/internal/intervention"
	"github.com/suggestkit/suggestd/internal/scorer"
	"github.com/suggestkit/suggestd/internal/suggest"
	"github.com/suggestkit/suggestd/pkg/config"
	"github.com/suggestkit/suggestd/pkg/middleware"
	pkgredis "github.com/suggestkit/suggestd/pkg/redis"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newHostStub serves the host control API with a fixed update status and
// records every command path it receives.
func newHostStub(t *testing.T, status intervention.UpdateStatus) (*httptest.Server, *[]string) {
	t.Helper()
	var commands []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/update/status" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"status": string(status)})
			return
		}
		commands = append(commands, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &commands
}

// newSuggestServer wires a real scorer, picker, and handler behind the
// production middleware chain.
func newSuggestServer(t *testing.T, hostURL string, cache *suggest.ResultCache) *httptest.Server {
	t.Helper()

	sc, err := scorer.New(
		scorer.WithDistanceThreshold(1),
		scorer.WithStopWords("app", "the"),
	)
	if err != nil {
		t.Fatalf("creating scorer: %v", err)
	}
	for _, iv := range config.DefaultInterventions() {
		doc := scorer.Document{ID: iv.ID, Keywords: iv.Keywords}
		if err := sc.AddDocument(doc); err != nil {
			t.Fatalf("adding %s: %v", iv.ID, err)
		}
	}

	host := intervention.NewHTTPHostClient(config.HostConfig{
		ControlURL: hostURL,
		Timeout:    2 * time.Second,
	})
	picker := intervention.NewPicker(host, 1, nil)
	h := suggest.New(sc, picker, cache, nil, nil, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/suggest", h.Suggest)
	mux.HandleFunc("POST /api/v1/interventions/invoke", h.Invoke)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)

	var chain http.Handler = mux
	chain = middleware.Timeout(5 * time.Second)(chain)
	chain = middleware.RequestID(chain)

	srv := httptest.NewServer(chain)
	t.Cleanup(srv.Close)
	return srv
}

// skipIfNoRedis skips the test when Redis is unavailable.
func skipIfNoRedis(t *testing.T) *suggest.ResultCache {
	t.Helper()
	cfg := config.RedisConfig{
		Addr:     envOrDefault("TEST_REDIS_ADDR", "localhost:6379"),
		PoolSize: 5,
		CacheTTL: 10 * time.Second,
	}
	client, err := pkgredis.NewClient(cfg)
	if err != nil {
		t.Skipf("skipping integration test: redis unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return suggest.NewResultCache(client, cfg)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getSuggest(t *testing.T, baseURL, query string) suggest.Response {
	t.Helper()
	resp, err := http.Get(baseURL + "/api/v1/suggest?q=" + strings.ReplaceAll(query, " ", "+"))
	if err != nil {
		t.Fatalf("suggest request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out suggest.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

// TestSuggestEndToEnd drives a full keystroke sequence for "clear history"
// and checks the matched set narrows as the query grows.
func TestSuggestEndToEnd(t *testing.T) {
	hostSrv, _ := newHostStub(t, intervention.StatusNoUpdate)
	srv := newSuggestServer(t, hostSrv.URL, nil)

	steps := []struct {
		query   string
		wantIDs []string
	}{
		{"clear", []string{"clear-data"}},
		{"clear h", []string{"clear-data"}},
		{"clear his", []string{"clear-data"}},
		{"clear history", []string{"clear-data"}},
	}
	for _, step := range steps {
		out := getSuggest(t, srv.URL, step.query)
		if len(out.Results) != len(step.wantIDs) {
			t.Fatalf("%q: got %d results, want %d", step.query, len(out.Results), len(step.wantIDs))
		}
		for i, id := range step.wantIDs {
			if out.Results[i].DocumentID != id {
				t.Errorf("%q: result[%d] = %s, want %s", step.query, i, out.Results[i].DocumentID, id)
			}
		}
		if out.Picked == nil || out.Picked.Action != intervention.ActionClearData {
			t.Errorf("%q: picked = %+v, want clear-data action", step.query, out.Picked)
		}
	}
}

// TestSuggestUpdateFlow checks that an update query consults the host's
// update status and that invoking the picked action reaches the host.
func TestSuggestUpdateFlow(t *testing.T) {
	hostSrv, commands := newHostStub(t, intervention.StatusReadyForRestart)
	srv := newSuggestServer(t, hostSrv.URL, nil)

	out := getSuggest(t, srv.URL, "update")
	if out.Picked == nil || out.Picked.Action != intervention.ActionRestartToUpdate {
		t.Fatalf("picked = %+v, want restart-to-update", out.Picked)
	}

	body := strings.NewReader(`{"id":"update-app","action":"restart-to-update"}`)
	resp, err := http.Post(srv.URL+"/api/v1/interventions/invoke", "application/json", body)
	if err != nil {
		t.Fatalf("invoke request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("invoke: expected 200, got %d", resp.StatusCode)
	}
	if len(*commands) == 0 || (*commands)[len(*commands)-1] != "/update/restart" {
		t.Errorf("host commands = %v, want /update/restart last", *commands)
	}
}

// TestSuggestHostDownDegrades verifies that a dead host control endpoint
// still yields a ranked response, just without a picked intervention.
func TestSuggestHostDownDegrades(t *testing.T) {
	srv := newSuggestServer(t, "http://127.0.0.1:1", nil)

	out := getSuggest(t, srv.URL, "update")
	if len(out.Results) != 1 || out.Results[0].DocumentID != "update-app" {
		t.Fatalf("results = %+v, want update-app", out.Results)
	}
	if out.Picked != nil {
		t.Errorf("picked = %+v, want nil when host is down", out.Picked)
	}
}

// TestSuggestCaching verifies the Redis result cache round trip and
// invalidation when Redis is available.
func TestSuggestCaching(t *testing.T) {
	cache := skipIfNoRedis(t)
	hostSrv, _ := newHostStub(t, intervention.StatusNoUpdate)
	srv := newSuggestServer(t, hostSrv.URL, cache)

	first := getSuggest(t, srv.URL, "clear cache")
	second := getSuggest(t, srv.URL, "clear cache")
	if len(first.Results) != len(second.Results) {
		t.Fatalf("cached response differs: %d vs %d results", len(first.Results), len(second.Results))
	}

	hits, misses := cache.Stats()
	if hits < 1 || misses < 1 {
		t.Errorf("cache stats hits=%d misses=%d, want at least one of each", hits, misses)
	}

	resp, err := http.Post(srv.URL+"/api/v1/cache/invalidate", "application/json", nil)
	if err != nil {
		t.Fatalf("invalidate request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("invalidate: expected 200, got %d", resp.StatusCode)
	}
}
