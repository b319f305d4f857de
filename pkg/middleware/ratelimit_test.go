package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	l := NewRateLimiter(3, time.Minute)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d denied within limit", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("request above limit allowed")
	}
	// A different client has its own bucket.
	if !l.Allow("10.0.0.2") {
		t.Error("fresh client denied")
	}
}

func TestRateLimiterStop(t *testing.T) {
	l := NewRateLimiter(1, time.Minute)
	l.Stop()
	l.Stop()

	// The limiter keeps enforcing after Stop; only bucket reclamation ends.
	if !l.Allow("10.0.0.1") {
		t.Error("first request denied after Stop")
	}
	if l.Allow("10.0.0.1") {
		t.Error("request above limit allowed after Stop")
	}
}

func TestRateLimitMiddlewareExemptsHealth(t *testing.T) {
	l := NewRateLimiter(1, time.Minute)
	defer l.Stop()

	handler := RateLimit(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do("/api/v1/suggest?q=x"); code != http.StatusOK {
		t.Fatalf("first request: status = %d", code)
	}
	if code := do("/api/v1/suggest?q=x"); code != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want 429", code)
	}
	// Health probes bypass the limiter.
	for i := 0; i < 5; i++ {
		if code := do("/health/ready"); code != http.StatusOK {
			t.Fatalf("health request %d: status = %d", i, code)
		}
	}
}
