package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// bucket tracks token-bucket state for one client address.
type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// RateLimiter is an in-memory per-client token-bucket limiter. A suggest
// endpoint is hit once per keystroke, so the per-minute limit should leave
// headroom for fast typists.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	limit    int
	window   time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter granting `limit` requests per window for
// each client address. Call Stop to release the cleanup goroutine when the
// limiter does not live for the whole process.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	l := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		stopCh:  make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Stop terminates the cleanup goroutine. Allow keeps working afterwards;
// idle buckets just stop being reclaimed. Safe to call more than once.
func (l *RateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Allow consumes one token for the client, refilling continuously at
// limit/window.
func (l *RateLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, exists := l.buckets[client]
	if !exists {
		l.buckets[client] = &bucket{
			tokens:    float64(l.limit - 1),
			lastCheck: now,
		}
		return true
	}

	elapsed := now.Sub(b.lastCheck)
	b.lastCheck = now

	rate := float64(l.limit) / l.window.Seconds()
	b.tokens += elapsed.Seconds() * rate
	if b.tokens > float64(l.limit) {
		b.tokens = float64(l.limit)
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// cleanup periodically drops buckets idle for more than two windows until
// Stop is called.
func (l *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			cutoff := time.Now().Add(-2 * l.window)
			for client, b := range l.buckets {
				if b.lastCheck.Before(cutoff) {
					delete(l.buckets, client)
				}
			}
			l.mu.Unlock()
		case <-l.stopCh:
			return
		}
	}
}

// RateLimit returns middleware enforcing the limiter per client IP. Health
// endpoints are exempt.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(clientAddr(r)) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
