package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestRateLimiterAllowsWithinBurst verifies requests inside the burst
// all pass.
func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(1, 5)
	h := rl.Middleware(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=seo", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}
}

// TestRateLimiterRejectsBeyondBurst verifies the request after the
// burst is rejected with 429 and a Retry-After hint.
func TestRateLimiterRejectsBeyondBurst(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Middleware(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=seo", nil)
		req.RemoteAddr = "10.0.0.2:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	send()
	send()
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}
}

// TestRateLimiterIsolatesClients verifies one client exhausting its
// bucket does not affect another.
func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	h := rl.Middleware(okHandler())

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("10.0.0.3:1"); code != http.StatusOK {
		t.Fatalf("first client first request = %d, want 200", code)
	}
	if code := send("10.0.0.3:1"); code != http.StatusTooManyRequests {
		t.Fatalf("first client second request = %d, want 429", code)
	}
	if code := send("10.0.0.4:1"); code != http.StatusOK {
		t.Errorf("second client = %d, want 200 (buckets must be per client)", code)
	}
}

// TestRateLimiterExemptsHealth verifies health probes bypass limiting.
func TestRateLimiterExemptsHealth(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	h := rl.Middleware(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		req.RemoteAddr = "10.0.0.5:1"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("health request %d limited with %d", i, rec.Code)
		}
	}
}

// TestRateLimiterClose verifies Close is idempotent, stops the eviction
// goroutine, and leaves the limiter itself functional.
func TestRateLimiterClose(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.Close()
	rl.Close()

	select {
	case _, open := <-rl.stop:
		if open {
			t.Fatal("stop channel delivered a value, want closed")
		}
	default:
		t.Fatal("stop channel still open after Close")
	}

	h := rl.Middleware(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.6:1"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("request after Close = %d, want 200", rec.Code)
	}
}

// TestRateLimiterEvictsIdleClients verifies the eviction sweep drops
// only limiters idle past the cutoff.
func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	defer rl.Close()

	rl.allow("stale")
	rl.mu.Lock()
	rl.clients["stale"].lastSeen = time.Now().Add(-10 * time.Minute)
	rl.mu.Unlock()
	rl.allow("fresh")

	rl.evictIdle(time.Now().Add(-3 * time.Minute))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.clients["stale"]; ok {
		t.Error("idle client survived eviction")
	}
	if _, ok := rl.clients["fresh"]; !ok {
		t.Error("active client was evicted")
	}
}

// TestClientKeyPrefersForwardedFor verifies proxied requests key on the
// original client address.
func TestClientKeyPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	if got := clientKey(req); got != "203.0.113.7" {
		t.Errorf("clientKey = %q, want 203.0.113.7", got)
	}

	req.Header.Del("X-Forwarded-For")
	if got := clientKey(req); got != "127.0.0.1" {
		t.Errorf("clientKey = %q, want 127.0.0.1", got)
	}
}
