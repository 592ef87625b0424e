package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func serveFrom(t *testing.T, h echo.HandlerFunc, ip string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})(okHandler)

	for i := 0; i < 5; i++ {
		rec, err := serveFrom(t, h, "10.0.0.1")
		if err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: X-RateLimit-Limit = %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	h := rateLimitWithStore(store)(okHandler)

	for i := 0; i < 2; i++ {
		if _, err := serveFrom(t, h, "10.0.0.1"); err != nil {
			t.Fatalf("request %d: unexpected error %v", i+1, err)
		}
	}

	rec, err := serveFrom(t, h, "10.0.0.1")
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Error("expected X-RateLimit-Remaining 0")
	}

	// Another client has its own bucket.
	if _, err := serveFrom(t, h, "10.0.0.2"); err != nil {
		t.Fatalf("other client was limited: %v", err)
	}

	// One second refills one token.
	now = now.Add(time.Second)
	if _, err := serveFrom(t, h, "10.0.0.1"); err != nil {
		t.Fatalf("expected refill after 1s, got %v", err)
	}
}

func TestRateLimit_SweepsIdleBuckets(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.lastSweep = now
	store.now = func() time.Time { return now }
	h := rateLimitWithStore(store)(okHandler)

	_, _ = serveFrom(t, h, "10.0.0.1")
	_, _ = serveFrom(t, h, "10.0.0.2")
	if store.size() != 2 {
		t.Fatalf("expected 2 buckets, got %d", store.size())
	}

	now = now.Add(2 * time.Minute)
	_, _ = serveFrom(t, h, "10.0.0.3")
	if store.size() != 1 {
		t.Errorf("expected idle buckets swept, have %d", store.size())
	}
}

func TestTokenBucket_RetryAfter(t *testing.T) {
	now := time.Now()
	b := newTokenBucket(0.5, 1, now)
	if !b.allow(now) {
		t.Fatal("first request should pass")
	}
	if b.allow(now) {
		t.Fatal("second request should be limited")
	}
	if got := b.retryAfter(); got != 3 {
		t.Errorf("retryAfter = %d, want 3", got)
	}
}
