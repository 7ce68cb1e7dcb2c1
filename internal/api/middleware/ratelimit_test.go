package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type stubLimiter struct {
	allowed    bool
	retryAfter time.Duration
	err        error
	lastKey    string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	s.lastKey = key
	return s.allowed, s.retryAfter, s.err
}

func runRateLimited(t *testing.T, limiter Limiter) (*httptest.ResponseRecorder, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "198.51.100.4")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/auth/login")

	called := false
	handler := RateLimit(limiter, zerolog.Nop())(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return rec, called, err
}

func TestRateLimit_Allows(t *testing.T) {
	lim := &stubLimiter{allowed: true}
	_, called, err := runRateLimited(t, lim)
	if err != nil || !called {
		t.Fatalf("expected request through, got %v", err)
	}
	if lim.lastKey != "198.51.100.4|/api/auth/login" {
		t.Fatalf("unexpected key %q", lim.lastKey)
	}
}

func TestRateLimit_Rejects(t *testing.T) {
	rec, called, err := runRateLimited(t, &stubLimiter{allowed: false, retryAfter: 1500 * time.Millisecond})
	if called {
		t.Fatalf("handler must not run")
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}
	if got := rec.Header().Get(echo.HeaderRetryAfter); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	_, called, err := runRateLimited(t, &stubLimiter{err: errors.New("redis down")})
	if err != nil || !called {
		t.Fatalf("limiter errors must not block requests, got %v", err)
	}
}

func TestMemoryLimiter(t *testing.T) {
	lim := NewMemoryLimiter(3, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	lim.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if ok, _, _ := lim.Allow(context.Background(), "ip"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, retry, err := lim.Allow(context.Background(), "ip")
	if err != nil || ok {
		t.Fatalf("fourth request must be limited")
	}
	if retry <= 0 || retry > 20*time.Second {
		t.Fatalf("unexpected retry after %s", retry)
	}
	if ok, _, _ := lim.Allow(context.Background(), "other-ip"); !ok {
		t.Fatalf("keys must not share a bucket")
	}

	now = now.Add(20 * time.Second)
	if ok, _, _ := lim.Allow(context.Background(), "ip"); !ok {
		t.Fatalf("token should have refilled")
	}

	now = now.Add(10 * time.Minute)
	if removed := lim.Prune(); removed != 2 {
		t.Fatalf("expected 2 idle buckets pruned, got %d", removed)
	}
}
