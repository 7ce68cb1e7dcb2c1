package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/capachica/turismo-api/internal/core/domain"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		s.Close()
	})
	return s, client
}

func TestRevocationStore_SaveAndExists(t *testing.T) {
	s, client := newTestClient(t)
	store := NewRevocationStore(client)
	ctx := context.Background()
	now := time.Now()

	ok, err := store.Exists(ctx, "abc")
	if err != nil || ok {
		t.Fatalf("expected unknown hash, got %v %v", ok, err)
	}

	err = store.Save(ctx, domain.RevokedToken{
		Hash:      "abc",
		AccountID: "acc-1",
		RevokedAt: now,
		ExpiresAt: now.Add(time.Hour),
		Meta:      domain.RequestMeta{IP: "10.0.0.1"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, domain.RevokedToken{Hash: "abc", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("second save must be idempotent: %v", err)
	}

	ok, err = store.Exists(ctx, "abc")
	if err != nil || !ok {
		t.Fatalf("expected revoked hash, got %v %v", ok, err)
	}
	if got := s.HGet("revoked:abc", "account_id"); got != "acc-1" {
		t.Fatalf("unexpected account_id %q", got)
	}
	if got := s.HGet("revoked:abc", "ip"); got != "10.0.0.1" {
		t.Fatalf("a repeated revocation must keep the first ip, got %q", got)
	}
	if ttl := s.TTL("revoked:abc"); ttl <= 0 || ttl > time.Hour {
		t.Fatalf("expected expiry within the token lifetime, got %s", ttl)
	}

	s.FastForward(2 * time.Hour)
	ok, _ = store.Exists(ctx, "abc")
	if ok {
		t.Fatalf("entry should expire with the token")
	}
}

func TestRevocationStore_SkipsExpiredTokens(t *testing.T) {
	s, client := newTestClient(t)
	store := NewRevocationStore(client)

	err := store.Save(context.Background(), domain.RevokedToken{Hash: "old", ExpiresAt: time.Now().Add(-time.Minute)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.Exists("revoked:old") {
		t.Fatalf("already expired tokens need no entry")
	}
}

func TestRevocationStore_Unreachable(t *testing.T) {
	s, client := newTestClient(t)
	store := NewRevocationStore(client)
	s.Close()

	if _, err := store.Exists(context.Background(), "abc"); err == nil {
		t.Fatalf("expected error when redis is down")
	}
}

func TestRateLimiter_Window(t *testing.T) {
	s, client := newTestClient(t)
	lim := NewRateLimiter(client, 2, 500*time.Millisecond, "test:")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, err := lim.Allow(ctx, "ip")
		if err != nil || !allowed {
			t.Fatalf("call %d: expected allow, got %v %v", i+1, allowed, err)
		}
	}

	allowed, retryAfter, err := lim.Allow(ctx, "ip")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed || retryAfter <= 0 {
		t.Fatalf("expected rate limited with retryAfter, got %v %s", allowed, retryAfter)
	}

	allowed, _, _ = lim.Allow(ctx, "other")
	if !allowed {
		t.Fatalf("keys must be limited independently")
	}

	s.FastForward(600 * time.Millisecond)
	allowed, _, err = lim.Allow(ctx, "ip")
	if err != nil || !allowed {
		t.Fatalf("expected allow after window")
	}
}

func TestRateLimiter_InvalidWindow(t *testing.T) {
	_, client := newTestClient(t)
	lim := NewRateLimiter(client, 1, 0, "")
	if _, _, err := lim.Allow(context.Background(), "ip"); err == nil {
		t.Fatalf("expected error for zero window")
	}
}

func TestConnect(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer s.Close()

	client, err := Connect(context.Background(), Config{Addr: s.Addr()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	_ = client.Close()

	addr := s.Addr()
	s.Close()
	if _, err := Connect(context.Background(), Config{Addr: addr, Attempts: 2}); err == nil {
		t.Fatalf("expected error for a stopped server")
	}
}
