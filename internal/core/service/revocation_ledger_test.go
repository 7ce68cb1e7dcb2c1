package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/capachica/turismo-api/internal/core/domain"
)

func TestRevocationLedger_RevokeThenCheck(t *testing.T) {
	store := newMemRevocationStore()
	codec := NewTokenCodec("secret", time.Hour)
	ledger := NewRevocationLedger(store, codec, FailOpen, 0, zerolog.Nop())

	token, exp, _ := codec.Issue("acc-1", nil)
	if ledger.IsRevoked(context.Background(), token) {
		t.Fatalf("fresh token must not be revoked")
	}

	meta := domain.RequestMeta{IP: "10.0.0.1", UserAgent: "test"}
	if err := ledger.Revoke(context.Background(), token, "acc-1", meta); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := ledger.Revoke(context.Background(), token, "acc-1", meta); err != nil {
		t.Fatalf("second revoke must be idempotent: %v", err)
	}
	if !ledger.IsRevoked(context.Background(), token) {
		t.Fatalf("expected token to be revoked")
	}

	entry, ok := store.entries[HashToken(token)]
	if !ok {
		t.Fatalf("expected entry keyed by hash")
	}
	if entry.ExpiresAt.Unix() != exp.Unix() {
		t.Fatalf("expected ledger expiry %v, got %v", exp, entry.ExpiresAt)
	}
	for hash := range store.entries {
		if strings.Contains(hash, token) || hash == token {
			t.Fatalf("raw token must never be stored")
		}
	}
}

func TestRevocationLedger_DefaultExpiry(t *testing.T) {
	store := newMemRevocationStore()
	ledger := NewRevocationLedger(store, NewTokenCodec("secret", time.Hour), FailOpen, 0, zerolog.Nop())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return now }

	if err := ledger.Revoke(context.Background(), "opaque", "acc-1", domain.RequestMeta{}); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	got := store.entries[HashToken("opaque")].ExpiresAt
	if !got.Equal(now.Add(DefaultRevocationTTL)) {
		t.Fatalf("expected default expiry, got %v", got)
	}
}

func TestRevocationLedger_StoreOutagePolicy(t *testing.T) {
	store := newMemRevocationStore()
	store.err = errStoreDown
	codec := NewTokenCodec("secret", time.Hour)
	token, _, _ := codec.Issue("acc-1", nil)

	open := NewRevocationLedger(store, codec, FailOpen, 0, zerolog.Nop())
	if open.IsRevoked(context.Background(), token) {
		t.Fatalf("fail-open ledger must treat token as not revoked")
	}

	closed := NewRevocationLedger(store, codec, FailClosed, 0, zerolog.Nop())
	if !closed.IsRevoked(context.Background(), token) {
		t.Fatalf("fail-closed ledger must treat token as revoked")
	}

	if err := open.Revoke(context.Background(), token, "acc-1", domain.RequestMeta{}); err == nil {
		t.Fatalf("expected revoke to surface the store error")
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Fatalf("hash must be deterministic")
	}
	if len(HashToken("abc")) != 64 {
		t.Fatalf("expected 64 hex chars")
	}
}
