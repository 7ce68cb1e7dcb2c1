package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
	"github.com/capachica/turismo-api/internal/pkg/metrics"
)

// DefaultRevocationTTL is used when a revoked token carries no readable expiry.
const DefaultRevocationTTL = 24 * time.Hour

// RevocationPolicy decides what IsRevoked answers when the store is unreachable.
type RevocationPolicy int

const (
	// FailOpen treats the token as not revoked during a store outage.
	FailOpen RevocationPolicy = iota
	// FailClosed treats every token as revoked during a store outage.
	FailClosed
)

func (p RevocationPolicy) String() string {
	if p == FailClosed {
		return "fail_closed"
	}
	return "fail_open"
}

type expiryReader interface {
	ExpiryOf(raw string) (time.Time, bool)
}

// RevocationLedger tracks logged-out tokens by their SHA-256 digest.
type RevocationLedger struct {
	store      ports.RevocationStore
	tokens     expiryReader
	policy     RevocationPolicy
	defaultTTL time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewRevocationLedger(store ports.RevocationStore, tokens expiryReader, policy RevocationPolicy, defaultTTL time.Duration, log zerolog.Logger) *RevocationLedger {
	if defaultTTL <= 0 {
		defaultTTL = DefaultRevocationTTL
	}
	return &RevocationLedger{
		store:      store,
		tokens:     tokens,
		policy:     policy,
		defaultTTL: defaultTTL,
		log:        log,
		now:        time.Now,
	}
}

// HashToken returns the hex SHA-256 digest under which a token is stored.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// IsRevoked never returns an error. Store failures are logged and resolved
// according to the ledger policy.
func (l *RevocationLedger) IsRevoked(ctx context.Context, raw string) bool {
	if raw == "" {
		return false
	}
	revoked, err := l.store.Exists(ctx, HashToken(raw))
	if err != nil {
		metrics.RevocationChecksTotal.WithLabelValues("error").Inc()
		l.log.Warn().Err(err).Str("policy", l.policy.String()).Msg("revocation store unavailable")
		return l.policy == FailClosed
	}
	if revoked {
		metrics.RevocationChecksTotal.WithLabelValues("revoked").Inc()
		return true
	}
	metrics.RevocationChecksTotal.WithLabelValues("clean").Inc()
	return false
}

// Revoke records raw as revoked until its own expiry, or for the default TTL
// when the expiry cannot be read. Revoking twice is not an error.
func (l *RevocationLedger) Revoke(ctx context.Context, raw, accountID string, meta domain.RequestMeta) error {
	now := l.now()
	expiresAt, ok := l.tokens.ExpiryOf(raw)
	if !ok {
		expiresAt = now.Add(l.defaultTTL)
	}

	err := l.store.Save(ctx, domain.RevokedToken{
		Hash:      HashToken(raw),
		AccountID: accountID,
		RevokedAt: now,
		ExpiresAt: expiresAt,
		Meta:      meta,
	})
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
