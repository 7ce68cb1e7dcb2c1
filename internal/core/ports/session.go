package ports

import (
	"context"
	"time"

	"github.com/capachica/turismo-api/internal/core/domain"
)

// RevocationStore persists revoked-token digests until their expiry.
type RevocationStore interface {
	// Save is idempotent; saving the same hash twice is not an error.
	Save(ctx context.Context, token domain.RevokedToken) error
	Exists(ctx context.Context, hash string) (bool, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(accountID string, roles domain.RoleSet) (string, time.Time, error)
}

// TokenVerifier validates session tokens. It never returns an error: any
// failure is reported as ok == false.
type TokenVerifier interface {
	Verify(raw string) (domain.Session, bool)
}

// RevocationChecker answers whether a raw token has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, raw string) bool
}

// Revoker records a logout.
type Revoker interface {
	Revoke(ctx context.Context, raw, accountID string, meta domain.RequestMeta) error
}
