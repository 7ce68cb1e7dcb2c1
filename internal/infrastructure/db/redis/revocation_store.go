package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/capachica/turismo-api/internal/core/domain"
)

const revokedPrefix = "revoked:"

// first revocation wins: a repeated logout keeps the original audit fields.
var saveRevokedScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1],
  "account_id", ARGV[2],
  "revoked_at", ARGV[3],
  "expires_at", ARGV[4],
  "ip", ARGV[5],
  "user_agent", ARGV[6])
redis.call("EXPIREAT", KEYS[1], ARGV[1])
return 1
`)

// RevocationStore keeps revoked-token digests in Redis. Each entry is a hash
// that expires together with the token it revokes, so the ledger never grows
// past the set of still-valid tokens.
// Key format: revoked:<sha256 hex>
type RevocationStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client, now: time.Now}
}

func (s *RevocationStore) Save(ctx context.Context, t domain.RevokedToken) error {
	if !t.ExpiresAt.After(s.now()) {
		return nil
	}

	_, err := saveRevokedScript.Run(ctx, s.client, []string{revokedPrefix + t.Hash},
		t.ExpiresAt.Unix(),
		t.AccountID,
		t.RevokedAt.UTC().Format(time.RFC3339),
		t.ExpiresAt.UTC().Format(time.RFC3339),
		t.Meta.IP,
		t.Meta.UserAgent,
	).Result()
	if err != nil {
		return fmt.Errorf("save revoked token: %w", err)
	}
	return nil
}

func (s *RevocationStore) Exists(ctx context.Context, hash string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedPrefix+hash).Result()
	if err != nil {
		return false, fmt.Errorf("revocation lookup: %w", err)
	}
	return n > 0, nil
}
