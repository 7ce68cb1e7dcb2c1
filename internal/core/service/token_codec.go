package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/capachica/turismo-api/internal/core/domain"
)

// DefaultTokenTTL applies when the configured lifetime is not positive.
const DefaultTokenTTL = 24 * time.Hour

type sessionClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 session tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for accountID carrying roles. Each token gets a unique
// jti so two sessions opened in the same second never share a revocation hash.
func (c *TokenCodec) Issue(accountID string, roles domain.RoleSet) (string, time.Time, error) {
	now := c.now()
	exp := now.Add(c.ttl)
	claims := sessionClaims{
		Roles: roles.Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature, algorithm and expiry. Any failure yields ok == false.
func (c *TokenCodec) Verify(raw string) (domain.Session, bool) {
	if raw == "" {
		return domain.Session{}, false
	}
	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return domain.Session{}, false
	}

	s := domain.Session{
		Identity: domain.Identity{
			AccountID: claims.Subject,
			Roles:     domain.RoleSetFromStrings(claims.Roles),
		},
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	return s, true
}

// ExpiryOf reads the exp claim without verifying the signature.
func (c *TokenCodec) ExpiryOf(raw string) (time.Time, bool) {
	claims := &sessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
