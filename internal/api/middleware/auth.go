package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

const (
	identityKey = "identity"
	tokenKey    = "token"
)

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Authenticate rejects requests without a valid, unrevoked session token and
// attaches the caller identity to the context.
func Authenticate(verifier ports.TokenVerifier, revocations ports.RevocationChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return domain.ErrMissingToken
			}
			if revocations.IsRevoked(c.Request().Context(), raw) {
				return domain.ErrSessionRevoked
			}
			session, ok := verifier.Verify(raw)
			if !ok {
				return domain.ErrInvalidSession
			}

			identity := session.Identity
			c.Set(identityKey, &identity)
			c.Set(tokenKey, raw)
			return next(c)
		}
	}
}

// OptionalIdentity attaches the caller identity when a valid token is present
// and otherwise lets the request through anonymously.
func OptionalIdentity(verifier ports.TokenVerifier, revocations ports.RevocationChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return next(c)
			}
			if revocations.IsRevoked(c.Request().Context(), raw) {
				return next(c)
			}
			if session, ok := verifier.Verify(raw); ok {
				identity := session.Identity
				c.Set(identityKey, &identity)
				c.Set(tokenKey, raw)
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the identity attached by Authenticate or
// OptionalIdentity, or nil for anonymous requests.
func IdentityFrom(c echo.Context) *domain.Identity {
	identity, _ := c.Get(identityKey).(*domain.Identity)
	return identity
}

// RawToken returns the bearer token the request was authenticated with.
func RawToken(c echo.Context) string {
	token, _ := c.Get(tokenKey).(string)
	return token
}

// RequestMeta describes the caller for audit records.
func RequestMeta(c echo.Context) domain.RequestMeta {
	return domain.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
