package domain

import "time"

// Identity is the authenticated caller attached to a request.
type Identity struct {
	AccountID string
	Roles     RoleSet
}

// IsAdmin is safe to call on a nil identity.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Roles.Has(RoleAdmin)
}

// Session is a verified token payload.
type Session struct {
	Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RequestMeta describes where a request came from, for audit records.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// RevokedToken is a ledger entry. Only the SHA-256 digest of the raw token is kept.
type RevokedToken struct {
	Hash      string
	AccountID string
	RevokedAt time.Time
	ExpiresAt time.Time
	Meta      RequestMeta
}
