package domain

import "time"

// Account holds credentials and lifecycle state. Profile data lives on Person.
type Account struct {
	ID                     string
	Email                  string
	PasswordHash           string
	PersonID               string
	Active                 bool
	EmailVerified          bool
	VerificationToken      string
	// VerifiedToken is the verification token that was consumed. It only
	// resolves repeat verifications to a no-op.
	VerifiedToken          string
	RecoveryToken          string
	RecoveryTokenExpiresAt *time.Time
	LastAccessAt           *time.Time
	Preferences            map[string]any
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// RecoveryTokenValid reports whether the stored reset token is still usable at now.
func (a *Account) RecoveryTokenValid(now time.Time) bool {
	return a.RecoveryToken != "" && a.RecoveryTokenExpiresAt != nil && now.Before(*a.RecoveryTokenExpiresAt)
}

// Person is the personal profile attached to an account.
type Person struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Phone         string     `json:"phone,omitempty"`
	Address       string     `json:"address,omitempty"`
	PhotoURL      string     `json:"photo_url,omitempty"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	SubdivisionID *int64     `json:"subdivision_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UserProfile is the client-facing view of an account with its person and roles.
type UserProfile struct {
	ID            string         `json:"id"`
	Email         string         `json:"email"`
	Active        bool           `json:"active"`
	EmailVerified bool           `json:"email_verified"`
	LastAccessAt  *time.Time     `json:"last_access_at,omitempty"`
	Preferences   map[string]any `json:"preferences,omitempty"`
	Roles         []RoleRecord   `json:"roles"`
	Person        *Person        `json:"person,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewUserProfile assembles the public view; the password hash and one-time
// tokens never leave the account.
func NewUserProfile(a *Account, p *Person, roles []RoleRecord) *UserProfile {
	if roles == nil {
		roles = []RoleRecord{}
	}
	return &UserProfile{
		ID:            a.ID,
		Email:         a.Email,
		Active:        a.Active,
		EmailVerified: a.EmailVerified,
		LastAccessAt:  a.LastAccessAt,
		Preferences:   a.Preferences,
		Roles:         roles,
		Person:        p,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
