package ports

import (
	"context"
	"time"

	"github.com/capachica/turismo-api/internal/core/domain"
)

// RegisterInput carries a self-registration request.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// RegisterResult is returned after a successful registration. The
// verification fields are populated only outside production.
type RegisterResult struct {
	ID                string   `json:"id"`
	Email             string   `json:"email"`
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	Roles             []string `json:"roles"`
	Message           string   `json:"message"`
	VerificationToken string   `json:"verification_token,omitempty"`
	VerificationURL   string   `json:"verification_url,omitempty"`
}

// SessionUser is the user summary returned by login.
type SessionUser struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	FirstName     string   `json:"first_name"`
	LastName      string   `json:"last_name"`
	Roles         []string `json:"roles"`
	EmailVerified bool     `json:"email_verified"`
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      SessionUser `json:"user"`
}

type MessageResult struct {
	Message string `json:"message"`
}

// VerificationResult answers a resend request; token fields are dev-only.
type VerificationResult struct {
	Message           string `json:"message"`
	VerificationToken string `json:"verification_token,omitempty"`
	VerificationURL   string `json:"verification_url,omitempty"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput, meta domain.RequestMeta) (*RegisterResult, error)
	Login(ctx context.Context, email, password string, meta domain.RequestMeta) (*LoginResult, error)
	Logout(ctx context.Context, accountID, rawToken string, meta domain.RequestMeta) (*MessageResult, error)
	VerifyEmail(ctx context.Context, token string, meta domain.RequestMeta) (*MessageResult, error)
	ResendVerification(ctx context.Context, email string, meta domain.RequestMeta) (*VerificationResult, error)
	RequestPasswordReset(ctx context.Context, email string, meta domain.RequestMeta) (*MessageResult, error)
	ResetPassword(ctx context.Context, token, newPassword string, meta domain.RequestMeta) (*MessageResult, error)
}
