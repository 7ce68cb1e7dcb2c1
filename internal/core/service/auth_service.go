package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
	"github.com/capachica/turismo-api/internal/pkg/metrics"
)

const (
	DefaultBcryptCost    = 10
	DefaultResetTokenTTL = time.Hour

	minPasswordLength = 8
	minNameLength     = 2

	msgRegistered      = "User registered successfully. Please verify your email."
	msgLoggedOut       = "Logged out successfully"
	msgEmailVerified   = "Email verified successfully"
	msgAlreadyVerified = "Email already verified"
	msgCanLogIn        = "Email already verified. You can log in."
	msgResent          = "Verification email sent"
	msgResetRequested  = "If an account with that email exists, a password reset link has been sent."
	msgPasswordReset   = "Password has been reset successfully"
)

// AuthConfig holds the tunables of the authentication flows.
type AuthConfig struct {
	BcryptCost    int
	ResetTokenTTL time.Duration
	// FrontendURL is the base of verification and reset links.
	FrontendURL string
	// ExposeTokens returns verification tokens in responses and logs reset
	// links. Development only.
	ExposeTokens bool
}

// AuthService implements registration, login, logout, email verification and
// password recovery.
type AuthService struct {
	accounts ports.AccountRepository
	persons  ports.PersonRepository
	roles    ports.RoleRepository
	tokens   ports.TokenIssuer
	ledger   ports.Revoker
	audit    ports.AccessLogger
	cfg      AuthConfig
	log      zerolog.Logger

	// dummyHash is compared against when no account matches a login email so
	// that both failure paths pay for one bcrypt comparison.
	dummyHash []byte
	now       func() time.Time
	newToken  func() string
}

func NewAuthService(
	accounts ports.AccountRepository,
	persons ports.PersonRepository,
	roles ports.RoleRepository,
	tokens ports.TokenIssuer,
	ledger ports.Revoker,
	audit ports.AccessLogger,
	cfg AuthConfig,
	log zerolog.Logger,
) (*AuthService, error) {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = DefaultBcryptCost
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = DefaultResetTokenTTL
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")

	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	return &AuthService{
		accounts:  accounts,
		persons:   persons,
		roles:     roles,
		tokens:    tokens,
		ledger:    ledger,
		audit:     audit,
		cfg:       cfg,
		log:       log,
		dummyHash: dummy,
		now:       time.Now,
		newToken:  uuid.NewString,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegistration(in ports.RegisterInput) error {
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return domain.BadRequest("email must be a valid email")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		return domain.BadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.FirstName)) < minNameLength {
		return domain.BadRequest(fmt.Sprintf("first_name must be at least %d characters", minNameLength))
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.LastName)) < minNameLength {
		return domain.BadRequest(fmt.Sprintf("last_name must be at least %d characters", minNameLength))
	}
	return nil
}

// Register creates person, account and default-role assignment. A failure
// after the first write undoes the earlier writes.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput, meta domain.RequestMeta) (*ports.RegisterResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	if _, err := s.accounts.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("register: lookup email: %w", err)
	}

	role, err := s.roles.FindByName(ctx, domain.DefaultRole)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return nil, fmt.Errorf("register: %w", domain.ErrDefaultRoleMissing)
		}
		return nil, fmt.Errorf("register: load default role: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	person, err := s.persons.Create(ctx, &domain.Person{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     strings.TrimSpace(in.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("register: create person: %w", err)
	}

	verification := s.newToken()
	account, err := s.accounts.Create(ctx, &domain.Account{
		Email:             in.Email,
		PasswordHash:      string(hash),
		PersonID:          person.ID,
		Active:            true,
		VerificationToken: verification,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		s.compensate(ctx, "", person.ID)
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("register: create account: %w", err)
	}

	if _, err := s.roles.Assign(ctx, account.ID, role.ID); err != nil {
		s.compensate(ctx, account.ID, person.ID)
		return nil, fmt.Errorf("register: assign default role: %w", err)
	}

	metrics.AuthOperationsTotal.WithLabelValues("register", "success").Inc()
	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventRegisterSuccess, account.ID, meta, map[string]any{"email": account.Email}))
	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventEmailVerificationRequest, account.ID, meta, nil))

	res := &ports.RegisterResult{
		ID:        account.ID,
		Email:     account.Email,
		FirstName: person.FirstName,
		LastName:  person.LastName,
		Roles:     []string{string(role.Name)},
		Message:   msgRegistered,
	}
	if s.cfg.ExposeTokens {
		res.VerificationToken = verification
		res.VerificationURL = s.cfg.FrontendURL + "/auth/verify-email/" + verification
	}
	return res, nil
}

// compensate removes records created by a failed registration. Every delete
// is idempotent; failures are logged and do not mask the original error.
func (s *AuthService) compensate(ctx context.Context, accountID, personID string) {
	ctx = context.WithoutCancel(ctx)
	if accountID != "" {
		if err := s.roles.UnassignAll(ctx, accountID); err != nil {
			s.log.Error().Err(err).Str("account_id", accountID).Msg("compensating delete of role assignments failed")
		}
		if err := s.accounts.Delete(ctx, accountID); err != nil {
			s.log.Error().Err(err).Str("account_id", accountID).Msg("compensating delete of account failed")
		}
	}
	if personID != "" {
		if err := s.persons.Delete(ctx, personID); err != nil {
			s.log.Error().Err(err).Str("person_id", personID).Msg("compensating delete of person failed")
		}
	}
}

// Login answers every credential failure with the same error. The reason is
// recorded only in the audit log.
func (s *AuthService) Login(ctx context.Context, email, password string, meta domain.RequestMeta) (*ports.LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.BadRequest("email and password are required")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("login: lookup email: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.loginFailed(ctx, "", email, "unknown_email", meta)
		return nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		s.loginFailed(ctx, account.ID, email, "invalid_password", meta)
		return nil, domain.ErrInvalidCredentials
	}
	if !account.Active {
		s.loginFailed(ctx, account.ID, email, "inactive_account", meta)
		return nil, domain.ErrInvalidCredentials
	}

	records, err := s.roles.RolesForAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("login: load roles: %w", err)
	}
	roles := make(domain.RoleSet, 0, len(records))
	for _, r := range records {
		roles = append(roles, r.Name)
	}

	token, expiresAt, err := s.tokens.Issue(account.ID, roles)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	now := s.now().UTC()
	if err := s.accounts.Update(ctx, account.ID, ports.AccountUpdate{LastAccessAt: &now}); err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID).Msg("failed to record last access")
	}

	user := ports.SessionUser{
		ID:            account.ID,
		Email:         account.Email,
		Roles:         roles.Strings(),
		EmailVerified: account.EmailVerified,
	}
	if person, err := s.persons.FindByID(ctx, account.PersonID); err == nil {
		user.FirstName = person.FirstName
		user.LastName = person.LastName
	} else {
		s.log.Warn().Err(err).Str("account_id", account.ID).Msg("failed to load profile on login")
	}

	metrics.AuthOperationsTotal.WithLabelValues("login", "success").Inc()
	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventLoginSuccess, account.ID, meta, nil))

	return &ports.LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, accountID, email, reason string, meta domain.RequestMeta) {
	metrics.AuthOperationsTotal.WithLabelValues("login", "failure").Inc()
	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventLoginFailure, accountID, meta, map[string]any{
		"email":  email,
		"reason": reason,
	}))
}

// Logout revokes the presented token. A ledger failure is logged but the
// logout still succeeds for the client.
func (s *AuthService) Logout(ctx context.Context, accountID, rawToken string, meta domain.RequestMeta) (*ports.MessageResult, error) {
	if err := s.ledger.Revoke(ctx, rawToken, accountID, meta); err != nil {
		s.log.Error().Err(err).Str("account_id", accountID).Msg("failed to revoke token on logout")
	}
	metrics.AuthOperationsTotal.WithLabelValues("logout", "success").Inc()
	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventLogout, accountID, meta, nil))
	return &ports.MessageResult{Message: msgLoggedOut}, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string, meta domain.RequestMeta) (*ports.MessageResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidVerificationToken
	}

	account, err := s.accounts.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidVerificationToken
		}
		return nil, fmt.Errorf("verify email: %w", err)
	}
	if account.EmailVerified {
		return &ports.MessageResult{Message: msgAlreadyVerified}, nil
	}

	verified, cleared := true, ""
	if err := s.accounts.Update(ctx, account.ID, ports.AccountUpdate{
		EmailVerified:     &verified,
		VerificationToken: &cleared,
		VerifiedToken:     &token,
	}); err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}

	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventEmailVerified, account.ID, meta, nil))
	return &ports.MessageResult{Message: msgEmailVerified}, nil
}

// ResendVerification rotates the verification token of an unverified account.
func (s *AuthService) ResendVerification(ctx context.Context, email string, meta domain.RequestMeta) (*ports.VerificationResult, error) {
	email = normalizeEmail(email)
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrUnknownEmail
		}
		return nil, fmt.Errorf("resend verification: %w", err)
	}
	if account.EmailVerified {
		return &ports.VerificationResult{Message: msgCanLogIn}, nil
	}

	token := s.newToken()
	if err := s.accounts.Update(ctx, account.ID, ports.AccountUpdate{VerificationToken: &token}); err != nil {
		return nil, fmt.Errorf("resend verification: %w", err)
	}

	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventVerificationEmailResent, account.ID, meta, nil))

	res := &ports.VerificationResult{Message: msgResent}
	if s.cfg.ExposeTokens {
		res.VerificationToken = token
		res.VerificationURL = s.cfg.FrontendURL + "/auth/verify-email/" + token
	}
	return res, nil
}

// RequestPasswordReset issues a reset token when the email belongs to an
// active account. The response is identical whether or not it does.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string, meta domain.RequestMeta) (*ports.MessageResult, error) {
	email = normalizeEmail(email)
	generic := &ports.MessageResult{Message: msgResetRequested}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventPasswordResetRequest, "", meta, map[string]any{"email": email, "matched": false}))
			return generic, nil
		}
		return nil, fmt.Errorf("request password reset: %w", err)
	}
	if !account.Active {
		s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventPasswordResetRequest, account.ID, meta, map[string]any{"email": email, "matched": false}))
		return generic, nil
	}

	token := s.newToken()
	expiresAt := s.now().UTC().Add(s.cfg.ResetTokenTTL)
	if err := s.accounts.Update(ctx, account.ID, ports.AccountUpdate{
		RecoveryToken:          &token,
		RecoveryTokenExpiresAt: &expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("request password reset: %w", err)
	}

	if s.cfg.ExposeTokens {
		s.log.Info().
			Str("account_id", account.ID).
			Str("reset_url", s.cfg.FrontendURL+"/auth/reset-password/"+token).
			Time("expires_at", expiresAt).
			Msg("password reset link issued")
	}

	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventPasswordResetRequest, account.ID, meta, map[string]any{"email": email, "matched": true}))
	return generic, nil
}

// ResetPassword consumes a reset token. Expired and unknown tokens are
// indistinguishable to the caller.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string, meta domain.RequestMeta) (*ports.MessageResult, error) {
	if utf8.RuneCountInString(newPassword) < minPasswordLength {
		return nil, domain.BadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidResetToken
	}

	account, err := s.accounts.FindByRecoveryToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidResetToken
		}
		return nil, fmt.Errorf("reset password: %w", err)
	}
	if !account.RecoveryTokenValid(s.now()) {
		cleared := ""
		if err := s.accounts.Update(ctx, account.ID, ports.AccountUpdate{RecoveryToken: &cleared}); err != nil {
			s.log.Error().Err(err).Str("account_id", account.ID).Msg("failed to clear expired reset token")
		}
		return nil, domain.ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("reset password: hash: %w", err)
	}
	hashed, cleared := string(hash), ""
	if err := s.accounts.Update(ctx, account.ID, ports.AccountUpdate{
		PasswordHash:  &hashed,
		RecoveryToken: &cleared,
	}); err != nil {
		return nil, fmt.Errorf("reset password: %w", err)
	}

	metrics.AuthOperationsTotal.WithLabelValues("password_reset", "success").Inc()
	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventPasswordResetSuccess, account.ID, meta, nil))
	return &ports.MessageResult{Message: msgPasswordReset}, nil
}
