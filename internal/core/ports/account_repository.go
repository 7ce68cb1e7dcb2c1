package ports

import (
	"context"
	"time"

	"github.com/capachica/turismo-api/internal/core/domain"
)

// AccountUpdate lists the account fields to change. Nil fields are left
// untouched. A pointer to an empty string clears a one-time token.
type AccountUpdate struct {
	Email                  *string
	PasswordHash           *string
	Active                 *bool
	EmailVerified          *bool
	VerificationToken      *string
	VerifiedToken          *string
	RecoveryToken          *string
	RecoveryTokenExpiresAt *time.Time
	LastAccessAt           *time.Time
	Preferences            map[string]any
}

// AccountFilter narrows the admin user listing.
type AccountFilter struct {
	EmailContains string
	Active        *bool
	Page          domain.PageRequest
}

// AccountRepository persists credentials and account lifecycle state.
type AccountRepository interface {
	// Create returns domain.ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// FindByVerificationToken also matches an account whose token was already consumed.
	FindByVerificationToken(ctx context.Context, token string) (*domain.Account, error)
	FindByRecoveryToken(ctx context.Context, token string) (*domain.Account, error)
	Update(ctx context.Context, id string, upd AccountUpdate) error
	List(ctx context.Context, filter AccountFilter) ([]*domain.Account, int64, error)
	// Delete is idempotent: deleting a missing account is not an error.
	Delete(ctx context.Context, id string) error
	// ClearExpiredRecoveryTokens removes reset tokens whose expiry is before now.
	ClearExpiredRecoveryTokens(ctx context.Context, now time.Time) (int64, error)
}

// PersonUpdate lists the profile fields to change. Nil fields are left untouched.
type PersonUpdate struct {
	FirstName     *string
	LastName      *string
	Phone         *string
	Address       *string
	PhotoURL      *string
	BirthDate     *time.Time
	SubdivisionID *int64
}

// Empty reports whether the update changes nothing.
func (u PersonUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil && u.Address == nil &&
		u.PhotoURL == nil && u.BirthDate == nil && u.SubdivisionID == nil
}

// PersonRepository persists personal profiles.
type PersonRepository interface {
	Create(ctx context.Context, person *domain.Person) (*domain.Person, error)
	FindByID(ctx context.Context, id string) (*domain.Person, error)
	Update(ctx context.Context, id string, upd PersonUpdate) error
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
}

// RoleRepository covers roles, permissions and account-role assignments.
type RoleRepository interface {
	FindByName(ctx context.Context, name domain.Role) (*domain.RoleRecord, error)
	FindByID(ctx context.Context, id int64) (*domain.RoleRecord, error)
	List(ctx context.Context) ([]domain.RoleRecord, error)
	RolesForAccount(ctx context.Context, accountID string) ([]domain.RoleRecord, error)
	// Assign reports false when the account already held the role.
	Assign(ctx context.Context, accountID string, roleID int64) (bool, error)
	// Unassign reports false when there was no such assignment.
	Unassign(ctx context.Context, accountID string, roleID int64) (bool, error)
	// UnassignAll is idempotent.
	UnassignAll(ctx context.Context, accountID string) error
	ListPermissions(ctx context.Context) ([]domain.Permission, error)
	PermissionsForRole(ctx context.Context, roleID int64) ([]domain.Permission, error)
}
