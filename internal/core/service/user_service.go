package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

const defaultUserPageLimit = 20

type photoStorer interface {
	Store(ctx context.Context, accountID string, up ports.PhotoUpload) (string, error)
	Remove(ctx context.Context, accountID string) error
	Open(ctx context.Context, key string) (*ports.StoredPhoto, error)
}

type userService struct {
	accounts ports.AccountRepository
	persons  ports.PersonRepository
	roles    ports.RoleRepository
	photos   photoStorer
	audit    ports.AccessLogger
	log      zerolog.Logger
}

// NewUserService returns a UserService implementation.
func NewUserService(
	accounts ports.AccountRepository,
	persons ports.PersonRepository,
	roles ports.RoleRepository,
	photos photoStorer,
	audit ports.AccessLogger,
	log zerolog.Logger,
) ports.UserService {
	return &userService{
		accounts: accounts,
		persons:  persons,
		roles:    roles,
		photos:   photos,
		audit:    audit,
		log:      log,
	}
}

// profile assembles account, person and roles. A missing person is tolerated.
func (s *userService) profile(ctx context.Context, a *domain.Account) (*domain.UserProfile, error) {
	var person *domain.Person
	if a.PersonID != "" {
		p, err := s.persons.FindByID(ctx, a.PersonID)
		switch {
		case err == nil:
			person = p
		case errors.Is(err, domain.ErrPersonNotFound):
			s.log.Warn().Str("account_id", a.ID).Msg("account has no profile")
		default:
			return nil, fmt.Errorf("load profile: %w", err)
		}
	}

	roles, err := s.roles.RolesForAccount(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	return domain.NewUserProfile(a, person, roles), nil
}

func (s *userService) Me(ctx context.Context, accountID string) (*domain.UserProfile, error) {
	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, a)
}

func (s *userService) Get(ctx context.Context, id string) (*domain.UserProfile, error) {
	return s.Me(ctx, id)
}

func validatePersonUpdate(upd ports.PersonUpdate) error {
	if upd.FirstName != nil && utf8.RuneCountInString(strings.TrimSpace(*upd.FirstName)) < minNameLength {
		return domain.BadRequest(fmt.Sprintf("first_name must be at least %d characters", minNameLength))
	}
	if upd.LastName != nil && utf8.RuneCountInString(strings.TrimSpace(*upd.LastName)) < minNameLength {
		return domain.BadRequest(fmt.Sprintf("last_name must be at least %d characters", minNameLength))
	}
	return nil
}

func (s *userService) applyPersonUpdate(ctx context.Context, a *domain.Account, upd ports.PersonUpdate) error {
	if upd.Empty() {
		return nil
	}
	if a.PersonID == "" {
		return domain.ErrPersonNotFound
	}
	if err := s.persons.Update(ctx, a.PersonID, upd); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (s *userService) UpdateMe(ctx context.Context, accountID string, upd ports.ProfileUpdate) (*domain.UserProfile, error) {
	if err := validatePersonUpdate(upd.Person); err != nil {
		return nil, err
	}
	a, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if upd.Preferences != nil {
		if err := s.accounts.Update(ctx, a.ID, ports.AccountUpdate{Preferences: upd.Preferences}); err != nil {
			return nil, fmt.Errorf("update preferences: %w", err)
		}
	}
	if err := s.applyPersonUpdate(ctx, a, upd.Person); err != nil {
		return nil, err
	}
	return s.Me(ctx, accountID)
}

func (s *userService) List(ctx context.Context, filter ports.AccountFilter) (domain.Page[*domain.UserProfile], error) {
	filter.Page = filter.Page.Normalize(defaultUserPageLimit)
	filter.EmailContains = normalizeEmail(filter.EmailContains)

	accounts, total, err := s.accounts.List(ctx, filter)
	if err != nil {
		return domain.Page[*domain.UserProfile]{}, fmt.Errorf("list users: %w", err)
	}

	out := make([]*domain.UserProfile, 0, len(accounts))
	for _, a := range accounts {
		p, err := s.profile(ctx, a)
		if err != nil {
			return domain.Page[*domain.UserProfile]{}, err
		}
		out = append(out, p)
	}
	return domain.NewPage(out, total, filter.Page), nil
}

func (s *userService) UpdateByAdmin(ctx context.Context, admin domain.Identity, id string, upd ports.AdminUserUpdate, meta domain.RequestMeta) (*domain.UserProfile, error) {
	if err := validatePersonUpdate(upd.Person); err != nil {
		return nil, err
	}
	a, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	accUpd := ports.AccountUpdate{Active: upd.Active, Preferences: upd.Preferences}
	changed := []string{}
	if upd.Email != nil {
		email := normalizeEmail(*upd.Email)
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			return nil, domain.BadRequest("email must be a valid email")
		}
		if email != a.Email {
			if other, err := s.accounts.FindByEmail(ctx, email); err == nil && other.ID != a.ID {
				return nil, domain.ErrEmailTaken
			} else if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
				return nil, fmt.Errorf("update user: lookup email: %w", err)
			}
			accUpd.Email = &email
			changed = append(changed, "email")
		}
	}
	if upd.Active != nil {
		changed = append(changed, "active")
	}
	if upd.Preferences != nil {
		changed = append(changed, "preferences")
	}

	if accUpd.Email != nil || accUpd.Active != nil || accUpd.Preferences != nil {
		if err := s.accounts.Update(ctx, a.ID, accUpd); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, err
			}
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	if !upd.Person.Empty() {
		if err := s.applyPersonUpdate(ctx, a, upd.Person); err != nil {
			return nil, err
		}
		changed = append(changed, "person")
	}

	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventUserUpdatedByAdmin, admin.AccountID, meta, map[string]any{
		"target_user_id": a.ID,
		"fields":         changed,
	}))
	return s.Me(ctx, a.ID)
}

// Deactivate is a soft delete: the account is kept but can no longer log in.
func (s *userService) Deactivate(ctx context.Context, admin domain.Identity, id string, meta domain.RequestMeta) (*ports.MessageResult, error) {
	a, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	inactive := false
	if err := s.accounts.Update(ctx, a.ID, ports.AccountUpdate{Active: &inactive}); err != nil {
		return nil, fmt.Errorf("deactivate user: %w", err)
	}

	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventUserDeletedByAdmin, admin.AccountID, meta, map[string]any{
		"target_user_id": a.ID,
	}))
	return &ports.MessageResult{Message: fmt.Sprintf("User %s deactivated successfully.", a.ID)}, nil
}

func (s *userService) loadAccountAndRole(ctx context.Context, id string, roleID int64) (*domain.Account, *domain.RoleRecord, error) {
	a, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return nil, nil, err
	}
	return a, role, nil
}

func (s *userService) AssignRole(ctx context.Context, admin domain.Identity, id string, roleID int64, meta domain.RequestMeta) (*ports.MessageResult, error) {
	a, role, err := s.loadAccountAndRole(ctx, id, roleID)
	if err != nil {
		return nil, err
	}
	added, err := s.roles.Assign(ctx, a.ID, role.ID)
	if err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}
	if !added {
		return &ports.MessageResult{Message: "User already has this role"}, nil
	}

	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventRoleAssigned, admin.AccountID, meta, map[string]any{
		"target_user_id": a.ID,
		"role_id":        role.ID,
		"role":           string(role.Name),
	}))
	return &ports.MessageResult{Message: fmt.Sprintf("Role '%s' assigned successfully", role.Name)}, nil
}

func (s *userService) RemoveRole(ctx context.Context, admin domain.Identity, id string, roleID int64, meta domain.RequestMeta) (*ports.MessageResult, error) {
	a, role, err := s.loadAccountAndRole(ctx, id, roleID)
	if err != nil {
		return nil, err
	}
	removed, err := s.roles.Unassign(ctx, a.ID, role.ID)
	if err != nil {
		return nil, fmt.Errorf("remove role: %w", err)
	}
	if !removed {
		return nil, domain.ErrRoleNotAssigned
	}

	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventRoleRemoved, admin.AccountID, meta, map[string]any{
		"target_user_id": a.ID,
		"role_id":        role.ID,
		"role":           string(role.Name),
	}))
	return &ports.MessageResult{Message: fmt.Sprintf("Role '%s' removed successfully", role.Name)}, nil
}

func canManagePhoto(actor domain.Identity, id string) bool {
	return actor.AccountID == id || actor.IsAdmin()
}

func (s *userService) UploadPhoto(ctx context.Context, actor domain.Identity, id string, photo ports.PhotoUpload) (*ports.PhotoResult, error) {
	if !canManagePhoto(actor, id) {
		return nil, domain.ErrInsufficientRole
	}
	a, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.PersonID == "" {
		return nil, domain.ErrPersonNotFound
	}

	url, err := s.photos.Store(ctx, a.ID, photo)
	if err != nil {
		return nil, err
	}
	if err := s.persons.Update(ctx, a.PersonID, ports.PersonUpdate{PhotoURL: &url}); err != nil {
		return nil, fmt.Errorf("save photo url: %w", err)
	}
	return &ports.PhotoResult{Message: "Profile photo updated successfully", PhotoURL: url}, nil
}

// RemovePhoto deletes the stored photo and clears the profile URL. Removals
// performed by an admin on someone else's account are audited.
func (s *userService) RemovePhoto(ctx context.Context, actor domain.Identity, id string, meta domain.RequestMeta) (*ports.MessageResult, error) {
	if !canManagePhoto(actor, id) {
		return nil, domain.ErrInsufficientRole
	}
	a, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.photos.Remove(ctx, a.ID); err != nil {
		return nil, err
	}
	if a.PersonID != "" {
		cleared := ""
		if err := s.persons.Update(ctx, a.PersonID, ports.PersonUpdate{PhotoURL: &cleared}); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("clear photo url: %w", err)
		}
	}

	if actor.AccountID != a.ID {
		s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventUserProfilePhotoDeleted, actor.AccountID, meta, map[string]any{
			"target_user_id": a.ID,
		}))
	}
	return &ports.MessageResult{Message: "Profile photo removed successfully"}, nil
}

func (s *userService) OpenPhoto(ctx context.Context, key string) (*ports.StoredPhoto, error) {
	return s.photos.Open(ctx, key)
}
