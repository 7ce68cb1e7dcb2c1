package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	accounts  map[string]*domain.Account
	seq       int
	createErr error
	updateErr error
	deleted   []string
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.accounts {
		if existing.Email == a.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.seq++
	c := cloneAccount(a)
	c.ID = fmt.Sprintf("acc-%d", r.seq)
	r.accounts[c.ID] = c
	return cloneAccount(c), nil
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	if a, ok := r.accounts[id]; ok {
		return cloneAccount(a), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) find(match func(*domain.Account) bool) (*domain.Account, error) {
	for _, a := range r.accounts {
		if match(a) {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.Email == email })
}

func (r *stubAccountRepo) FindByVerificationToken(_ context.Context, token string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool {
		return token != "" && (a.VerificationToken == token || a.VerifiedToken == token)
	})
}

func (r *stubAccountRepo) FindByRecoveryToken(_ context.Context, token string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.RecoveryToken != "" && a.RecoveryToken == token })
}

func (r *stubAccountRepo) Update(_ context.Context, id string, upd ports.AccountUpdate) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if upd.Email != nil {
		a.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		a.PasswordHash = *upd.PasswordHash
	}
	if upd.Active != nil {
		a.Active = *upd.Active
	}
	if upd.EmailVerified != nil {
		a.EmailVerified = *upd.EmailVerified
	}
	if upd.VerificationToken != nil {
		a.VerificationToken = *upd.VerificationToken
	}
	if upd.VerifiedToken != nil {
		a.VerifiedToken = *upd.VerifiedToken
	}
	if upd.RecoveryToken != nil {
		a.RecoveryToken = *upd.RecoveryToken
		if a.RecoveryToken == "" {
			a.RecoveryTokenExpiresAt = nil
		}
	}
	if upd.RecoveryTokenExpiresAt != nil {
		t := *upd.RecoveryTokenExpiresAt
		a.RecoveryTokenExpiresAt = &t
	}
	if upd.LastAccessAt != nil {
		t := *upd.LastAccessAt
		a.LastAccessAt = &t
	}
	if upd.Preferences != nil {
		a.Preferences = upd.Preferences
	}
	return nil
}

func (r *stubAccountRepo) List(_ context.Context, f ports.AccountFilter) ([]*domain.Account, int64, error) {
	var out []*domain.Account
	for _, a := range r.accounts {
		if f.EmailContains != "" && !strings.Contains(a.Email, f.EmailContains) {
			continue
		}
		if f.Active != nil && a.Active != *f.Active {
			continue
		}
		out = append(out, cloneAccount(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubAccountRepo) Delete(_ context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	delete(r.accounts, id)
	return nil
}

func (r *stubAccountRepo) ClearExpiredRecoveryTokens(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, a := range r.accounts {
		if a.RecoveryTokenExpiresAt != nil && a.RecoveryTokenExpiresAt.Before(now) {
			a.RecoveryToken = ""
			a.RecoveryTokenExpiresAt = nil
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Persons
// ---------------------------------------------------------------------------

type stubPersonRepo struct {
	persons map[string]*domain.Person
	seq     int
	deleted []string
}

func newStubPersonRepo() *stubPersonRepo {
	return &stubPersonRepo{persons: make(map[string]*domain.Person)}
}

func (r *stubPersonRepo) Create(_ context.Context, p *domain.Person) (*domain.Person, error) {
	r.seq++
	c := *p
	c.ID = fmt.Sprintf("per-%d", r.seq)
	r.persons[c.ID] = &c
	out := c
	return &out, nil
}

func (r *stubPersonRepo) FindByID(_ context.Context, id string) (*domain.Person, error) {
	if p, ok := r.persons[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, domain.ErrPersonNotFound
}

func (r *stubPersonRepo) Update(_ context.Context, id string, upd ports.PersonUpdate) error {
	p, ok := r.persons[id]
	if !ok {
		return domain.ErrPersonNotFound
	}
	if upd.FirstName != nil {
		p.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		p.LastName = *upd.LastName
	}
	if upd.Phone != nil {
		p.Phone = *upd.Phone
	}
	if upd.Address != nil {
		p.Address = *upd.Address
	}
	if upd.PhotoURL != nil {
		p.PhotoURL = *upd.PhotoURL
	}
	return nil
}

func (r *stubPersonRepo) Delete(_ context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	delete(r.persons, id)
	return nil
}

// ---------------------------------------------------------------------------
// Roles
// ---------------------------------------------------------------------------

type stubRoleRepo struct {
	roles       []domain.RoleRecord
	assignments map[string]map[int64]bool
	assignErr   error
	permissions map[int64][]domain.Permission
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{
		roles:       append([]domain.RoleRecord(nil), domain.BaseRoles...),
		assignments: make(map[string]map[int64]bool),
		permissions: map[int64][]domain.Permission{
			1: {{ID: 1, Name: "manage_users"}, {ID: 2, Name: "approve_emprendimientos"}},
		},
	}
}

func (r *stubRoleRepo) FindByName(_ context.Context, name domain.Role) (*domain.RoleRecord, error) {
	for _, role := range r.roles {
		if role.Name == name {
			c := role
			return &c, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (r *stubRoleRepo) FindByID(_ context.Context, id int64) (*domain.RoleRecord, error) {
	for _, role := range r.roles {
		if role.ID == id {
			c := role
			return &c, nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (r *stubRoleRepo) List(_ context.Context) ([]domain.RoleRecord, error) {
	return append([]domain.RoleRecord(nil), r.roles...), nil
}

func (r *stubRoleRepo) RolesForAccount(_ context.Context, accountID string) ([]domain.RoleRecord, error) {
	var out []domain.RoleRecord
	for _, role := range r.roles {
		if r.assignments[accountID][role.ID] {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *stubRoleRepo) Assign(_ context.Context, accountID string, roleID int64) (bool, error) {
	if r.assignErr != nil {
		return false, r.assignErr
	}
	if r.assignments[accountID] == nil {
		r.assignments[accountID] = make(map[int64]bool)
	}
	if r.assignments[accountID][roleID] {
		return false, nil
	}
	r.assignments[accountID][roleID] = true
	return true, nil
}

func (r *stubRoleRepo) Unassign(_ context.Context, accountID string, roleID int64) (bool, error) {
	if !r.assignments[accountID][roleID] {
		return false, nil
	}
	delete(r.assignments[accountID], roleID)
	return true, nil
}

func (r *stubRoleRepo) UnassignAll(_ context.Context, accountID string) error {
	delete(r.assignments, accountID)
	return nil
}

func (r *stubRoleRepo) ListPermissions(_ context.Context) ([]domain.Permission, error) {
	var out []domain.Permission
	for _, ps := range r.permissions {
		out = append(out, ps...)
	}
	return out, nil
}

func (r *stubRoleRepo) PermissionsForRole(_ context.Context, roleID int64) ([]domain.Permission, error) {
	return r.permissions[roleID], nil
}

// ---------------------------------------------------------------------------
// Audit, tokens, revocation
// ---------------------------------------------------------------------------

type recordingAudit struct {
	mu      sync.Mutex
	entries []domain.AccessLogEntry
}

func (a *recordingAudit) Log(_ context.Context, e domain.AccessLogEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *recordingAudit) events() []domain.EventType {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.EventType, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.EventType
	}
	return out
}

func (a *recordingAudit) last() domain.AccessLogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == 0 {
		return domain.AccessLogEntry{}
	}
	return a.entries[len(a.entries)-1]
}

type stubRevoker struct {
	revoked []string
	err     error
}

func (r *stubRevoker) Revoke(_ context.Context, raw, _ string, _ domain.RequestMeta) error {
	if r.err != nil {
		return r.err
	}
	r.revoked = append(r.revoked, raw)
	return nil
}

type memRevocationStore struct {
	mu      sync.Mutex
	entries map[string]domain.RevokedToken
	err     error
}

func newMemRevocationStore() *memRevocationStore {
	return &memRevocationStore{entries: make(map[string]domain.RevokedToken)}
}

func (s *memRevocationStore) Save(_ context.Context, t domain.RevokedToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries[t.Hash] = t
	return nil
}

func (s *memRevocationStore) Exists(_ context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.entries[hash]
	return ok, nil
}

var errStoreDown = errors.New("store unavailable")
