package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

type stubPhotos struct {
	stored  map[string]ports.PhotoUpload
	removed []string
}

func (p *stubPhotos) Store(_ context.Context, accountID string, up ports.PhotoUpload) (string, error) {
	if p.stored == nil {
		p.stored = make(map[string]ports.PhotoUpload)
	}
	p.stored[accountID] = up
	return "http://cdn.test/" + accountID + "/profile.jpg", nil
}

func (p *stubPhotos) Remove(_ context.Context, accountID string) error {
	p.removed = append(p.removed, accountID)
	return nil
}

func (p *stubPhotos) Open(_ context.Context, _ string) (*ports.StoredPhoto, error) {
	return nil, domain.ErrPhotoNotFound
}

type userFixture struct {
	svc      ports.UserService
	accounts *stubAccountRepo
	persons  *stubPersonRepo
	roles    *stubRoleRepo
	photos   *stubPhotos
	audit    *recordingAudit
}

func newUserFixture() *userFixture {
	f := &userFixture{
		accounts: newStubAccountRepo(),
		persons:  newStubPersonRepo(),
		roles:    newStubRoleRepo(),
		photos:   &stubPhotos{},
		audit:    &recordingAudit{},
	}
	f.svc = NewUserService(f.accounts, f.persons, f.roles, f.photos, f.audit, zerolog.Nop())
	return f
}

func (f *userFixture) seed(email string) *domain.Account {
	p, _ := f.persons.Create(context.Background(), &domain.Person{FirstName: "Rosa", LastName: "Mamani"})
	a, _ := f.accounts.Create(context.Background(), &domain.Account{Email: email, PersonID: p.ID, Active: true})
	_, _ = f.roles.Assign(context.Background(), a.ID, 3)
	return a
}

var adminIdentity = domain.Identity{AccountID: "admin-1", Roles: domain.RoleSet{domain.RoleAdmin}}

func TestUserService_Me(t *testing.T) {
	f := newUserFixture()
	a := f.seed("rosa@example.com")

	p, err := f.svc.Me(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if p.Email != "rosa@example.com" || p.Person == nil || p.Person.FirstName != "Rosa" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if len(p.Roles) != 1 || p.Roles[0].Name != domain.RoleCustomer {
		t.Fatalf("unexpected roles: %+v", p.Roles)
	}

	if _, err := f.svc.Me(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserService_UpdateMe(t *testing.T) {
	f := newUserFixture()
	a := f.seed("rosa@example.com")

	phone := "+51 999 111 222"
	p, err := f.svc.UpdateMe(context.Background(), a.ID, ports.ProfileUpdate{
		Preferences: map[string]any{"lang": "es"},
		Person:      ports.PersonUpdate{Phone: &phone},
	})
	if err != nil {
		t.Fatalf("update me: %v", err)
	}
	if p.Person.Phone != phone || p.Preferences["lang"] != "es" {
		t.Fatalf("unexpected profile after update: %+v", p)
	}

	short := "R"
	if _, err := f.svc.UpdateMe(context.Background(), a.ID, ports.ProfileUpdate{Person: ports.PersonUpdate{FirstName: &short}}); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestUserService_List(t *testing.T) {
	f := newUserFixture()
	f.seed("rosa@example.com")
	b := f.seed("luis@example.com")
	off := false
	_ = f.accounts.Update(context.Background(), b.ID, ports.AccountUpdate{Active: &off})

	page, err := f.svc.List(context.Background(), ports.AccountFilter{Active: &off})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Pagination.Total != 1 || page.Items[0].Email != "luis@example.com" {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Pagination.Limit != defaultUserPageLimit || page.Pagination.Page != 1 {
		t.Fatalf("unexpected pagination: %+v", page.Pagination)
	}

	page, _ = f.svc.List(context.Background(), ports.AccountFilter{EmailContains: "ROSA"})
	if page.Pagination.Total != 1 {
		t.Fatalf("email filter should match case-insensitively, got %d", page.Pagination.Total)
	}
}

func TestUserService_UpdateByAdmin_EmailConflict(t *testing.T) {
	f := newUserFixture()
	a := f.seed("rosa@example.com")
	f.seed("luis@example.com")

	taken := "LUIS@example.com"
	if _, err := f.svc.UpdateByAdmin(context.Background(), adminIdentity, a.ID, ports.AdminUserUpdate{Email: &taken}, domain.RequestMeta{}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	fresh := "rosa.m@example.com"
	p, err := f.svc.UpdateByAdmin(context.Background(), adminIdentity, a.ID, ports.AdminUserUpdate{Email: &fresh}, domain.RequestMeta{})
	if err != nil || p.Email != fresh {
		t.Fatalf("update email: %v %+v", err, p)
	}
	entry := f.audit.last()
	if entry.EventType != domain.EventUserUpdatedByAdmin || entry.AccountID != "admin-1" || entry.Details["target_user_id"] != a.ID {
		t.Fatalf("unexpected audit: %+v", entry)
	}
}

func TestUserService_Deactivate(t *testing.T) {
	f := newUserFixture()
	a := f.seed("rosa@example.com")

	if _, err := f.svc.Deactivate(context.Background(), adminIdentity, a.ID, domain.RequestMeta{}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	stored, _ := f.accounts.FindByID(context.Background(), a.ID)
	if stored.Active {
		t.Fatalf("expected soft delete to deactivate the account")
	}
	if f.audit.last().EventType != domain.EventUserDeletedByAdmin {
		t.Fatalf("expected deletion audit")
	}
}

func TestUserService_Roles(t *testing.T) {
	f := newUserFixture()
	a := f.seed("rosa@example.com")

	res, err := f.svc.AssignRole(context.Background(), adminIdentity, a.ID, 2, domain.RequestMeta{})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if f.audit.last().EventType != domain.EventRoleAssigned {
		t.Fatalf("expected role assigned audit")
	}

	res, err = f.svc.AssignRole(context.Background(), adminIdentity, a.ID, 2, domain.RequestMeta{})
	if err != nil || res.Message != "User already has this role" {
		t.Fatalf("assign must be idempotent: %v %+v", err, res)
	}

	if _, err := f.svc.AssignRole(context.Background(), adminIdentity, a.ID, 99, domain.RequestMeta{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected unknown role to be not found, got %v", err)
	}

	if _, err := f.svc.RemoveRole(context.Background(), adminIdentity, a.ID, 2, domain.RequestMeta{}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := f.svc.RemoveRole(context.Background(), adminIdentity, a.ID, 2, domain.RequestMeta{}); err != domain.ErrRoleNotAssigned {
		t.Fatalf("expected missing assignment error, got %v", err)
	}
}

func TestUserService_Photo(t *testing.T) {
	f := newUserFixture()
	a := f.seed("rosa@example.com")
	self := domain.Identity{AccountID: a.ID, Roles: domain.RoleSet{domain.RoleCustomer}}
	other := domain.Identity{AccountID: "someone", Roles: domain.RoleSet{domain.RoleCustomer}}

	if _, err := f.svc.UploadPhoto(context.Background(), other, a.ID, ports.PhotoUpload{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	res, err := f.svc.UploadPhoto(context.Background(), self, a.ID, ports.PhotoUpload{ContentType: "image/png", Data: []byte("x")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	p, _ := f.persons.FindByID(context.Background(), a.PersonID)
	if p.PhotoURL != res.PhotoURL {
		t.Fatalf("expected profile url %q, got %q", res.PhotoURL, p.PhotoURL)
	}

	if _, err := f.svc.RemovePhoto(context.Background(), self, a.ID, domain.RequestMeta{}); err != nil {
		t.Fatalf("remove own photo: %v", err)
	}
	if len(f.audit.events()) != 0 {
		t.Fatalf("self removal is not audited")
	}

	if _, err := f.svc.RemovePhoto(context.Background(), adminIdentity, a.ID, domain.RequestMeta{}); err != nil {
		t.Fatalf("admin remove: %v", err)
	}
	if f.audit.last().EventType != domain.EventUserProfilePhotoDeleted {
		t.Fatalf("expected admin photo removal audit")
	}
	p, _ = f.persons.FindByID(context.Background(), a.PersonID)
	if p.PhotoURL != "" {
		t.Fatalf("expected cleared photo url")
	}
}
