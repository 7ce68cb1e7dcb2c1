package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubListingRepo struct {
	listings   map[string]*domain.Listing
	seq        int
	lastFilter ports.ListingFilter
}

func newStubListingRepo() *stubListingRepo {
	return &stubListingRepo{listings: make(map[string]*domain.Listing)}
}

func (r *stubListingRepo) put(l domain.Listing) *domain.Listing {
	r.seq++
	if l.ID == "" {
		l.ID = fmt.Sprintf("lst-%d", r.seq)
	}
	r.listings[l.ID] = &l
	return &l
}

func (r *stubListingRepo) Create(_ context.Context, l *domain.Listing) (*domain.Listing, error) {
	c := r.put(*l)
	out := *c
	return &out, nil
}

func (r *stubListingRepo) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	c := *l
	return &c, nil
}

func (r *stubListingRepo) Update(_ context.Context, id string, upd ports.ListingUpdate) (*domain.Listing, error) {
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	if upd.Name != nil {
		l.Name = *upd.Name
	}
	if upd.Description != nil {
		l.Description = *upd.Description
	}
	c := *l
	return &c, nil
}

func (r *stubListingRepo) SetStatus(_ context.Context, id string, ch ports.StatusChange) (*domain.Listing, error) {
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	l.Status = ch.Status
	l.StatusReason = ch.Reason
	l.ApprovedBy = ch.ApprovedBy
	l.ApprovedAt = ch.ApprovedAt
	c := *l
	return &c, nil
}

func (r *stubListingRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.listings[id]; !ok {
		return domain.ErrListingNotFound
	}
	delete(r.listings, id)
	return nil
}

func (r *stubListingRepo) List(_ context.Context, f ports.ListingFilter) ([]*domain.Listing, int64, error) {
	r.lastFilter = f
	var out []*domain.Listing
	for _, l := range r.listings {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.OwnerID != "" && l.OwnerID != f.OwnerID {
			continue
		}
		c := *l
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

var (
	owner    = domain.Identity{AccountID: "owner", Roles: domain.RoleSet{domain.RoleEntrepreneur}}
	stranger = domain.Identity{AccountID: "stranger", Roles: domain.RoleSet{domain.RoleEntrepreneur}}
	admin    = domain.Identity{AccountID: "admin", Roles: domain.RoleSet{domain.RoleAdmin}}
)

func newListingFixture() (*listingService, *stubListingRepo, *recordingAudit) {
	repo := newStubListingRepo()
	audit := &recordingAudit{}
	svc := NewListingService(repo, audit, zerolog.Nop()).(*listingService)
	return svc, repo, audit
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestListingService_Create_StartsPending(t *testing.T) {
	svc, _, audit := newListingFixture()

	l, err := svc.Create(context.Background(), owner, ports.CreateListingInput{
		Name: "  Casa Titicaca ",
		Type: domain.ListingLodging,
	}, domain.RequestMeta{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.Status != domain.ListingPending || l.OwnerID != "owner" || l.Name != "Casa Titicaca" {
		t.Fatalf("unexpected listing: %+v", l)
	}
	if audit.last().EventType != domain.EventListingCreated {
		t.Fatalf("expected creation audit")
	}
}

func TestListingService_Create_Validation(t *testing.T) {
	svc, _, _ := newListingFixture()

	if _, err := svc.Create(context.Background(), owner, ports.CreateListingInput{Name: "x", Type: "Spa"}, domain.RequestMeta{}); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected bad request for unknown type, got %v", err)
	}
	if _, err := svc.Create(context.Background(), owner, ports.CreateListingInput{Name: " ", Type: domain.ListingFood}, domain.RequestMeta{}); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected bad request for empty name, got %v", err)
	}
}

func TestListingService_Get_Visibility(t *testing.T) {
	svc, repo, _ := newListingFixture()
	pending := repo.put(domain.Listing{OwnerID: "owner", Status: domain.ListingPending})
	approved := repo.put(domain.Listing{OwnerID: "owner", Status: domain.ListingApproved})

	tests := []struct {
		name    string
		id      string
		viewer  *domain.Identity
		visible bool
	}{
		{"anonymous approved", approved.ID, nil, true},
		{"anonymous pending", pending.ID, nil, false},
		{"stranger pending", pending.ID, &stranger, false},
		{"owner pending", pending.ID, &owner, true},
		{"admin pending", pending.ID, &admin, true},
		{"missing", "nope", &admin, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, err := svc.Get(context.Background(), tc.id, tc.viewer)
			if tc.visible {
				if err != nil || l == nil {
					t.Fatalf("expected listing, got %v", err)
				}
				return
			}
			if !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
		})
	}
}

func TestListingService_List_ForcesApprovedForNonAdmins(t *testing.T) {
	svc, repo, _ := newListingFixture()
	repo.put(domain.Listing{OwnerID: "owner", Status: domain.ListingPending})
	repo.put(domain.Listing{OwnerID: "owner", Status: domain.ListingApproved})
	repo.put(domain.Listing{OwnerID: "owner", Status: domain.ListingRejected})

	page, err := svc.List(context.Background(), &owner, ports.ListingQuery{Status: domain.ListingPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.lastFilter.Status != domain.ListingApproved {
		t.Fatalf("non-admin status filter must be forced to approved, got %q", repo.lastFilter.Status)
	}
	if page.Pagination.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("expected only approved listing, got %+v", page.Pagination)
	}

	page, _ = svc.List(context.Background(), nil, ports.ListingQuery{})
	if page.Pagination.Total != 1 {
		t.Fatalf("anonymous callers see approved only")
	}

	page, _ = svc.List(context.Background(), &admin, ports.ListingQuery{})
	if page.Pagination.Total != 3 {
		t.Fatalf("admin without filter sees all, got %d", page.Pagination.Total)
	}
	page, _ = svc.List(context.Background(), &admin, ports.ListingQuery{Status: domain.ListingRejected})
	if page.Pagination.Total != 1 {
		t.Fatalf("admin status filter applies, got %d", page.Pagination.Total)
	}
}

func TestListingService_ListPending_OldestFirst(t *testing.T) {
	svc, repo, _ := newListingFixture()
	if _, err := svc.ListPending(context.Background(), domain.PageRequest{}); err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if !repo.lastFilter.OldestFirst || repo.lastFilter.Status != domain.ListingPending {
		t.Fatalf("unexpected filter: %+v", repo.lastFilter)
	}
	if repo.lastFilter.Page.Page != 1 || repo.lastFilter.Page.Limit != domain.DefaultPageLimit {
		t.Fatalf("expected normalized page, got %+v", repo.lastFilter.Page)
	}
}

func TestListingService_UpdateAndDelete_Ownership(t *testing.T) {
	svc, repo, audit := newListingFixture()
	l := repo.put(domain.Listing{OwnerID: "owner", Name: "Old", Status: domain.ListingApproved})
	name := "New"

	if _, err := svc.Update(context.Background(), stranger, l.ID, ports.ListingUpdate{Name: &name}, domain.RequestMeta{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}
	updated, err := svc.Update(context.Background(), owner, l.ID, ports.ListingUpdate{Name: &name}, domain.RequestMeta{})
	if err != nil || updated.Name != "New" {
		t.Fatalf("owner update failed: %v %+v", err, updated)
	}
	if audit.last().EventType != domain.EventListingUpdated {
		t.Fatalf("expected update audit")
	}

	if err := svc.Delete(context.Background(), stranger, l.ID, domain.RequestMeta{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), admin, l.ID, domain.RequestMeta{}); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if err := svc.Delete(context.Background(), admin, l.ID, domain.RequestMeta{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestListingService_UpdateAndDelete_HiddenFromStrangers(t *testing.T) {
	svc, repo, _ := newListingFixture()
	l := repo.put(domain.Listing{OwnerID: "owner", Name: "Draft", Status: domain.ListingPending})
	name := "Taken"

	if _, err := svc.Update(context.Background(), stranger, l.ID, ports.ListingUpdate{Name: &name}, domain.RequestMeta{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for a stranger on a pending listing, got %v", err)
	}
	if err := svc.Delete(context.Background(), stranger, l.ID, domain.RequestMeta{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found delete, got %v", err)
	}
	if _, err := svc.Update(context.Background(), owner, l.ID, ports.ListingUpdate{Name: &name}, domain.RequestMeta{}); err != nil {
		t.Fatalf("owner must still edit a pending listing: %v", err)
	}
}

func TestListingService_ChangeStatus(t *testing.T) {
	svc, repo, audit := newListingFixture()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	l := repo.put(domain.Listing{OwnerID: "owner", Status: domain.ListingPending})

	res, err := svc.ChangeStatus(context.Background(), admin, l.ID, domain.ListingApproved, "", domain.RequestMeta{})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.Listing.ApprovedBy != "admin" || res.Listing.ApprovedAt == nil || !res.Listing.ApprovedAt.Equal(now) {
		t.Fatalf("approval must stamp approver and date: %+v", res.Listing)
	}
	if audit.last().Details["previous_status"] != "pending" {
		t.Fatalf("unexpected audit details: %+v", audit.last().Details)
	}

	res, err = svc.ChangeStatus(context.Background(), admin, l.ID, domain.ListingApproved, "", domain.RequestMeta{})
	if err != nil || res.Listing != nil {
		t.Fatalf("same status must be a no-op, got %v %+v", err, res)
	}

	res, err = svc.ChangeStatus(context.Background(), admin, l.ID, domain.ListingSuspended, "complaints", domain.RequestMeta{})
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if res.Listing.ApprovedBy != "" || res.Listing.ApprovedAt != nil || res.Listing.StatusReason != "complaints" {
		t.Fatalf("non-approved status must clear approval: %+v", res.Listing)
	}

	if _, err := svc.ChangeStatus(context.Background(), admin, l.ID, "archived", "", domain.RequestMeta{}); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected bad request for unknown status, got %v", err)
	}
}
