package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
	"github.com/capachica/turismo-api/internal/pkg/metrics"
)

type listingService struct {
	repo  ports.ListingRepository
	audit ports.AccessLogger
	log   zerolog.Logger
	now   func() time.Time
}

// NewListingService returns a ListingService implementation.
func NewListingService(repo ports.ListingRepository, audit ports.AccessLogger, log zerolog.Logger) ports.ListingService {
	return &listingService{repo: repo, audit: audit, log: log, now: time.Now}
}

// Create stores a new listing owned by owner. New listings always start pending.
func (s *listingService) Create(ctx context.Context, owner domain.Identity, in ports.CreateListingInput, meta domain.RequestMeta) (*domain.Listing, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.BadRequest("name is required")
	}
	if !in.Type.Valid() {
		return nil, domain.BadRequest("type is not a valid emprendimiento type")
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.Listing{
		OwnerID:       owner.AccountID,
		Name:          name,
		Description:   in.Description,
		Type:          in.Type,
		Address:       in.Address,
		SubdivisionID: in.SubdivisionID,
		Phone:         in.Phone,
		Email:         in.Email,
		Website:       in.Website,
		SocialLinks:   in.SocialLinks,
		Status:        domain.ListingPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventListingCreated, owner.AccountID, meta, map[string]any{
		"emprendimiento_id": created.ID,
	}))
	return created, nil
}

// Get returns the listing only when the viewer may see it. Hidden listings
// are reported as not found so their existence is not disclosed.
func (s *listingService) Get(ctx context.Context, id string, viewer *domain.Identity) (*domain.Listing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.VisibleTo(viewer) {
		return nil, domain.ErrListingNotFound
	}
	return l, nil
}

// List forces non-admin callers to approved listings; admins may filter by status.
func (s *listingService) List(ctx context.Context, viewer *domain.Identity, q ports.ListingQuery) (domain.Page[*domain.Listing], error) {
	page := q.Page.Normalize(domain.DefaultPageLimit)
	filter := ports.ListingFilter{
		Type:          q.Type,
		SubdivisionID: q.SubdivisionID,
		Search:        strings.TrimSpace(q.Search),
		Page:          page,
	}
	if viewer.IsAdmin() {
		filter.Status = q.Status
	} else {
		filter.Status = domain.ListingApproved
	}
	return s.list(ctx, filter)
}

func (s *listingService) ListMine(ctx context.Context, owner domain.Identity, page domain.PageRequest) (domain.Page[*domain.Listing], error) {
	return s.list(ctx, ports.ListingFilter{
		OwnerID: owner.AccountID,
		Page:    page.Normalize(domain.DefaultPageLimit),
	})
}

// ListPending returns the moderation queue, oldest first.
func (s *listingService) ListPending(ctx context.Context, page domain.PageRequest) (domain.Page[*domain.Listing], error) {
	return s.list(ctx, ports.ListingFilter{
		Status:      domain.ListingPending,
		OldestFirst: true,
		Page:        page.Normalize(domain.DefaultPageLimit),
	})
}

func (s *listingService) list(ctx context.Context, filter ports.ListingFilter) (domain.Page[*domain.Listing], error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.Page[*domain.Listing]{}, fmt.Errorf("list listings: %w", err)
	}
	return domain.NewPage(items, total, filter.Page), nil
}

// loadModifiable fetches a listing and checks that actor may change it.
// Listings the actor cannot see are reported as missing.
func (s *listingService) loadModifiable(ctx context.Context, actor domain.Identity, id string) (*domain.Listing, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.VisibleTo(&actor) {
		return nil, domain.ErrListingNotFound
	}
	if !l.ModifiableBy(actor) {
		return nil, domain.ErrListingOwner
	}
	return l, nil
}

func (s *listingService) Update(ctx context.Context, actor domain.Identity, id string, upd ports.ListingUpdate, meta domain.RequestMeta) (*domain.Listing, error) {
	if upd.Type != nil && !upd.Type.Valid() {
		return nil, domain.BadRequest("type is not a valid emprendimiento type")
	}
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		if trimmed == "" {
			return nil, domain.BadRequest("name must not be empty")
		}
		upd.Name = &trimmed
	}
	if _, err := s.loadModifiable(ctx, actor, id); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update listing: %w", err)
	}

	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventListingUpdated, actor.AccountID, meta, map[string]any{
		"emprendimiento_id": id,
		"admin_update":      actor.IsAdmin(),
	}))
	return updated, nil
}

func (s *listingService) Delete(ctx context.Context, actor domain.Identity, id string, meta domain.RequestMeta) error {
	if _, err := s.loadModifiable(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete listing: %w", err)
	}

	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventListingDeleted, actor.AccountID, meta, map[string]any{
		"emprendimiento_id": id,
		"admin_delete":      actor.IsAdmin(),
	}))
	return nil
}

// ChangeStatus moves a listing to status. Approval stamps the approver and
// date; every other status clears them. Setting the current status is a no-op.
func (s *listingService) ChangeStatus(ctx context.Context, admin domain.Identity, id string, status domain.ListingStatus, reason string, meta domain.RequestMeta) (*ports.StatusChangeResult, error) {
	if !status.Valid() {
		return nil, domain.BadRequest("status must be one of: pending, approved, rejected, suspended")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return &ports.StatusChangeResult{
			Message: fmt.Sprintf("Emprendimiento %s is already in status '%s'", id, status),
		}, nil
	}

	change := ports.StatusChange{Status: status, Reason: strings.TrimSpace(reason)}
	if status == domain.ListingApproved {
		now := s.now().UTC()
		change.ApprovedBy = admin.AccountID
		change.ApprovedAt = &now
	}

	updated, err := s.repo.SetStatus(ctx, id, change)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("change listing status: %w", err)
	}

	metrics.ListingStatusChangesTotal.WithLabelValues(string(status)).Inc()
	s.audit.Log(ctx, domain.NewAccessLogEntry(domain.EventListingStatusChanged, admin.AccountID, meta, map[string]any{
		"emprendimiento_id": id,
		"previous_status":   string(current.Status),
		"new_status":        string(status),
		"reason":            change.Reason,
	}))

	return &ports.StatusChangeResult{
		Message: fmt.Sprintf("Emprendimiento %s status updated to '%s'", id, status),
		Listing: updated,
	}, nil
}
