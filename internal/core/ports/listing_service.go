package ports

import (
	"context"

	"github.com/capachica/turismo-api/internal/core/domain"
)

// CreateListingInput carries the fields of a new listing.
type CreateListingInput struct {
	Name          string
	Description   string
	Type          domain.ListingType
	Address       string
	SubdivisionID *int64
	Phone         string
	Email         string
	Website       string
	SocialLinks   map[string]string
}

// ListingQuery is the public listing search.
type ListingQuery struct {
	Status        domain.ListingStatus
	Type          domain.ListingType
	SubdivisionID *int64
	Search        string
	Page          domain.PageRequest
}

// StatusChangeResult reports a status change; Listing is nil when nothing changed.
type StatusChangeResult struct {
	Message string          `json:"message"`
	Listing *domain.Listing `json:"emprendimiento,omitempty"`
}

type ListingService interface {
	Create(ctx context.Context, owner domain.Identity, in CreateListingInput, meta domain.RequestMeta) (*domain.Listing, error)
	// Get hides non-visible listings behind domain.ErrListingNotFound.
	Get(ctx context.Context, id string, viewer *domain.Identity) (*domain.Listing, error)
	List(ctx context.Context, viewer *domain.Identity, q ListingQuery) (domain.Page[*domain.Listing], error)
	ListMine(ctx context.Context, owner domain.Identity, page domain.PageRequest) (domain.Page[*domain.Listing], error)
	ListPending(ctx context.Context, page domain.PageRequest) (domain.Page[*domain.Listing], error)
	Update(ctx context.Context, actor domain.Identity, id string, upd ListingUpdate, meta domain.RequestMeta) (*domain.Listing, error)
	Delete(ctx context.Context, actor domain.Identity, id string, meta domain.RequestMeta) error
	ChangeStatus(ctx context.Context, admin domain.Identity, id string, status domain.ListingStatus, reason string, meta domain.RequestMeta) (*StatusChangeResult, error)
}
