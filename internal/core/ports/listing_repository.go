package ports

import (
	"context"
	"time"

	"github.com/capachica/turismo-api/internal/core/domain"
)

// ListingFilter selects listings. Zero values mean "no filter".
type ListingFilter struct {
	Status        domain.ListingStatus
	Type          domain.ListingType
	SubdivisionID *int64
	OwnerID       string
	Search        string
	OldestFirst   bool
	Page          domain.PageRequest
}

// ListingUpdate lists editable listing fields. Nil fields are left untouched.
type ListingUpdate struct {
	Name          *string
	Description   *string
	Type          *domain.ListingType
	Address       *string
	SubdivisionID *int64
	Phone         *string
	Email         *string
	Website       *string
	SocialLinks   map[string]string
}

// StatusChange is applied atomically with the approval stamp.
type StatusChange struct {
	Status     domain.ListingStatus
	Reason     string
	ApprovedBy string
	ApprovedAt *time.Time
}

type ListingRepository interface {
	Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error)
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	Update(ctx context.Context, id string, upd ListingUpdate) (*domain.Listing, error)
	SetStatus(ctx context.Context, id string, change StatusChange) (*domain.Listing, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListingFilter) ([]*domain.Listing, int64, error)
}
