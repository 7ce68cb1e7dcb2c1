package domain

import "time"

// ListingStatus is the approval state of a listing.
type ListingStatus string

const (
	ListingPending   ListingStatus = "pending"
	ListingApproved  ListingStatus = "approved"
	ListingRejected  ListingStatus = "rejected"
	ListingSuspended ListingStatus = "suspended"
)

// ListingStatuses returns the closed set of statuses in lifecycle order.
func ListingStatuses() []ListingStatus {
	return []ListingStatus{ListingPending, ListingApproved, ListingRejected, ListingSuspended}
}

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingPending, ListingApproved, ListingRejected, ListingSuspended:
		return true
	}
	return false
}

// ListingType is the business category of a listing.
type ListingType string

const (
	ListingLodging     ListingType = "Hospedaje"
	ListingGuide       ListingType = "Guía"
	ListingFood        ListingType = "Comida"
	ListingCulture     ListingType = "Cultura"
	ListingPhotography ListingType = "Fotografía"
)

func ListingTypes() []ListingType {
	return []ListingType{ListingLodging, ListingGuide, ListingFood, ListingCulture, ListingPhotography}
}

func (t ListingType) Valid() bool {
	switch t {
	case ListingLodging, ListingGuide, ListingFood, ListingCulture, ListingPhotography:
		return true
	}
	return false
}

// Listing (emprendimiento) is a tourism business owned by an account.
type Listing struct {
	ID            string            `json:"id"`
	OwnerID       string            `json:"owner_id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Type          ListingType       `json:"type"`
	Address       string            `json:"address,omitempty"`
	SubdivisionID *int64            `json:"subdivision_id,omitempty"`
	Phone         string            `json:"phone,omitempty"`
	Email         string            `json:"email,omitempty"`
	Website       string            `json:"website,omitempty"`
	SocialLinks   map[string]string `json:"social_links,omitempty"`
	Status        ListingStatus     `json:"status"`
	StatusReason  string            `json:"status_reason,omitempty"`
	ApprovedBy    string            `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time        `json:"approved_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// VisibleTo applies the listing visibility rule: approved listings are public,
// anything else is visible only to its owner or an admin.
func (l *Listing) VisibleTo(viewer *Identity) bool {
	if l.Status == ListingApproved {
		return true
	}
	if viewer == nil {
		return false
	}
	return viewer.AccountID == l.OwnerID || viewer.IsAdmin()
}

// ModifiableBy reports whether actor may edit or delete the listing.
func (l *Listing) ModifiableBy(actor Identity) bool {
	return actor.AccountID == l.OwnerID || actor.IsAdmin()
}
