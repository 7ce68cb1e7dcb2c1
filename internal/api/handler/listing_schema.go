package handler

import (
	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

type createListingRequest struct {
	Name          string            `json:"name" validate:"required,max=150"`
	Description   string            `json:"description" validate:"omitempty,max=2000"`
	Type          string            `json:"type" validate:"required,listing_type"`
	Address       string            `json:"address" validate:"omitempty,max=255"`
	SubdivisionID *int64            `json:"subdivision_id" validate:"omitempty,gt=0"`
	Phone         string            `json:"phone" validate:"omitempty,max=30"`
	Email         string            `json:"email" validate:"omitempty,email"`
	Website       string            `json:"website" validate:"omitempty,url"`
	SocialLinks   map[string]string `json:"social_links"`
}

func (r createListingRequest) toInput() ports.CreateListingInput {
	return ports.CreateListingInput{
		Name:          r.Name,
		Description:   r.Description,
		Type:          domain.ListingType(r.Type),
		Address:       r.Address,
		SubdivisionID: r.SubdivisionID,
		Phone:         r.Phone,
		Email:         r.Email,
		Website:       r.Website,
		SocialLinks:   r.SocialLinks,
	}
}

// updateListingRequest is a partial update; absent fields are left untouched.
type updateListingRequest struct {
	Name          *string           `json:"name" validate:"omitempty,min=1,max=150"`
	Description   *string           `json:"description" validate:"omitempty,max=2000"`
	Type          *string           `json:"type" validate:"omitempty,listing_type"`
	Address       *string           `json:"address" validate:"omitempty,max=255"`
	SubdivisionID *int64            `json:"subdivision_id" validate:"omitempty,gt=0"`
	Phone         *string           `json:"phone" validate:"omitempty,max=30"`
	Email         *string           `json:"email" validate:"omitempty,email"`
	Website       *string           `json:"website" validate:"omitempty,url"`
	SocialLinks   map[string]string `json:"social_links"`
}

func (r updateListingRequest) toUpdate() ports.ListingUpdate {
	upd := ports.ListingUpdate{
		Name:          r.Name,
		Description:   r.Description,
		Address:       r.Address,
		SubdivisionID: r.SubdivisionID,
		Phone:         r.Phone,
		Email:         r.Email,
		Website:       r.Website,
		SocialLinks:   r.SocialLinks,
	}
	if r.Type != nil {
		t := domain.ListingType(*r.Type)
		upd.Type = &t
	}
	return upd
}

type statusRequest struct {
	Status string `json:"status" validate:"required,listing_status"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}
