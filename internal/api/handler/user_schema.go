package handler

import (
	"time"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

const birthDateLayout = "2006-01-02"

type personFields struct {
	FirstName     *string `json:"first_name" validate:"omitempty,min=2,max=100"`
	LastName      *string `json:"last_name" validate:"omitempty,min=2,max=100"`
	Phone         *string `json:"phone" validate:"omitempty,max=30"`
	Address       *string `json:"address" validate:"omitempty,max=255"`
	BirthDate     *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	SubdivisionID *int64  `json:"subdivision_id" validate:"omitempty,gt=0"`
}

func (p personFields) toUpdate() (ports.PersonUpdate, error) {
	upd := ports.PersonUpdate{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Phone:         p.Phone,
		Address:       p.Address,
		SubdivisionID: p.SubdivisionID,
	}
	if p.BirthDate != nil {
		d, err := time.Parse(birthDateLayout, *p.BirthDate)
		if err != nil {
			return upd, domain.BadRequest("birth_date must use the format YYYY-MM-DD")
		}
		upd.BirthDate = &d
	}
	return upd, nil
}

type updateMeRequest struct {
	personFields
	Preferences map[string]any `json:"preferences"`
}

type adminUpdateUserRequest struct {
	personFields
	Email       *string        `json:"email" validate:"omitempty,email"`
	Active      *bool          `json:"active"`
	Preferences map[string]any `json:"preferences"`
}
