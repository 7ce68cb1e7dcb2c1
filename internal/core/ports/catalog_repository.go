package ports

import (
	"context"

	"github.com/capachica/turismo-api/internal/core/domain"
)

type CatalogRepository interface {
	Countries(ctx context.Context) ([]domain.Country, error)
	// Subdivisions returns all subdivisions when countryID is nil.
	Subdivisions(ctx context.Context, countryID *int64) ([]domain.Subdivision, error)
}
