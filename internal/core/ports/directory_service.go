package ports

import (
	"context"

	"github.com/capachica/turismo-api/internal/core/domain"
)

type CatalogService interface {
	Countries(ctx context.Context) ([]domain.Country, error)
	Subdivisions(ctx context.Context, countryID *int64) ([]domain.Subdivision, error)
}

type RBACService interface {
	Roles(ctx context.Context) ([]domain.RoleRecord, error)
	Permissions(ctx context.Context) ([]domain.Permission, error)
	RolePermissions(ctx context.Context, roleID int64) ([]domain.Permission, error)
}

type AccessLogService interface {
	List(ctx context.Context, filter AccessLogFilter) (domain.Page[domain.AccessLogEntry], error)
}
