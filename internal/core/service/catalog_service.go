package service

import (
	"context"
	"fmt"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

type catalogService struct {
	repo ports.CatalogRepository
}

func NewCatalogService(repo ports.CatalogRepository) ports.CatalogService {
	return &catalogService{repo: repo}
}

func (s *catalogService) Countries(ctx context.Context) ([]domain.Country, error) {
	out, err := s.repo.Countries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	if out == nil {
		out = []domain.Country{}
	}
	return out, nil
}

func (s *catalogService) Subdivisions(ctx context.Context, countryID *int64) ([]domain.Subdivision, error) {
	out, err := s.repo.Subdivisions(ctx, countryID)
	if err != nil {
		return nil, fmt.Errorf("list subdivisions: %w", err)
	}
	if out == nil {
		out = []domain.Subdivision{}
	}
	return out, nil
}
