package service

import (
	"context"
	"fmt"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

const defaultAccessLogPageLimit = 20

type accessLogService struct {
	repo ports.AccessLogRepository
}

func NewAccessLogService(repo ports.AccessLogRepository) ports.AccessLogService {
	return &accessLogService{repo: repo}
}

// List returns audit entries newest first.
func (s *accessLogService) List(ctx context.Context, filter ports.AccessLogFilter) (domain.Page[domain.AccessLogEntry], error) {
	filter.Page = filter.Page.Normalize(defaultAccessLogPageLimit)
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.AccessLogEntry]{}, fmt.Errorf("list access logs: %w", err)
	}
	return domain.NewPage(entries, total, filter.Page), nil
}
