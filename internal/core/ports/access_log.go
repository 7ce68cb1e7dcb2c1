package ports

import (
	"context"

	"github.com/capachica/turismo-api/internal/core/domain"
)

// AccessLogFilter narrows the admin access-log query.
type AccessLogFilter struct {
	AccountID string
	EventType domain.EventType
	Page      domain.PageRequest
}

// AccessLogRepository is the append-only audit store.
type AccessLogRepository interface {
	Insert(ctx context.Context, entry domain.AccessLogEntry) error
	List(ctx context.Context, filter AccessLogFilter) ([]domain.AccessLogEntry, int64, error)
}

// AccessLogger records audit events without blocking or failing the caller.
type AccessLogger interface {
	Log(ctx context.Context, entry domain.AccessLogEntry)
}
