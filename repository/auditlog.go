package repository

import (
	"context"

	"github.com/teamdo/backend/domain"
)

// AuditLogRepository is the audit sink. Persist must run outside the
// transaction of whatever operation produced the entry so a business
// rollback never takes the audit row with it.
type AuditLogRepository interface {
	Persist(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, limit, offset int) ([]domain.AuditLog, error)
	Count(ctx context.Context) (int64, error)
}
