package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/repository"
)

type auditLogRepository struct {
	pool *pgxpool.Pool
}

// NewAuditLogRepository returns a Postgres-backed audit sink. Each Persist
// is a standalone statement on its own pooled connection, so audit rows
// commit independently of whatever transaction the audited operation used.
func NewAuditLogRepository(pool *pgxpool.Pool) repository.AuditLogRepository {
	return &auditLogRepository{pool: pool}
}

func (r *auditLogRepository) Persist(ctx context.Context, entry *domain.AuditLog) error {
	if entry == nil {
		return domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO audit_logs (action, username, target_type, target_id, detail, before_value, after_value, created_at)
	VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
	RETURNING id
	`
	return r.pool.QueryRow(ctx, query,
		entry.Action,
		entry.Username,
		entry.TargetType,
		entry.TargetID,
		entry.Detail,
		entry.BeforeValue,
		entry.AfterValue,
		entry.CreatedAt,
	).Scan(&entry.ID)
}

func (r *auditLogRepository) List(ctx context.Context, limit, offset int) ([]domain.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
	SELECT id, action, COALESCE(username, ''), COALESCE(target_type, ''), COALESCE(target_id, ''),
		COALESCE(detail, ''), COALESCE(before_value, ''), COALESCE(after_value, ''), created_at
	FROM audit_logs
	ORDER BY created_at DESC, id DESC
	LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditLog
	for rows.Next() {
		var e domain.AuditLog
		if err := rows.Scan(
			&e.ID, &e.Action, &e.Username, &e.TargetType, &e.TargetID,
			&e.Detail, &e.BeforeValue, &e.AfterValue, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *auditLogRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
