package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/repository"
)

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository returns a Postgres-backed implementation of AttachmentRepository.
func NewAttachmentRepository(pool *pgxpool.Pool) repository.AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) GetByID(ctx context.Context, id int64) (*domain.Attachment, error) {
	const query = `
	SELECT id, todo_id, original_filename, stored_filename, content_type, size_bytes, created_at
	FROM todo_attachments WHERE id = $1
	`
	var a domain.Attachment
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.TodoID, &a.OriginalFilename, &a.StoredFilename,
		&a.ContentType, &a.SizeBytes, &a.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAttachmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *attachmentRepository) ListByTodoID(ctx context.Context, todoID int64) ([]domain.Attachment, error) {
	const query = `
	SELECT id, todo_id, original_filename, stored_filename, content_type, size_bytes, created_at
	FROM todo_attachments WHERE todo_id = $1 ORDER BY id ASC
	`
	rows, err := r.pool.Query(ctx, query, todoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attachments []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(
			&a.ID, &a.TodoID, &a.OriginalFilename, &a.StoredFilename,
			&a.ContentType, &a.SizeBytes, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) (*domain.Attachment, error) {
	if attachment == nil {
		return nil, domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO todo_attachments (todo_id, original_filename, stored_filename, content_type, size_bytes)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		attachment.TodoID,
		attachment.OriginalFilename,
		attachment.StoredFilename,
		attachment.ContentType,
		attachment.SizeBytes,
	).Scan(&attachment.ID, &attachment.CreatedAt); err != nil {
		return nil, err
	}
	return attachment, nil
}

func (r *attachmentRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todo_attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttachmentNotFound
	}
	return nil
}

func (r *attachmentRepository) DeleteByTodoID(ctx context.Context, todoID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todo_attachments WHERE todo_id = $1`, todoID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
