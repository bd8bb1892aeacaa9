package repository

import (
	"context"

	"github.com/teamdo/backend/domain"
)

type AttachmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Attachment, error)
	ListByTodoID(ctx context.Context, todoID int64) ([]domain.Attachment, error)
	Create(ctx context.Context, attachment *domain.Attachment) (*domain.Attachment, error)
	Delete(ctx context.Context, id int64) error
	DeleteByTodoID(ctx context.Context, todoID int64) (int64, error)
}
