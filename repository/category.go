package repository

import (
	"context"

	"github.com/teamdo/backend/domain"
)

type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	Save(ctx context.Context, category *domain.Category) (*domain.Category, error)
}
