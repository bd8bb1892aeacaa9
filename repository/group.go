package repository

import (
	"context"

	"github.com/teamdo/backend/domain"
)

type GroupRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Group, error)
	Save(ctx context.Context, group *domain.Group) (*domain.Group, error)
}
