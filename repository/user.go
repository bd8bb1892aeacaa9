package repository

import (
	"context"

	"github.com/teamdo/backend/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateRoles(ctx context.Context, id int64, roles []string, enabled bool) error
}
