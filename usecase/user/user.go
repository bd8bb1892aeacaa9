// Package user covers administrative account management.
package user

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/internal/audit"
	"github.com/teamdo/backend/repository"
)

type Service struct {
	users    repository.UserRepository
	recorder *audit.Recorder
	logger   *zap.Logger
}

func New(users repository.UserRepository, recorder *audit.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:    users,
		recorder: recorder,
		logger:   logger,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// ChangeRoles replaces a user's role set and enabled flag. Only callers
// holding the ADMIN role get here; the route is gated in the middleware and
// re-checked at the handler.
func (s *Service) ChangeRoles(ctx context.Context, id int64, roles []string, enabled bool) (*domain.User, error) {
	for _, role := range roles {
		if role != domain.RoleUser && role != domain.RoleAdmin {
			return nil, domain.NewError(domain.ErrCodeInvalid, "unknown role: "+role)
		}
	}
	existing, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := s.recorder.Record(ctx, "ROLE_CHANGE", "User", strconv.FormatInt(id, 10), existing,
		func(ctx context.Context) (any, error) {
			if err := s.users.UpdateRoles(ctx, id, roles, enabled); err != nil {
				return nil, err
			}
			return s.users.GetByID(ctx, id)
		})
	if err != nil {
		return nil, err
	}
	return result.(*domain.User), nil
}
