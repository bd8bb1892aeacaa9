// Package category manages the shared todo label set.
package category

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/internal/audit"
	"github.com/teamdo/backend/repository"
)

type Service struct {
	categories repository.CategoryRepository
	recorder   *audit.Recorder
	logger     *zap.Logger
}

func New(categories repository.CategoryRepository, recorder *audit.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		categories: categories,
		recorder:   recorder,
		logger:     logger,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *Service) Save(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if category == nil {
		return nil, domain.ErrInvalidPayload
	}
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "category name is required")
	}

	action := "CATEGORY_CREATE"
	targetID := ""
	if category.ID != 0 {
		action = "CATEGORY_UPDATE"
		targetID = strconv.FormatInt(category.ID, 10)
	}
	result, err := s.recorder.Record(ctx, action, "Category", targetID, category,
		func(ctx context.Context) (any, error) {
			return s.categories.Save(ctx, category)
		})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Category), nil
}
