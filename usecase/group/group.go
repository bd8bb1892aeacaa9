// Package group manages the organizational tree of companies, departments,
// clients and projects.
package group

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/internal/audit"
	"github.com/teamdo/backend/internal/hierarchy"
	"github.com/teamdo/backend/repository"
)

type Service struct {
	groups   repository.GroupRepository
	recorder *audit.Recorder
	logger   *zap.Logger
}

func New(groups repository.GroupRepository, recorder *audit.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		groups:   groups,
		recorder: recorder,
		logger:   logger,
	}
}

// Form carries the fields of a create or update request.
type Form struct {
	Name     string
	Type     string
	ParentID *int64
	Color    string
}

func (f *Form) validate() (domain.GroupType, error) {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return "", domain.NewError(domain.ErrCodeInvalid, "group name is required")
	}
	groupType, ok := domain.ParseGroupType(f.Type)
	if !ok {
		return "", domain.NewError(domain.ErrCodeInvalid, "unknown group type: "+f.Type)
	}
	return groupType, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Group, error) {
	return s.groups.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Group, error) {
	return s.groups.List(ctx)
}

// Create validates the parent-type rule and persists a new group.
func (s *Service) Create(ctx context.Context, form Form) (*domain.Group, error) {
	groupType, err := form.validate()
	if err != nil {
		return nil, err
	}
	parent, err := s.resolveParent(ctx, form.ParentID)
	if err != nil {
		return nil, err
	}
	if err := hierarchy.ValidateParent(groupType, parent); err != nil {
		return nil, err
	}

	result, err := s.recorder.Record(ctx, "GROUP_CREATE", "Group", "", form,
		func(ctx context.Context) (any, error) {
			return s.groups.Save(ctx, &domain.Group{
				Name:     form.Name,
				Type:     groupType,
				ParentID: form.ParentID,
				Color:    form.Color,
			})
		})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Group), nil
}

// Update renames or reparents a group. A reparent that would close a loop in
// the tree is rejected rather than stored.
func (s *Service) Update(ctx context.Context, id int64, form Form) (*domain.Group, error) {
	groupType, err := form.validate()
	if err != nil {
		return nil, err
	}
	existing, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	parent, err := s.resolveParent(ctx, form.ParentID)
	if err != nil {
		return nil, err
	}
	if err := hierarchy.ValidateParent(groupType, parent); err != nil {
		return nil, err
	}
	if form.ParentID != nil {
		all, err := s.groups.List(ctx)
		if err != nil {
			return nil, err
		}
		if hierarchy.WouldCreateCycle(id, *form.ParentID, all) {
			return nil, domain.NewError(domain.ErrCodeInvalid, "parent change would create a cycle")
		}
	}

	result, err := s.recorder.Record(ctx, "GROUP_UPDATE", "Group", strconv.FormatInt(id, 10), existing,
		func(ctx context.Context) (any, error) {
			updated := *existing
			updated.Name = form.Name
			updated.Type = groupType
			updated.ParentID = form.ParentID
			updated.Color = form.Color
			return s.groups.Save(ctx, &updated)
		})
	if err != nil {
		return nil, err
	}
	return result.(*domain.Group), nil
}

func (s *Service) resolveParent(ctx context.Context, parentID *int64) (*domain.Group, error) {
	if parentID == nil {
		return nil, nil
	}
	parent, err := s.groups.GetByID(ctx, *parentID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.NewError(domain.ErrCodeInvalid, "parent group does not exist")
		}
		return nil, err
	}
	return parent, nil
}
