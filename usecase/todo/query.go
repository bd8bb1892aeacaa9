package todo

import (
	"context"
	"sort"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/internal/hierarchy"
	"github.com/teamdo/backend/repository"
)

// QueryParams are the raw, caller-supplied filter values of a list or
// export request.
type QueryParams struct {
	Keyword    string
	Sort       string
	Direction  string
	CategoryID *int64
	GroupID    *int64
	Status     string
}

// FindPage returns one page of todos visible to the actor under the given
// filters, plus the total match count.
func (s *Service) FindPage(ctx context.Context, actorID int64, params QueryParams, req PageRequest) (Page, error) {
	req = req.normalized()

	query, err := s.resolveQuery(ctx, actorID, params)
	if err != nil {
		return Page{}, err
	}

	query.Limit = req.Size
	query.Offset = req.Page * req.Size
	items, total, err := s.todos.SearchWithTotal(ctx, query)
	if err != nil {
		return Page{}, err
	}
	return newPage(items, total, req), nil
}

// FindForExport resolves the same filters without pagination. Leaving Limit
// unset makes the repository cap the fetch at the count, taken on the same
// snapshot as the rows.
func (s *Service) FindForExport(ctx context.Context, actorID int64, params QueryParams) ([]domain.Todo, error) {
	query, err := s.resolveQuery(ctx, actorID, params)
	if err != nil {
		return nil, err
	}
	items, _, err := s.todos.SearchWithTotal(ctx, query)
	return items, err
}

// FindForExportByIDs exports a hand-picked id set, dropping rows the actor
// may not access instead of failing the export. Rows come back newest first
// regardless of the order the ids were submitted in.
func (s *Service) FindForExportByIDs(ctx context.Context, actorID int64, ids []int64) ([]domain.Todo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var todos []domain.Todo
	for _, id := range ids {
		t, err := s.todos.GetByID(ctx, id)
		if err != nil {
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				continue
			}
			return nil, err
		}
		if !t.AccessibleBy(actor) {
			continue
		}
		todos = append(todos, *t)
	}
	sort.Slice(todos, func(i, j int) bool {
		return todos[i].CreatedAt.After(todos[j].CreatedAt)
	})
	return todos, nil
}

// resolveQuery turns raw parameters into a fully validated SearchQuery:
// sort allow-listing, status parsing, the actor's implicit visibility scope
// and the hierarchy-expanded group filter.
func (s *Service) resolveQuery(ctx context.Context, actorID int64, params QueryParams) (repository.SearchQuery, error) {
	sort, err := repository.ParseSortField(params.Sort)
	if err != nil {
		return repository.SearchQuery{}, err
	}
	direction, err := repository.ParseSortDirection(params.Direction)
	if err != nil {
		return repository.SearchQuery{}, err
	}

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return repository.SearchQuery{}, err
	}

	query := repository.SearchQuery{
		Keyword:       params.Keyword,
		OwnerID:       actor.ID,
		OwnerGroupIDs: actor.GroupIDs(),
		Sort:          sort,
		Direction:     direction,
		CategoryID:    params.CategoryID,
	}
	if status, ok := domain.ParseStatus(params.Status); ok {
		query.Status = &status
	}

	groupIDs, err := s.expandGroupFilter(ctx, params.GroupID)
	if err != nil {
		return repository.SearchQuery{}, err
	}
	query.GroupIDs = groupIDs
	return query, nil
}

// expandGroupFilter resolves a selected group into its concrete PROJECT
// descendants. An unknown group id drops the filter; a group with no
// project beneath it filters to the sentinel so the result is reliably
// empty rather than unfiltered.
func (s *Service) expandGroupFilter(ctx context.Context, groupID *int64) ([]int64, error) {
	if groupID == nil {
		return nil, nil
	}
	selected, err := s.groups.GetByID(ctx, *groupID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if selected.IsProject() {
		return []int64{selected.ID}, nil
	}

	all, err := s.groups.List(ctx)
	if err != nil {
		return nil, err
	}
	projectIDs := hierarchy.DescendantProjectIDs(selected, all)
	if len(projectIDs) == 0 {
		return []int64{hierarchy.SentinelGroupID}, nil
	}
	return projectIDs, nil
}
