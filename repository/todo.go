package repository

import (
	"context"
	"strings"

	"github.com/teamdo/backend/domain"
)

// SortField enumerates the columns a caller may sort by. The search SQL is
// assembled dynamically, so raw field names from the request must never reach
// the query builder; they are parsed into this enum first and mapped to a
// real column inside the persistence layer.
type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortDueDate   SortField = "dueDate"
	SortPriority  SortField = "priority"
	SortTitle     SortField = "title"
	SortID        SortField = "id"
)

// ParseSortField validates a caller-supplied sort field. Blank falls back to
// createdAt; anything outside the allow-list is rejected.
func ParseSortField(raw string) (SortField, error) {
	if strings.TrimSpace(raw) == "" {
		return SortCreatedAt, nil
	}
	switch SortField(raw) {
	case SortCreatedAt, SortUpdatedAt, SortDueDate, SortPriority, SortTitle, SortID:
		return SortField(raw), nil
	default:
		return "", domain.NewError(domain.ErrCodeInvalid, "unsupported sort field: "+raw)
	}
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection defaults to desc on blank input.
func ParseSortDirection(raw string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return SortDesc, nil
	case "asc":
		return SortAsc, nil
	case "desc":
		return SortDesc, nil
	default:
		return "", domain.NewError(domain.ErrCodeInvalid, "unsupported sort direction: "+raw)
	}
}

// SearchQuery carries one fully resolved filter predicate. OwnerID and
// OwnerGroupIDs define the caller's visibility scope (owned OR shared with a
// group the caller belongs to); GroupIDs is the optional hierarchy-expanded
// group filter and is intersected with that scope, never widened beyond it.
type SearchQuery struct {
	Keyword       string
	OwnerID       int64
	OwnerGroupIDs []int64
	Sort          SortField
	Direction     SortDirection
	CategoryID    *int64
	GroupIDs      []int64
	Status        *domain.Status
	Limit         int
	Offset        int
}

// TodoRepository is the persistence contract for todos. Get, Search and
// Count exclude soft-deleted rows; the IncludeDeleted and ListDeleted paths
// exist for administrative recovery.
type TodoRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Todo, error)
	GetByIDIncludeDeleted(ctx context.Context, id int64) (*domain.Todo, error)
	ListDeleted(ctx context.Context) ([]domain.Todo, error)
	Search(ctx context.Context, q SearchQuery) ([]domain.Todo, error)
	Count(ctx context.Context, q SearchQuery) (int64, error)
	// SearchWithTotal runs the count and the row fetch of one predicate in a
	// single read-only transaction, so the pair sees one snapshot. A
	// non-positive Limit caps the fetch at the count (the export path).
	SearchWithTotal(ctx context.Context, q SearchQuery) ([]domain.Todo, int64, error)
	Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error)
	Update(ctx context.Context, todo *domain.Todo) error
	ToggleCompleted(ctx context.Context, id int64) (bool, error)
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	HardDelete(ctx context.Context, id int64) error
	SoftDeleteByIDs(ctx context.Context, ids []int64, ownerID int64) (int64, error)
}
