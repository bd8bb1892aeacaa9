package postgres

import (
	"strings"
	"testing"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/repository"
)

func baseQuery() repository.SearchQuery {
	return repository.SearchQuery{
		OwnerID:       10,
		OwnerGroupIDs: []int64{1, 2},
		Sort:          repository.SortCreatedAt,
		Direction:     repository.SortDesc,
		Limit:         20,
		Offset:        40,
	}
}

func TestBuildSearchVisibilityAlwaysPresent(t *testing.T) {
	sql, args, err := buildSearch(baseQuery(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sql, "t.deleted_at IS NULL") {
		t.Fatal("soft-deleted rows not excluded")
	}
	if !strings.Contains(sql, "t.user_id = $1") || !strings.Contains(sql, "tg.group_id = ANY($2)") {
		t.Fatalf("visibility scope missing:\n%s", sql)
	}
	if len(args) != 4 {
		t.Fatalf("expected 4 args (owner, groups, limit, offset), got %d", len(args))
	}
	if args[2] != 20 || args[3] != 40 {
		t.Fatalf("limit/offset args wrong: %v", args)
	}
}

func TestBuildSearchFilters(t *testing.T) {
	status := domain.StatusOpen
	categoryID := int64(5)
	q := baseQuery()
	q.Keyword = "  milk  "
	q.CategoryID = &categoryID
	q.GroupIDs = []int64{7, 8}
	q.Status = &status

	sql, args, err := buildSearch(q, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sql, "ILIKE") {
		t.Fatal("keyword filter missing")
	}
	if !strings.Contains(sql, "t.category_id =") {
		t.Fatal("category filter missing")
	}
	if !strings.Contains(sql, "tf.group_id = ANY(") {
		t.Fatal("group filter missing")
	}
	if !strings.Contains(sql, "t.status =") {
		t.Fatal("status filter missing")
	}
	// trimmed keyword pattern
	found := false
	for _, a := range args {
		if a == "%milk%" {
			found = true
		}
	}
	if !found {
		t.Fatalf("keyword not trimmed before building pattern: %v", args)
	}
}

func TestBuildSearchCountHasNoOrderOrLimit(t *testing.T) {
	sql, _, err := buildSearch(baseQuery(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(sql, "SELECT COUNT(*)") {
		t.Fatalf("not a count statement:\n%s", sql)
	}
	if strings.Contains(sql, "ORDER BY") || strings.Contains(sql, "LIMIT") {
		t.Fatalf("count statement must not order or paginate:\n%s", sql)
	}
}

func TestBuildSearchSortMapping(t *testing.T) {
	q := baseQuery()
	q.Sort = repository.SortDueDate
	q.Direction = repository.SortAsc

	sql, _, err := buildSearch(q, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sql, "ORDER BY t.due_date ASC") {
		t.Fatalf("sort field not mapped to its column:\n%s", sql)
	}
}

func TestBuildSearchRejectsUnmappedSortField(t *testing.T) {
	q := baseQuery()
	q.Sort = repository.SortField("created_at; DROP TABLE todos")

	_, _, err := buildSearch(q, false)
	if err == nil {
		t.Fatal("unmapped sort field must be rejected, never interpolated")
	}
	if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected INVALID error, got %v", err)
	}
}

func TestBuildSearchSortFieldNeverInterpolated(t *testing.T) {
	for field, column := range sortColumns {
		q := baseQuery()
		q.Sort = field
		sql, _, err := buildSearch(q, false)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", field, err)
		}
		if !strings.Contains(sql, "ORDER BY "+column+" DESC") {
			t.Fatalf("%s not mapped to %s:\n%s", field, column, sql)
		}
	}
}
