package postgres

import (
	"fmt"
	"strings"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/repository"
)

// sortColumns is the only route from a caller-supplied sort field into the
// generated SQL. The search text is assembled dynamically, so an unmapped
// field name must never be interpolated.
var sortColumns = map[repository.SortField]string{
	repository.SortCreatedAt: "t.created_at",
	repository.SortUpdatedAt: "t.updated_at",
	repository.SortDueDate:   "t.due_date",
	repository.SortPriority:  "t.priority",
	repository.SortTitle:     "t.title",
	repository.SortID:        "t.id",
}

// buildSearch assembles the filtered search (or count) statement. The
// visibility predicate — owned by the caller OR shared with one of the
// caller's groups — is always present; the explicit group filter only
// narrows within it.
func buildSearch(q repository.SearchQuery, count bool) (string, []any, error) {
	var sb strings.Builder
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if count {
		sb.WriteString("SELECT COUNT(*) FROM todos t")
	} else {
		sb.WriteString("SELECT " + todoColumns + " FROM todos t")
	}

	sb.WriteString("\nWHERE t.deleted_at IS NULL")

	ownerGroups := q.OwnerGroupIDs
	if ownerGroups == nil {
		ownerGroups = []int64{}
	}
	sb.WriteString("\nAND (t.user_id = " + arg(q.OwnerID))
	sb.WriteString(" OR EXISTS (SELECT 1 FROM todo_groups tg WHERE tg.todo_id = t.id AND tg.group_id = ANY(" + arg(ownerGroups) + ")))")

	if keyword := strings.TrimSpace(q.Keyword); keyword != "" {
		pattern := arg("%" + keyword + "%")
		sb.WriteString("\nAND (t.title ILIKE " + pattern + " OR t.description ILIKE " + pattern + ")")
	}
	if q.CategoryID != nil {
		sb.WriteString("\nAND t.category_id = " + arg(*q.CategoryID))
	}
	if len(q.GroupIDs) > 0 {
		sb.WriteString("\nAND EXISTS (SELECT 1 FROM todo_groups tf WHERE tf.todo_id = t.id AND tf.group_id = ANY(" + arg(q.GroupIDs) + "))")
	}
	if q.Status != nil {
		sb.WriteString("\nAND t.status = " + arg(string(*q.Status)))
	}

	if count {
		return sb.String(), args, nil
	}

	column, ok := sortColumns[q.Sort]
	if !ok {
		return "", nil, domain.NewError(domain.ErrCodeInvalid, "unsupported sort field: "+string(q.Sort))
	}
	direction := "DESC"
	if q.Direction == repository.SortAsc {
		direction = "ASC"
	}
	// Secondary id ordering keeps pagination stable across equal keys.
	sb.WriteString("\nORDER BY " + column + " " + direction + ", t.id " + direction)

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString("\nLIMIT " + arg(limit) + " OFFSET " + arg(offset))

	return sb.String(), args, nil
}
