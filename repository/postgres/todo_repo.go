package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/repository"
)

const todoColumns = `t.id, t.user_id, t.author, t.title, t.description, t.due_date, t.priority,
	t.category_id, t.status, t.completed, t.deleted_at, t.version, t.created_at, t.updated_at`

type todoRepository struct {
	pool *pgxpool.Pool
}

// NewTodoRepository returns a Postgres-backed implementation of TodoRepository.
func NewTodoRepository(pool *pgxpool.Pool) repository.TodoRepository {
	return &todoRepository{pool: pool}
}

func (r *todoRepository) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos t WHERE t.id = $1 AND t.deleted_at IS NULL`
	todo, err := scanTodo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := attachGroups(ctx, r.pool, []*domain.Todo{todo}); err != nil {
		return nil, err
	}
	return todo, nil
}

func (r *todoRepository) GetByIDIncludeDeleted(ctx context.Context, id int64) (*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos t WHERE t.id = $1`
	todo, err := scanTodo(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := attachGroups(ctx, r.pool, []*domain.Todo{todo}); err != nil {
		return nil, err
	}
	return todo, nil
}

func (r *todoRepository) ListDeleted(ctx context.Context) ([]domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos t WHERE t.deleted_at IS NOT NULL ORDER BY t.deleted_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTodos(rows)
}

func (r *todoRepository) Search(ctx context.Context, q repository.SearchQuery) ([]domain.Todo, error) {
	query, args, err := buildSearch(q, false)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos, err := collectTodos(rows)
	if err != nil {
		return nil, err
	}
	refs := make([]*domain.Todo, len(todos))
	for i := range todos {
		refs[i] = &todos[i]
	}
	if err := attachGroups(ctx, r.pool, refs); err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *todoRepository) Count(ctx context.Context, q repository.SearchQuery) (int64, error) {
	query, args, err := buildSearch(q, true)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// SearchWithTotal pairs Count and Search on one read-only transaction so the
// total always describes the snapshot the rows came from.
func (r *todoRepository) SearchWithTotal(ctx context.Context, q repository.SearchQuery) ([]domain.Todo, int64, error) {
	countSQL, countArgs, err := buildSearch(q, true)
	if err != nil {
		return nil, 0, err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	var total int64
	if err := tx.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, tx.Commit(ctx)
	}
	if q.Limit <= 0 {
		q.Limit = int(total)
		q.Offset = 0
	}

	searchSQL, searchArgs, err := buildSearch(q, false)
	if err != nil {
		return nil, 0, err
	}
	rows, err := tx.Query(ctx, searchSQL, searchArgs...)
	if err != nil {
		return nil, 0, err
	}
	todos, err := collectTodos(rows)
	rows.Close()
	if err != nil {
		return nil, 0, err
	}

	refs := make([]*domain.Todo, len(todos))
	for i := range todos {
		refs[i] = &todos[i]
	}
	if err := attachGroups(ctx, tx, refs); err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return todos, total, nil
}

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) (*domain.Todo, error) {
	if todo == nil {
		return nil, domain.ErrInvalidPayload
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const query = `
	INSERT INTO todos (user_id, author, title, description, due_date, priority, category_id, status, completed)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, version, created_at, updated_at
	`
	if err := tx.QueryRow(ctx, query,
		todo.OwnerID,
		todo.Author,
		todo.Title,
		todo.Description,
		nullableTime(todo.DueDate),
		string(todo.Priority),
		todo.CategoryID,
		string(todo.Status),
		todo.Completed,
	).Scan(&todo.ID, &todo.Version, &todo.CreatedAt, &todo.UpdatedAt); err != nil {
		return nil, err
	}

	if err := replaceGroupLinks(ctx, tx, todo.ID, todo.GroupIDs(), false); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return todo, nil
}

// Update applies the caller's changes only if the version it read is still
// the persisted one. On a stale version nothing is modified and the caller
// gets a Conflict; re-fetch and resubmit is the only recovery.
func (r *todoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	if todo == nil {
		return domain.ErrInvalidPayload
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const query = `
	UPDATE todos
	SET title = $3,
		description = $4,
		due_date = $5,
		priority = $6,
		category_id = $7,
		status = $8,
		completed = $9,
		version = version + 1,
		updated_at = NOW()
	WHERE id = $1 AND version = $2 AND deleted_at IS NULL
	RETURNING version, updated_at
	`
	err = tx.QueryRow(ctx, query,
		todo.ID,
		todo.Version,
		todo.Title,
		todo.Description,
		nullableTime(todo.DueDate),
		string(todo.Priority),
		todo.CategoryID,
		string(todo.Status),
		todo.Completed,
	).Scan(&todo.Version, &todo.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.classifyMissedUpdate(ctx, todo.ID)
		}
		return err
	}

	if err := replaceGroupLinks(ctx, tx, todo.ID, todo.GroupIDs(), true); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// classifyMissedUpdate distinguishes a stale version from a missing or
// soft-deleted row after the guarded UPDATE matched nothing.
func (r *todoRepository) classifyMissedUpdate(ctx context.Context, id int64) error {
	var deletedAt *time.Time
	err := r.pool.QueryRow(ctx, `SELECT deleted_at FROM todos WHERE id = $1`, id).Scan(&deletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrTodoNotFound
	}
	if err != nil {
		return err
	}
	if deletedAt != nil {
		return domain.ErrTodoNotFound
	}
	return domain.ErrVersionConflict
}

// ToggleCompleted flips the completed flag. The version bumps like any other
// mutation, so an update submitted with a pre-toggle version fails with a
// Conflict instead of silently reverting the toggle.
func (r *todoRepository) ToggleCompleted(ctx context.Context, id int64) (bool, error) {
	const query = `
	UPDATE todos
	SET completed = NOT completed,
		status = CASE WHEN completed THEN 'OPEN' ELSE 'DONE' END,
		version = version + 1,
		updated_at = NOW()
	WHERE id = $1 AND deleted_at IS NULL
	RETURNING completed
	`
	var completed bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&completed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrTodoNotFound
		}
		return false, err
	}
	return completed, nil
}

func (r *todoRepository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE todos SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

func (r *todoRepository) Restore(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE todos SET deleted_at = NULL, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

// HardDelete purges the row and its dependents. Irreversible; bypasses soft
// delete entirely.
func (r *todoRepository) HardDelete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM todo_attachments WHERE todo_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM todo_groups WHERE todo_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTodoNotFound
	}
	return tx.Commit(ctx)
}

func (r *todoRepository) SoftDeleteByIDs(ctx context.Context, ids []int64, ownerID int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE todos SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = ANY($1) AND user_id = $2 AND deleted_at IS NULL`,
		ids, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func replaceGroupLinks(ctx context.Context, tx pgx.Tx, todoID int64, groupIDs []int64, clear bool) error {
	if clear {
		if _, err := tx.Exec(ctx, `DELETE FROM todo_groups WHERE todo_id = $1`, todoID); err != nil {
			return err
		}
	}
	for _, groupID := range groupIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO todo_groups (todo_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			todoID, groupID); err != nil {
			return err
		}
	}
	return nil
}

// rowQuerier is satisfied by both the pool and a transaction, letting
// attachGroups run on whichever the caller holds.
type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// attachGroups loads the shared groups for a set of todos in one query.
func attachGroups(ctx context.Context, db rowQuerier, todos []*domain.Todo) error {
	if len(todos) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(todos))
	byID := make(map[int64]*domain.Todo, len(todos))
	for _, t := range todos {
		ids = append(ids, t.ID)
		byID[t.ID] = t
	}

	const query = `
	SELECT tg.todo_id, g.id, g.name, g.type, g.parent_id, g.color
	FROM todo_groups tg
	JOIN groups g ON g.id = tg.group_id
	WHERE tg.todo_id = ANY($1)
	`
	rows, err := db.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var todoID int64
		var g domain.Group
		var rawType string
		if err := rows.Scan(&todoID, &g.ID, &g.Name, &rawType, &g.ParentID, &g.Color); err != nil {
			return err
		}
		g.Type = domain.GroupType(rawType)
		if t, ok := byID[todoID]; ok {
			t.Groups = append(t.Groups, g)
		}
	}
	return rows.Err()
}

func collectTodos(rows pgx.Rows) ([]domain.Todo, error) {
	var todos []domain.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	return todos, rows.Err()
}

func scanTodo(row pgx.Row) (*domain.Todo, error) {
	var todo domain.Todo
	var priority, status string
	if err := row.Scan(
		&todo.ID,
		&todo.OwnerID,
		&todo.Author,
		&todo.Title,
		&todo.Description,
		&todo.DueDate,
		&priority,
		&todo.CategoryID,
		&status,
		&todo.Completed,
		&todo.DeletedAt,
		&todo.Version,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTodoNotFound
		}
		return nil, err
	}
	todo.Priority = domain.Priority(priority)
	todo.Status = domain.Status(status)
	return &todo, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
