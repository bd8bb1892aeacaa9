package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/repository"
)

type groupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository returns a Postgres-backed implementation of GroupRepository.
func NewGroupRepository(pool *pgxpool.Pool) repository.GroupRepository {
	return &groupRepository{pool: pool}
}

func (r *groupRepository) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	const query = `SELECT id, name, type, parent_id, color FROM groups WHERE id = $1`
	return scanGroup(r.pool.QueryRow(ctx, query, id))
}

func (r *groupRepository) List(ctx context.Context) ([]domain.Group, error) {
	const query = `SELECT id, name, type, parent_id, color FROM groups ORDER BY type ASC, name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGroups(rows)
}

func (r *groupRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, name, type, parent_id, color FROM groups WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGroups(rows)
}

func (r *groupRepository) Save(ctx context.Context, group *domain.Group) (*domain.Group, error) {
	if group == nil {
		return nil, domain.ErrInvalidPayload
	}
	if group.ID == 0 {
		const query = `
		INSERT INTO groups (name, type, parent_id, color)
		VALUES ($1, $2, $3, $4)
		RETURNING id
		`
		if err := r.pool.QueryRow(ctx, query,
			group.Name, string(group.Type), group.ParentID, group.Color,
		).Scan(&group.ID); err != nil {
			return nil, err
		}
		return group, nil
	}

	const query = `
	UPDATE groups SET name = $2, type = $3, parent_id = $4, color = $5 WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		group.ID, group.Name, string(group.Type), group.ParentID, group.Color)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrGroupNotFound
	}
	return group, nil
}

func collectGroups(rows pgx.Rows) ([]domain.Group, error) {
	var groups []domain.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

func scanGroup(row pgx.Row) (*domain.Group, error) {
	var g domain.Group
	var rawType string
	if err := row.Scan(&g.ID, &g.Name, &rawType, &g.ParentID, &g.Color); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}
	g.Type = domain.GroupType(rawType)
	return &g, nil
}
