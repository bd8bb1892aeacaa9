package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/repository"
)

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a Postgres-backed implementation of CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) repository.CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	const query = `SELECT id, name, color FROM categories WHERE id = $1`
	var c domain.Category
	if err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Color); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	const query = `SELECT id, name, color FROM categories ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *categoryRepository) Save(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if category == nil {
		return nil, domain.ErrInvalidPayload
	}
	if category.ID == 0 {
		const query = `INSERT INTO categories (name, color) VALUES ($1, $2) RETURNING id`
		if err := r.pool.QueryRow(ctx, query, category.Name, category.Color).Scan(&category.ID); err != nil {
			return nil, err
		}
		return category, nil
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET name = $2, color = $3 WHERE id = $1`,
		category.ID, category.Name, category.Color)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrCategoryNotFound
	}
	return category, nil
}
