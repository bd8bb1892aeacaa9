package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamdo/backend/domain"
	"github.com/teamdo/backend/repository"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation of UserRepository.
func NewUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
	SELECT id, username, password_hash, roles, enabled, created_at, updated_at
	FROM users WHERE id = $1
	`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachDefaultGroups(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `
	SELECT id, username, password_hash, roles, enabled, created_at, updated_at
	FROM users WHERE username = $1
	`
	user, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		return nil, err
	}
	if err := r.attachDefaultGroups(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `
	SELECT id, username, password_hash, roles, enabled, created_at, updated_at
	FROM users ORDER BY username ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if user.ID == 0 {
		const query = `
		INSERT INTO users (username, password_hash, roles, enabled)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
		`
		if err := tx.QueryRow(ctx, query,
			user.Username, user.PasswordHash, user.Roles, user.Enabled,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
	} else {
		const query = `
		UPDATE users
		SET username = $2, password_hash = $3, roles = $4, enabled = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
		`
		if err := tx.QueryRow(ctx, query,
			user.ID, user.Username, user.PasswordHash, user.Roles, user.Enabled,
		).Scan(&user.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrUserNotFound
			}
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM user_groups WHERE user_id = $1`, user.ID); err != nil {
		return nil, err
	}
	for _, g := range user.DefaultGroups {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			user.ID, g.ID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) UpdateRoles(ctx context.Context, id int64, roles []string, enabled bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET roles = $2, enabled = $3, updated_at = NOW() WHERE id = $1`,
		id, roles, enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) attachDefaultGroups(ctx context.Context, user *domain.User) error {
	const query = `
	SELECT g.id, g.name, g.type, g.parent_id, g.color
	FROM user_groups ug
	JOIN groups g ON g.id = ug.group_id
	WHERE ug.user_id = $1
	ORDER BY g.type ASC, g.name ASC
	`
	rows, err := r.pool.Query(ctx, query, user.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	groups, err := collectGroups(rows)
	if err != nil {
		return err
	}
	user.DefaultGroups = groups
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Roles,
		&user.Enabled,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
