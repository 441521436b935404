package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// constraint names come from db.EnsureSchema
const (
	usersUsernameKey = "users_username_key"
	usersEmailKey    = "users_email_key"
)

const userColumns = `id, username, email, password_hash, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.create", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (username, email, password_hash, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			RETURNING `+userColumns,
			username, email, passwordHash,
		))
		return err
	})

	if err != nil {
		if conflict := uniqueViolation(err); conflict != nil {
			return user.User{}, conflict
		}
		return user.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_username", `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg any) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB(op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, query, arg))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context, f user.ListFilter) ([]user.User, error) {
	out := make([]user.User, 0, f.Limit)

	err := r.prom.ObserveDB("users.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+userColumns+` FROM users ORDER BY id ASC LIMIT $1 OFFSET $2`,
			f.Limit, f.Offset,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *UsersRepo) Update(ctx context.Context, id int64, c user.Changes) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.update", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
				SET username = $2,
					email = $3,
					password_hash = $4,
					updated_at = NOW()
			WHERE id = $1
			RETURNING `+userColumns,
			id, c.Username, c.Email, c.PasswordHash,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		if conflict := uniqueViolation(err); conflict != nil {
			return user.User{}, conflict
		}
		return user.User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// Delete removes the user; their tasks go with them via ON DELETE CASCADE.
func (r *UsersRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.prom.ObserveDB("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})

	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func uniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}

	switch pgErr.ConstraintName {
	case usersUsernameKey:
		return user.ErrUsernameTaken
	case usersEmailKey:
		return user.ErrEmailTaken
	}
	return nil
}
