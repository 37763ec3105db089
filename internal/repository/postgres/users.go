package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/showbook/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

// CreateUser inserts u and fills its CreatedAt.
// A second user with the same email yields repository.ErrConflict.
func (r *UserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	const op = "postgres.UserRepo.CreateUser"

	err := handle(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO users(id, name, email)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`,
		u.ID, u.Name, u.Email,
	).Scan(&u.CreatedAt)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *UserRepo) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "postgres.UserRepo.GetUser"

	var u domain.User
	err := handle(ctx, r.pool).QueryRow(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &u, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "postgres.UserRepo.GetUserByEmail"

	var u domain.User
	err := handle(ctx, r.pool).QueryRow(ctx,
		`SELECT id, name, email, created_at FROM users WHERE email = $1`,
		domain.NormalizeEmail(email),
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &u, nil
}
