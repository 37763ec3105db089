package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/showbook/internal/domain"
)

type CatalogRepo struct {
	pool *pgxpool.Pool
}

func (r *CatalogRepo) CreateTheatre(ctx context.Context, t *domain.Theatre) error {
	const op = "postgres.CatalogRepo.CreateTheatre"

	_, err := handle(ctx, r.pool).Exec(ctx,
		`INSERT INTO theatres(id, name, city, pincode, street)
		 VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Name, string(t.Address.City), t.Address.Pincode, t.Address.Street,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// CreateShow inserts the show and its seat inventory, every seat free.
//
// Returns:
//   - error: repository.ErrNotFound if the theatre does not exist.
//   - error: repository.ErrConflict if the show or one of its seats already exists.
func (r *CatalogRepo) CreateShow(ctx context.Context, show *domain.Show) error {
	const op = "postgres.CatalogRepo.CreateShow"

	err := inTx(ctx, r.pool, nil, func(ctx context.Context, db DB) error {
		if _, err := db.Exec(ctx,
			`INSERT INTO shows(id, theatre_id, movie, starts_at, ends_at, base_price)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			show.ID, show.TheatreID, show.Movie, show.StartsAt, show.EndsAt, show.BasePrice,
		); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, seat := range show.Seats {
			batch.Queue(
				`INSERT INTO show_seats(show_id, seat_id, position, category, status)
				 VALUES ($1, $2, $3, $4, 'free')`,
				show.ID, seat.ID, i, string(seat.Category),
			)
		}

		return db.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}
