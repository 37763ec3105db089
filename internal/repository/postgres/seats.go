package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/showbook/internal/domain"
	"github.com/kirinyoku/showbook/internal/repository"
)

// Seat transitions run at READ COMMITTED: a request blocked on another
// request's row locks re-reads the committed status instead of failing with a
// serialization error.
var seatTxOpts = &pgx.TxOptions{
	IsoLevel:   pgx.ReadCommitted,
	AccessMode: pgx.ReadWrite,
}

type SeatRepo struct {
	pool *pgxpool.Pool
}

// HoldSeats moves every requested seat of a show from free to held, or none.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - showID: show the seats belong to.
//   - seatIDs: seat identifiers, unique within the show.
//
// Returns:
//   - error: repository.ErrNotFound if the show does not exist.
//   - error: repository.ErrUnknownSeat if a seat is not part of the show.
//   - error: *repository.SeatConflictError if any seat is not free.
func (r *SeatRepo) HoldSeats(ctx context.Context, showID uuid.UUID, seatIDs []string) error {
	const op = "postgres.SeatRepo.HoldSeats"

	err := inTx(ctx, r.pool, seatTxOpts, func(ctx context.Context, db DB) error {
		return r.holdSeatsCore(ctx, db, showID, seatIDs)
	})
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// ReleaseSeats moves held seats back to free; other seats are untouched.
func (r *SeatRepo) ReleaseSeats(ctx context.Context, showID uuid.UUID, seatIDs []string) error {
	const op = "postgres.SeatRepo.ReleaseSeats"

	_, err := handle(ctx, r.pool).Exec(ctx,
		`UPDATE show_seats
		 SET status = 'free'
		 WHERE show_id = $1
		 	AND seat_id = ANY($2)
		 	AND status = 'held'`,
		showID, seatIDs,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// BookSeats moves held seats to booked. If any seat is not held nothing
// changes and repository.ErrSeatNotHeld is returned.
func (r *SeatRepo) BookSeats(ctx context.Context, showID uuid.UUID, seatIDs []string) error {
	const op = "postgres.SeatRepo.BookSeats"

	err := inTx(ctx, r.pool, seatTxOpts, func(ctx context.Context, db DB) error {
		tag, err := db.Exec(ctx,
			`UPDATE show_seats
			 SET status = 'booked'
			 WHERE show_id = $1
			 	AND seat_id = ANY($2)
			 	AND status = 'held'`,
			showID, seatIDs,
		)
		if err != nil {
			return err
		}

		if int(tag.RowsAffected()) != len(seatIDs) {
			return repository.ErrSeatNotHeld
		}

		return nil
	})
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *SeatRepo) holdSeatsCore(ctx context.Context, db DB, showID uuid.UUID, seatIDs []string) error {
	const op = "postgres.SeatRepo.holdSeatsCore"

	// Locking in seat_id order keeps overlapping requests deadlock-free.
	rows, err := db.Query(ctx,
		`SELECT seat_id, status
		 FROM show_seats
		 WHERE show_id = $1 AND seat_id = ANY($2)
		 ORDER BY seat_id
		 FOR UPDATE`,
		showID, seatIDs,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	statuses := make(map[string]domain.SeatStatus, len(seatIDs))
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			rows.Close()
			return wrapDBErr(op, err)
		}
		statuses[id] = domain.SeatStatus(status)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return wrapDBErr(op, err)
	}

	for _, id := range seatIDs {
		status, ok := statuses[id]
		if !ok {
			if len(statuses) == 0 {
				var exists bool
				if err := db.QueryRow(ctx,
					`SELECT EXISTS (SELECT 1 FROM shows WHERE id = $1)`,
					showID,
				).Scan(&exists); err != nil {
					return wrapDBErr(op, err)
				}
				if !exists {
					return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
				}
			}
			return fmt.Errorf("%s: seat %s: %w", op, id, repository.ErrUnknownSeat)
		}
		if status != domain.SeatFree {
			return fmt.Errorf("%s:%w", op, &repository.SeatConflictError{SeatID: id})
		}
	}

	tag, err := db.Exec(ctx,
		`UPDATE show_seats
		 SET status = 'held'
		 WHERE show_id = $1
		 	AND seat_id = ANY($2)
		 	AND status = 'free'`,
		showID, seatIDs,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if int(tag.RowsAffected()) != len(seatIDs) {
		return fmt.Errorf("%s:%w", op, repository.ErrSeatsUnavailable)
	}

	return nil
}
