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

const maxBookingIDAttempts = 3

// LedgerRepo is the append-only booking store. Rows in bookings and
// booking_seats are inserted once and never updated.
type LedgerRepo struct {
	pool *pgxpool.Pool
}

// CreateBooking records an immutable booking under a freshly generated ID.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - draft: user, show, seats and amount of the booking.
//
// Returns:
//   - *domain.Booking: the stored booking with its ID and creation time.
//   - error: repository.ErrConflict if a seat of the show is already in the
//     ledger, or no free ID was found.
func (r *LedgerRepo) CreateBooking(ctx context.Context, draft domain.BookingDraft) (*domain.Booking, error) {
	const op = "postgres.LedgerRepo.CreateBooking"

	for attempt := 1; ; attempt++ {
		b, err := r.insertBooking(ctx, uuid.New(), draft)
		if err == nil {
			return b, nil
		}
		if isUniqueViolation(err, "bookings_pkey") && attempt < maxBookingIDAttempts {
			continue
		}
		return nil, wrapDBErr(op, err)
	}
}

func (r *LedgerRepo) insertBooking(ctx context.Context, id uuid.UUID, draft domain.BookingDraft) (*domain.Booking, error) {
	b := &domain.Booking{
		ID:     id,
		UserID: draft.UserID,
		ShowID: draft.ShowID,
		Seats:  append([]domain.Seat(nil), draft.Seats...),
		Amount: draft.Amount,
	}

	err := inTx(ctx, r.pool, nil, func(ctx context.Context, db DB) error {
		if err := db.QueryRow(ctx,
			`INSERT INTO bookings(id, user_id, show_id, amount)
			 VALUES ($1, $2, $3, $4)
			 RETURNING created_at`,
			b.ID, b.UserID, b.ShowID, b.Amount,
		).Scan(&b.CreatedAt); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, seat := range b.Seats {
			batch.Queue(
				`INSERT INTO booking_seats(booking_id, show_id, seat_id, position, category)
				 VALUES ($1, $2, $3, $4, $5)`,
				b.ID, b.ShowID, seat.ID, i, string(seat.Category),
			)
		}

		return db.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// GetBooking retrieves a booking with its seats.
//
// Returns:
//   - error: repository.ErrNotFound if the booking is not found.
func (r *LedgerRepo) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.LedgerRepo.GetBooking"

	out, err := r.queryBookings(ctx,
		`SELECT b.id, b.user_id, b.show_id, b.amount, b.created_at,
		        bs.seat_id, bs.category
		 FROM bookings b
		 JOIN booking_seats bs ON bs.booking_id = b.id
		 WHERE b.id = $1
		 ORDER BY bs.position`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return &out[0], nil
}

// ListBookingsByUser returns a user's bookings, oldest first.
func (r *LedgerRepo) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	const op = "postgres.LedgerRepo.ListBookingsByUser"

	out, err := r.queryBookings(ctx,
		`SELECT b.id, b.user_id, b.show_id, b.amount, b.created_at,
		        bs.seat_id, bs.category
		 FROM bookings b
		 JOIN booking_seats bs ON bs.booking_id = b.id
		 WHERE b.user_id = $1
		 ORDER BY b.created_at, b.id, bs.position`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// queryBookings folds one row per booked seat into bookings, keeping the
// row order of the query.
func (r *LedgerRepo) queryBookings(ctx context.Context, sql string, args ...any) ([]domain.Booking, error) {
	rows, err := handle(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, translateDBErr(err)
	}

	defer rows.Close()

	out := []domain.Booking{}
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			b        domain.Booking
			seat     domain.Seat
			category string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.ShowID, &b.Amount, &b.CreatedAt, &seat.ID, &category); err != nil {
			return nil, translateDBErr(err)
		}
		seat.Category = domain.SeatCategory(category)
		seat.Status = domain.SeatBooked

		i, ok := index[b.ID]
		if !ok {
			i = len(out)
			index[b.ID] = i
			out = append(out, b)
		}
		out[i].Seats = append(out[i].Seats, seat)
	}
	if err := rows.Err(); err != nil {
		return nil, translateDBErr(err)
	}

	return out, nil
}
