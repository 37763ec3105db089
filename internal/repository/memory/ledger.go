package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
	"github.com/kirinyoku/showbook/internal/repository"
)

// LedgerRepo is the append-only booking store.
type LedgerRepo struct {
	s *Store
}

// CreateBooking records an immutable booking under a freshly generated ID.
// An existing key is never overwritten.
func (r *LedgerRepo) CreateBooking(ctx context.Context, draft domain.BookingDraft) (*domain.Booking, error) {
	const op = "memory.LedgerRepo.CreateBooking"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	r.s.ledgerMu.Lock()
	defer r.s.ledgerMu.Unlock()

	id := r.s.newID()
	for attempts := 1; ; attempts++ {
		if _, taken := r.s.bookings[id]; !taken {
			break
		}
		if attempts == 3 {
			return nil, fmt.Errorf("%s:%w", op, repository.ErrConflict)
		}
		id = r.s.newID()
	}

	b := &domain.Booking{
		ID:        id,
		UserID:    draft.UserID,
		ShowID:    draft.ShowID,
		Seats:     append([]domain.Seat(nil), draft.Seats...),
		Amount:    draft.Amount,
		CreatedAt: r.s.now(),
	}

	r.s.bookings[id] = b
	r.s.userBookings[b.UserID] = append(r.s.userBookings[b.UserID], id)

	return b.Clone(), nil
}

func (r *LedgerRepo) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "memory.LedgerRepo.GetBooking"

	r.s.ledgerMu.RLock()
	defer r.s.ledgerMu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return b.Clone(), nil
}

// ListBookingsByUser returns a user's bookings, oldest first.
func (r *LedgerRepo) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	r.s.ledgerMu.RLock()
	defer r.s.ledgerMu.RUnlock()

	ids := r.s.userBookings[userID]
	out := make([]domain.Booking, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.s.bookings[id].Clone())
	}

	return out, nil
}
