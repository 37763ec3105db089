package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
	"github.com/kirinyoku/showbook/internal/repository"
)

type SeatRepo struct {
	s *Store
}

// HoldSeats moves every requested seat from free to held, or none of them.
//
// Returns:
//   - error: repository.ErrNotFound if the show does not exist.
//   - error: repository.ErrUnknownSeat if a seat is not part of the show.
//   - error: *repository.SeatConflictError if any seat is not free.
func (r *SeatRepo) HoldSeats(ctx context.Context, showID uuid.UUID, seatIDs []string) error {
	const op = "memory.SeatRepo.HoldSeats"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	e, ok := r.s.entry(showID)
	if !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := make([]int, 0, len(seatIDs))
	for _, id := range seatIDs {
		i, ok := e.index[id]
		if !ok {
			return fmt.Errorf("%s: seat %s: %w", op, id, repository.ErrUnknownSeat)
		}
		if e.show.Seats[i].Status != domain.SeatFree {
			return fmt.Errorf("%s:%w", op, &repository.SeatConflictError{SeatID: id})
		}
		idx = append(idx, i)
	}

	for _, i := range idx {
		e.show.Seats[i].Status = domain.SeatHeld
	}

	return nil
}

// ReleaseSeats moves held seats back to free. Seats that are not held are
// left untouched, which makes a repeated release harmless.
func (r *SeatRepo) ReleaseSeats(ctx context.Context, showID uuid.UUID, seatIDs []string) error {
	const op = "memory.SeatRepo.ReleaseSeats"

	e, ok := r.s.entry(showID)
	if !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range seatIDs {
		if i, ok := e.index[id]; ok && e.show.Seats[i].Status == domain.SeatHeld {
			e.show.Seats[i].Status = domain.SeatFree
		}
	}

	return nil
}

// BookSeats moves held seats to booked. Every seat must currently be held;
// otherwise nothing changes and repository.ErrSeatNotHeld is returned.
func (r *SeatRepo) BookSeats(ctx context.Context, showID uuid.UUID, seatIDs []string) error {
	const op = "memory.SeatRepo.BookSeats"

	e, ok := r.s.entry(showID)
	if !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range seatIDs {
		i, ok := e.index[id]
		if !ok || e.show.Seats[i].Status != domain.SeatHeld {
			return fmt.Errorf("%s: seat %s: %w", op, id, repository.ErrSeatNotHeld)
		}
	}

	for _, id := range seatIDs {
		e.show.Seats[e.index[id]].Status = domain.SeatBooked
	}

	return nil
}
