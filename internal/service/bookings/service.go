package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
	"github.com/kirinyoku/showbook/internal/repository"
)

var ErrBookingNotFound = errors.New("booking not found")

type Ledger interface {
	GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
}

// Service serves read access to the booking ledger.
type Service struct {
	ledger Ledger
}

func New(ledger Ledger) *Service {
	return &Service{ledger: ledger}
}

// Get retrieves a booking by its ID.
//
// Parameters:
//   - ctx: request-scoped context.
//   - id: ID of the booking to retrieve.
//
// Returns:
//   - *domain.Booking: the booking exactly as it was recorded.
//   - error: bookings.ErrBookingNotFound if the booking is not found.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "service.bookings.Get"

	b, err := s.ledger.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrBookingNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return b, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	const op = "service.bookings.ListByUser"

	out, err := s.ledger.ListBookingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
