package reservation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kirinyoku/showbook/internal/domain"
)

var (
	ErrInvalidRequest    = errors.New("invalid booking request")
	ErrSeatUnavailable   = errors.New("seat unavailable")
	ErrPaymentFailed     = errors.New("payment failed")
	ErrLedgerWriteFailed = errors.New("ledger write failed")

	// ErrShowNotFound is an invalid request whose show does not exist.
	ErrShowNotFound error = &InvalidRequestError{Reason: "show not found"}
)

type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid booking request: %s", e.Reason)
}

func (e *InvalidRequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// SeatUnavailableError names the seat that was already held or booked when
// the request tried to hold it. SeatID is empty when the store could not
// tell which seat lost the race.
type SeatUnavailableError struct {
	ShowID uuid.UUID
	SeatID string
}

func (e *SeatUnavailableError) Error() string {
	if e.SeatID == "" {
		return fmt.Sprintf("seats of show %s unavailable", e.ShowID)
	}
	return fmt.Sprintf("seat %s of show %s unavailable", e.SeatID, e.ShowID)
}

func (e *SeatUnavailableError) Is(target error) bool {
	return target == ErrSeatUnavailable
}

type PaymentFailedError struct {
	Amount int64
	Err    error
}

func (e *PaymentFailedError) Error() string {
	return fmt.Sprintf("payment of %d failed: %v", e.Amount, e.Err)
}

func (e *PaymentFailedError) Is(target error) bool {
	return target == ErrPaymentFailed
}

func (e *PaymentFailedError) Unwrap() error {
	return e.Err
}

// LedgerWriteFailedError means the user was charged but the booking could
// not be recorded. Draft carries everything needed to reconcile by hand.
// SeatStatus is where the seats were left: booked when only the ledger
// write failed, free when booking them failed and the hold was released,
// held when the release failed too.
type LedgerWriteFailedError struct {
	Draft      domain.BookingDraft
	SeatStatus domain.SeatStatus
	Err        error
}

func (e *LedgerWriteFailedError) Error() string {
	return fmt.Sprintf("ledger write failed for user %s show %s amount %d (seats %s): %v",
		e.Draft.UserID, e.Draft.ShowID, e.Draft.Amount, e.SeatStatus, e.Err)
}

func (e *LedgerWriteFailedError) Is(target error) bool {
	return target == ErrLedgerWriteFailed
}

func (e *LedgerWriteFailedError) Unwrap() error {
	return e.Err
}
