package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrSeatsUnavailable = errors.New("some seats unavailable")
	ErrUnknownSeat      = errors.New("seat does not belong to show")
	ErrSeatNotHeld      = errors.New("seat is not held")
)

// SeatConflictError names the first requested seat found in a non-free state.
type SeatConflictError struct {
	SeatID string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seat %s unavailable", e.SeatID)
}

func (e *SeatConflictError) Unwrap() error {
	return ErrSeatsUnavailable
}
