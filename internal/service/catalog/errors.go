package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrTheatreNotFound = errors.New("theatre not found")
	ErrShowNotFound    = errors.New("show not found")
	ErrShowConflict    = errors.New("show already exists")
	ErrInvalidInput    = errors.New("invalid catalog input")
)

type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid catalog input: %s", e.Reason)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
