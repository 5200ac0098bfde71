package service

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every service. Callers match with errors.Is; the
// wrapped message carries the detail.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage error")
	ErrDelivery     = errors.New("delivery error")
)

func unauthorized(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func storageFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func deliveryFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrDelivery, err)
}
