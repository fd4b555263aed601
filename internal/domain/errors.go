package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the reservation engine wraps exactly one of them.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTimeout         = errors.New("timeout")
	ErrInternal        = errors.New("internal error")
)

var (
	ErrInvalidPassengers = fmt.Errorf("%w: passengers must be at least 1", ErrInvalidArgument)
	ErrInvalidTotalPrice = fmt.Errorf("%w: total price cannot be negative", ErrInvalidArgument)
	ErrInvalidUserID     = fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	ErrInvalidFlightID   = fmt.Errorf("%w: flight id is required", ErrInvalidArgument)
	ErrInvalidBookingID  = fmt.Errorf("%w: booking id is required", ErrInvalidArgument)

	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrFlightNotFound  = fmt.Errorf("flight %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)

	ErrFlightNotBookable     = fmt.Errorf("%w: flight is not bookable", ErrConflict)
	ErrInsufficientInventory = fmt.Errorf("%w: insufficient seats available", ErrConflict)
	ErrBookingCancelled      = fmt.Errorf("%w: booking is already cancelled", ErrConflict)
	ErrBookingNotPending     = fmt.Errorf("%w: booking is not pending", ErrConflict)
	ErrDuplicateBookingID    = fmt.Errorf("%w: booking id already exists", ErrConflict)

	ErrLockTimeout = fmt.Errorf("%w: flight admission lock wait exceeded", ErrTimeout)
)

func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

func IsInternal(err error) bool { return errors.Is(err, ErrInternal) }

// Internal reports an unexpected failure. Only ErrInternal is wrapped: the
// cause is kept in the message so a NotFound or Conflict underneath cannot
// leak its category to the caller.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, ErrInternal, err)
}
