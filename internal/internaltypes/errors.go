package internaltypes

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")

	ErrInvalidFormat       = errors.New("invalid date or time format")
	ErrPastDateTime        = errors.New("cannot make reservations in the past")
	ErrPartySizeOutOfRange = errors.New("party size out of range")
	ErrRestaurantNotFound  = fmt.Errorf("restaurant %w", ErrNotFound)
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrAlreadyExists       = errors.New("already exists")
)

// ErrInvalidTimeFormat is returned for clock times that are not HH:MM.
// It matches ErrInvalidFormat under errors.Is.
var ErrInvalidTimeFormat = fmt.Errorf("%w: use HH:MM", ErrInvalidFormat)

// IsValidation reports whether err is a caller input problem rather than
// a lookup miss or an infrastructure failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrPastDateTime) ||
		errors.Is(err, ErrPartySizeOutOfRange) ||
		errors.Is(err, ErrInvalidArgument)
}

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
