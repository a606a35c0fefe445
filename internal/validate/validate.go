package validate

import (
	"fmt"
	"time"

	"github.com/example/tablebook/internal/clock"
	"github.com/example/tablebook/internal/internaltypes"
)

const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	dateTimeLayout = DateLayout + " " + TimeLayout

	DefaultMinPartySize = 1
	DefaultMaxPartySize = 20
)

// Validator holds the bounds and reference clock used to vet raw booking
// input. The zero value is not usable; build one with New.
type Validator struct {
	clock    clock.Clock
	loc      *time.Location
	minParty int
	maxParty int
}

func New(clk clock.Clock, loc *time.Location, minParty, maxParty int) Validator {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if loc == nil {
		loc = time.UTC
	}
	return Validator{clock: clk, loc: loc, minParty: minParty, maxParty: maxParty}
}

// DateTime parses date (YYYY-MM-DD) and clock time (HH:MM) into a single
// instant and rejects instants strictly before now. Input that does not
// round-trip, such as a wall time skipped by a daylight-saving jump, is
// malformed.
func (v Validator) DateTime(date, clockTime string) (time.Time, error) {
	ts, err := time.ParseInLocation(dateTimeLayout, date+" "+clockTime, v.loc)
	if err == nil && ts.Format(dateTimeLayout) != date+" "+clockTime {
		return time.Time{}, fmt.Errorf("%w: %s %s does not exist in %s", internaltypes.ErrInvalidFormat, date, clockTime, v.loc)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date=%q time=%q", internaltypes.ErrInvalidFormat, date, clockTime)
	}
	if ts.Before(v.clock.Now()) {
		return time.Time{}, fmt.Errorf("%w: %s %s", internaltypes.ErrPastDateTime, date, clockTime)
	}
	return ts, nil
}

func (v Validator) PartySize(n int) error {
	if n < v.minParty || n > v.maxParty {
		return fmt.Errorf("%w: %d not in [%d, %d]", internaltypes.ErrPartySizeOutOfRange, n, v.minParty, v.maxParty)
	}
	return nil
}

// Date parses a calendar day without the past check.
func (v Validator) Date(date string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, v.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date=%q", internaltypes.ErrInvalidFormat, date)
	}
	return d, nil
}
