package timeslot

import (
	"fmt"
	"time"

	"github.com/example/tablebook/internal/internaltypes"
)

const layout = "15:04"

// Time is a clock time expressed as minutes since midnight. It carries no
// date, so two values compare by time of day only.
type Time int

const minutesPerDay = 24 * 60

// Parse reads a 24-hour HH:MM clock time.
func Parse(s string) (Time, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", internaltypes.ErrInvalidTimeFormat, s)
	}
	return Time(t.Hour()*60 + t.Minute()), nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add shifts t by the given number of minutes, clamped to the same day.
func (t Time) Add(minutes int) Time {
	v := int(t) + minutes
	if v < 0 {
		return 0
	}
	if v >= minutesPerDay {
		return minutesPerDay - 1
	}
	return Time(v)
}

// Generate returns start, start+interval, ... up to and including end.
// An empty slice is returned when end is before start.
func Generate(start, end Time, interval int) []Time {
	if interval <= 0 || end < start {
		return nil
	}
	out := make([]Time, 0, int(end-start)/interval+1)
	for cur := start; cur <= end; cur += Time(interval) {
		out = append(out, cur)
	}
	return out
}

// Between parses both bounds and generates the inclusive slot sequence.
func Between(start, end string, interval int) ([]Time, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: slot interval must be positive (got %d)", internaltypes.ErrInvalidArgument, interval)
	}
	s, err := Parse(start)
	if err != nil {
		return nil, err
	}
	e, err := Parse(end)
	if err != nil {
		return nil, err
	}
	return Generate(s, e, interval), nil
}

// Strings renders slots in canonical HH:MM form.
func Strings(ts []Time) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.String())
	}
	return out
}
