package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tablebook/internal/timeslot"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusConfirmed, StatusConfirmed, false},
		{Status("pending"), StatusCancelled, false},
		{StatusConfirmed, Status(""), false},
	}
	for _, tc := range cases {
		err := CanTransition(tc.from, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
		}
	}
	assert.Empty(t, ValidTransitionsFrom(StatusCompleted))
	assert.ElementsMatch(t, []Status{StatusCancelled, StatusCompleted}, ValidTransitionsFrom(StatusConfirmed))
}

func TestHolds(t *testing.T) {
	t.Parallel()

	r := Reservation{RestaurantID: "r1", Date: "2026-05-01", Time: "19:00", Status: StatusConfirmed}
	assert.True(t, r.Holds("r1", "2026-05-01", "19:00"))
	assert.False(t, r.Holds("r1", "2026-05-01", "19:30"))
	assert.False(t, r.Holds("r2", "2026-05-01", "19:00"))

	r.Status = StatusCancelled
	assert.False(t, r.Holds("r1", "2026-05-01", "19:00"))
}

func TestStartsAt(t *testing.T) {
	t.Parallel()

	r := Reservation{Date: "2026-05-01", Time: "19:30"}
	ts, err := r.StartsAt(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 19, 30, 0, 0, time.UTC), ts)
}

func TestClosestSlot(t *testing.T) {
	t.Parallel()

	slots := []timeslot.Time{
		timeslot.MustParse("17:00"),
		timeslot.MustParse("17:30"),
		timeslot.MustParse("19:00"),
	}

	got, ok := ClosestSlot(timeslot.MustParse("18:00"), slots)
	require.True(t, ok)
	assert.Equal(t, "17:30", got.String())

	// 18:15 is 45 minutes from both 17:30 and 19:00.
	got, ok = ClosestSlot(timeslot.MustParse("18:15"), slots)
	require.True(t, ok)
	assert.Equal(t, "17:30", got.String())

	_, ok = ClosestSlot(timeslot.MustParse("18:00"), nil)
	assert.False(t, ok)
}
