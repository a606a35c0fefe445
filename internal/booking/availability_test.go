package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tablebook/internal/domain/reservation"
	"github.com/example/tablebook/internal/internaltypes"
	"github.com/example/tablebook/internal/timeslot"
)

func TestAvailabilityWindow(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name string
		time string
		want []string
	}{
		{"centred", "19:00", []string{"18:00", "18:30", "19:00", "19:30", "20:00"}},
		{"clipped at open", "17:30", []string{"17:00", "17:30", "18:00", "18:30"}},
		{"clipped at close", "21:30", []string{"20:30", "21:00", "21:30", "22:00"}},
		{"just before opening", "16:00", []string{"17:00"}},
		{"window ends before opening", "15:30", nil},
		{"long before opening", "13:00", nil},
		{"after closing", "23:30", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Availability(ctx, "test", monday, tc.time, 2)
			require.NoError(t, err)
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAvailabilityStaysInsideHours(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	ctx := context.Background()
	open, closing := timeslot.MustParse("17:00"), timeslot.MustParse("22:00")

	for _, requested := range timeslot.Generate(timeslot.MustParse("12:00"), timeslot.MustParse("23:45"), 15) {
		got, err := e.Availability(ctx, "test", monday, requested.String(), 2)
		require.NoError(t, err)
		for _, s := range got {
			slot := timeslot.MustParse(s)
			assert.GreaterOrEqual(t, slot, open, "requested %s", requested)
			assert.LessOrEqual(t, slot, closing, "requested %s", requested)
		}
	}
}

func TestAvailabilityEmptyResults(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	ctx := context.Background()

	got, err := e.Availability(ctx, "test", tuesday, "19:00", 2)
	require.NoError(t, err)
	assert.Empty(t, got, "closed on Tuesday")

	got, err = e.Availability(ctx, "test", monday, "19:00", 7)
	require.NoError(t, err)
	assert.Empty(t, got, "no table seats seven")
}

func TestAvailabilityErrors(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Availability(ctx, "missing", monday, "19:00", 2)
	assert.ErrorIs(t, err, internaltypes.ErrRestaurantNotFound)

	_, err = e.Availability(ctx, "test", monday, "11:00", 2)
	assert.ErrorIs(t, err, internaltypes.ErrPastDateTime)

	_, err = e.Availability(ctx, "test", "09-03-2026", "19:00", 2)
	assert.ErrorIs(t, err, internaltypes.ErrInvalidFormat)

	_, err = e.Availability(ctx, "test", monday, "19:00", 0)
	assert.ErrorIs(t, err, internaltypes.ErrPartySizeOutOfRange)

	_, err = e.Availability(ctx, "test", monday, "19:00", 21)
	assert.ErrorIs(t, err, internaltypes.ErrPartySizeOutOfRange)
}

func TestAvailabilitySubtractsConfirmedOnly(t *testing.T) {
	t.Parallel()

	e, store := newTestEngine(t)
	ctx := context.Background()

	for _, r := range []reservation.Reservation{
		{ID: "a", RestaurantID: "test", Date: monday, Time: "19:00", PartySize: 6, Status: reservation.StatusConfirmed},
		{ID: "b", RestaurantID: "test", Date: monday, Time: "19:00", PartySize: 4, Status: reservation.StatusCancelled},
		{ID: "c", RestaurantID: "test", Date: tuesday, Time: "19:00", PartySize: 4, Status: reservation.StatusConfirmed},
		{ID: "d", RestaurantID: "other", Date: monday, Time: "19:00", PartySize: 4, Status: reservation.StatusConfirmed},
	} {
		require.NoError(t, store.AppendReservation(ctx, r))
	}

	got, err := e.Availability(ctx, "test", monday, "19:00", 4)
	require.NoError(t, err)
	assert.Contains(t, got, "19:00", "10 seats less 6 leaves 4")

	got, err = e.Availability(ctx, "test", monday, "19:00", 5)
	require.NoError(t, err)
	assert.NotContains(t, got, "19:00", "only the six-top fits five and it is taken")
	assert.Contains(t, got, "18:30")
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	e, store := newTestEngine(t)
	ctx := context.Background()
	require.NoError(t, store.AppendReservation(ctx, reservation.Reservation{
		ID: "full", RestaurantID: "test", Date: monday, Time: "19:00", PartySize: 10, Status: reservation.StatusConfirmed,
	}))

	slot, ok, err := e.Suggest(ctx, "test", monday, "19:00", 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "18:30", slot)

	_, ok, err = e.Suggest(ctx, "test", tuesday, "19:00", 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenSlotsExcludesReservation(t *testing.T) {
	t.Parallel()

	r := testRestaurant()
	at := testNow.Add(7 * 60 * 60) // 19:00
	existing := []reservation.Reservation{
		{ID: "self", RestaurantID: "test", Date: monday, Time: "19:00", PartySize: 10, Status: reservation.StatusConfirmed},
	}

	got, err := openSlots(r, at, 2, 30, existing, "")
	require.NoError(t, err)
	assert.NotContains(t, timeslot.Strings(got), "19:00")

	got, err = openSlots(r, at, 2, 30, existing, "self")
	require.NoError(t, err)
	assert.Contains(t, timeslot.Strings(got), "19:00")
}
