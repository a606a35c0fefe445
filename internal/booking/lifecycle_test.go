package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tablebook/internal/domain/reservation"
	"github.com/example/tablebook/internal/internaltypes"
	"github.com/example/tablebook/internal/lock"
	"github.com/example/tablebook/internal/storage/memory"
)

func book(t *testing.T, e *Engine, clockTime string, party int) *reservation.Reservation {
	t.Helper()
	res, err := e.Book(context.Background(), BookRequest{
		RestaurantID: "test",
		CustomerID:   "cust",
		Date:         monday,
		Time:         clockTime,
		PartySize:    party,
	})
	require.NoError(t, err)
	return res
}

func TestBookExhaustsCapacity(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	ctx := context.Background()

	slots, err := e.Availability(ctx, "test", monday, "18:00", 4)
	require.NoError(t, err)
	assert.Contains(t, slots, "18:00")

	six := book(t, e, "18:00", 6)
	require.NotNil(t, six)
	four := book(t, e, "18:00", 4)
	require.NotNil(t, four)

	assert.Nil(t, book(t, e, "18:00", 1), "6+4 fills all ten seats")
	assert.NotNil(t, book(t, e, "18:30", 1), "neighbouring slot is untouched")
}

func TestBookAggregateRule(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	require.NotNil(t, book(t, e, "18:00", 4))
	// Only the six-top fits six, and the four already booked count against it.
	assert.Nil(t, book(t, e, "18:00", 6))
	require.NotNil(t, book(t, e, "18:00", 2), "smaller parties still fit")
}

func TestBookFields(t *testing.T) {
	t.Parallel()

	e, store := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Book(ctx, BookRequest{RestaurantID: "test", Date: monday, Time: "19:30", PartySize: 3})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "res-1", res.ID)
	assert.Equal(t, reservation.UnknownCustomer, res.CustomerID)
	assert.Equal(t, reservation.StatusConfirmed, res.Status)
	assert.Equal(t, "19:30", res.Time)
	assert.Equal(t, testNow, res.CreatedAt)

	stored, err := store.FindReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, *res, stored)
}

func TestBookRejections(t *testing.T) {
	t.Parallel()

	e, store := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  BookRequest
		err  error
	}{
		{"past", BookRequest{RestaurantID: "test", Date: "2026-03-08", Time: "19:00", PartySize: 2}, internaltypes.ErrPastDateTime},
		{"earlier today", BookRequest{RestaurantID: "test", Date: monday, Time: "11:30", PartySize: 2}, internaltypes.ErrPastDateTime},
		{"bad time", BookRequest{RestaurantID: "test", Date: monday, Time: "7pm", PartySize: 2}, internaltypes.ErrInvalidFormat},
		{"party too small", BookRequest{RestaurantID: "test", Date: monday, Time: "19:00", PartySize: 0}, internaltypes.ErrPartySizeOutOfRange},
		{"party too large", BookRequest{RestaurantID: "test", Date: monday, Time: "19:00", PartySize: 21}, internaltypes.ErrPartySizeOutOfRange},
		{"unknown restaurant", BookRequest{RestaurantID: "nope", Date: monday, Time: "19:00", PartySize: 2}, internaltypes.ErrRestaurantNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.Book(ctx, tc.req)
			assert.ErrorIs(t, err, tc.err)
			assert.Nil(t, res)
		})
	}

	all, err := store.ListReservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBookUnavailableIsNotAnError(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	assert.Nil(t, book(t, e, "16:00", 2), "before opening")
	assert.Nil(t, book(t, e, "22:30", 2), "after closing")
	assert.Nil(t, book(t, e, "19:00", 7), "no table large enough")
}

func TestBookLockFailure(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, WithLocker(failingLocker{}))
	_, err := e.Book(context.Background(), BookRequest{RestaurantID: "test", Date: monday, Time: "19:00", PartySize: 2})
	assert.ErrorContains(t, err, "lock service down")
}

func TestConcurrentBookNeverOversells(t *testing.T) {
	t.Parallel()

	e, store := newTestEngine(t, WithIDGenerator(uuid.NewString))
	ctx := context.Background()

	const callers = 40
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		confirmed int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.Book(ctx, BookRequest{RestaurantID: "test", Date: monday, Time: "20:00", PartySize: 2})
			if !assert.NoError(t, err) {
				return
			}
			if res != nil {
				mu.Lock()
				confirmed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, confirmed, "ten seats fit five parties of two")
	all, err := store.ReservationsOn(ctx, "test", monday)
	require.NoError(t, err)
	seats := 0
	for _, r := range all {
		seats += r.PartySize
	}
	assert.Equal(t, 10, seats)
}

func TestConcurrentModifyAndBookNeverOversell(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	for round := 0; round < 10; round++ {
		e, store := newTestEngine(t, WithIDGenerator(uuid.NewString))
		var movers []*reservation.Reservation
		for i := 0; i < 5; i++ {
			res := book(t, e, "18:00", 2)
			require.NotNil(t, res)
			movers = append(movers, res)
		}

		var (
			wg            sync.WaitGroup
			mu            sync.Mutex
			moved, booked int
		)
		for _, res := range movers {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				got, err := e.Modify(ctx, id, ModifyRequest{Time: strPtr("20:00")})
				if !assert.NoError(t, err) {
					return
				}
				if got != nil {
					mu.Lock()
					moved++
					mu.Unlock()
				}
			}(res.ID)
		}
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := e.Book(ctx, BookRequest{RestaurantID: "test", Date: monday, Time: "20:00", PartySize: 2})
				if !assert.NoError(t, err) {
					return
				}
				if got != nil {
					mu.Lock()
					booked++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		all, err := store.ReservationsOn(ctx, "test", monday)
		require.NoError(t, err)
		seats := map[string]int{}
		for _, r := range all {
			if r.IsConfirmed() {
				seats[r.Time] += r.PartySize
			}
		}
		assert.Equal(t, 5, moved+booked, "round %d", round)
		assert.Equal(t, 10, seats["20:00"], "round %d", round)
		assert.Equal(t, 2*(5-moved), seats["18:00"], "round %d", round)
	}
}

// observedLocker reports each requested key before waiting for it.
type observedLocker struct {
	inner     *lock.Local
	requested chan string
}

func (l *observedLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.requested <- key
	return l.inner.Lock(ctx, key)
}

func TestModifyKeepsChangesMadeWhileWaiting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	setup := func(t *testing.T) (*Engine, *memory.Store, *observedLocker, *reservation.Reservation) {
		t.Helper()
		l := &observedLocker{inner: lock.NewLocal(), requested: make(chan string, 8)}
		e, store := newTestEngine(t, WithLocker(l))
		res := book(t, e, "18:00", 2)
		require.NotNil(t, res)
		<-l.requested
		return e, store, l, res
	}

	t.Run("party size grown by another writer", func(t *testing.T) {
		e, store, l, res := setup(t)
		release, err := l.inner.Lock(ctx, lockKey("test", monday))
		require.NoError(t, err)

		done := make(chan *reservation.Reservation, 1)
		go func() {
			got, err := e.Modify(ctx, res.ID, ModifyRequest{Time: strPtr("19:00")})
			assert.NoError(t, err)
			done <- got
		}()
		assert.Equal(t, lockKey("test", monday), <-l.requested)

		grown := *res
		grown.PartySize = 6
		require.NoError(t, store.UpdateReservation(ctx, grown))
		release()

		got := <-done
		require.NotNil(t, got)
		assert.Equal(t, "19:00", got.Time)
		assert.Equal(t, 6, got.PartySize)
		stored, err := store.FindReservation(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, *got, stored)
	})

	t.Run("date moved by another writer", func(t *testing.T) {
		e, store, l, res := setup(t)
		release, err := l.inner.Lock(ctx, lockKey("test", monday))
		require.NoError(t, err)

		done := make(chan *reservation.Reservation, 1)
		go func() {
			got, err := e.Modify(ctx, res.ID, ModifyRequest{PartySize: intPtr(4)})
			assert.NoError(t, err)
			done <- got
		}()
		<-l.requested

		movedRes := *res
		movedRes.Date = "2026-03-11"
		require.NoError(t, store.UpdateReservation(ctx, movedRes))
		release()

		got := <-done
		require.NotNil(t, got)
		assert.Equal(t, "2026-03-11", got.Date)
		assert.Equal(t, "18:00", got.Time)
		assert.Equal(t, 4, got.PartySize)
	})
}

func TestModify(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("own slot with same party", func(t *testing.T) {
		e, _ := newTestEngine(t)
		require.NotNil(t, book(t, e, "19:00", 6))
		res := book(t, e, "19:00", 4)
		require.NotNil(t, res)

		got, err := e.Modify(ctx, res.ID, ModifyRequest{Time: strPtr("19:00")})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "19:00", got.Time)
	})

	t.Run("move time", func(t *testing.T) {
		e, store := newTestEngine(t)
		res := book(t, e, "19:00", 2)

		got, err := e.Modify(ctx, res.ID, ModifyRequest{Time: strPtr("20:00"), PartySize: intPtr(3)})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "20:00", got.Time)
		assert.Equal(t, 3, got.PartySize)
		assert.Equal(t, res.ID, got.ID)

		stored, err := store.FindReservation(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, *got, stored)
	})

	t.Run("full target leaves reservation alone", func(t *testing.T) {
		e, store := newTestEngine(t)
		res := book(t, e, "19:00", 2)
		require.NotNil(t, book(t, e, "20:00", 6))
		require.NotNil(t, book(t, e, "20:00", 4))

		got, err := e.Modify(ctx, res.ID, ModifyRequest{Time: strPtr("20:00")})
		require.NoError(t, err)
		assert.Nil(t, got)

		stored, err := store.FindReservation(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, *res, stored)
	})

	t.Run("party size only is rechecked", func(t *testing.T) {
		e, _ := newTestEngine(t)
		require.NotNil(t, book(t, e, "19:00", 6))
		res := book(t, e, "19:00", 2)
		require.NotNil(t, res)

		got, err := e.Modify(ctx, res.ID, ModifyRequest{PartySize: intPtr(5)})
		require.NoError(t, err)
		assert.Nil(t, got, "only the six-top fits five and it is taken")

		got, err = e.Modify(ctx, res.ID, ModifyRequest{PartySize: intPtr(4)})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 4, got.PartySize)
	})

	t.Run("date only", func(t *testing.T) {
		e, _ := newTestEngine(t)
		res := book(t, e, "19:00", 2)

		got, err := e.Modify(ctx, res.ID, ModifyRequest{Date: strPtr("2026-03-11")})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "2026-03-11", got.Date)
		assert.Equal(t, "19:00", got.Time)

		got, err = e.Modify(ctx, res.ID, ModifyRequest{Date: strPtr(tuesday)})
		require.NoError(t, err)
		assert.Nil(t, got, "closed on Tuesday")
	})

	t.Run("validation", func(t *testing.T) {
		e, _ := newTestEngine(t)
		res := book(t, e, "19:00", 2)

		_, err := e.Modify(ctx, res.ID, ModifyRequest{Date: strPtr("2026-03-01")})
		assert.ErrorIs(t, err, internaltypes.ErrPastDateTime)

		_, err = e.Modify(ctx, res.ID, ModifyRequest{Time: strPtr("25:00")})
		assert.ErrorIs(t, err, internaltypes.ErrInvalidFormat)

		_, err = e.Modify(ctx, res.ID, ModifyRequest{PartySize: intPtr(0)})
		assert.ErrorIs(t, err, internaltypes.ErrPartySizeOutOfRange)
	})

	t.Run("nothing supplied", func(t *testing.T) {
		e, _ := newTestEngine(t)
		res := book(t, e, "19:00", 2)

		got, err := e.Modify(ctx, res.ID, ModifyRequest{})
		require.NoError(t, err)
		assert.Equal(t, res, got)
	})

	t.Run("missing or not confirmed", func(t *testing.T) {
		e, _ := newTestEngine(t)
		_, err := e.Modify(ctx, "nope", ModifyRequest{Time: strPtr("19:00")})
		assert.ErrorIs(t, err, internaltypes.ErrReservationNotFound)

		res := book(t, e, "19:00", 2)
		ok, err := e.Cancel(ctx, res.ID)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = e.Modify(ctx, res.ID, ModifyRequest{Time: strPtr("20:00")})
		assert.ErrorIs(t, err, internaltypes.ErrReservationNotFound)
	})
}

func TestCancel(t *testing.T) {
	t.Parallel()

	e, store := newTestEngine(t)
	ctx := context.Background()
	res := book(t, e, "19:00", 6)
	require.NotNil(t, res)
	require.NotNil(t, book(t, e, "19:00", 4))
	require.Nil(t, book(t, e, "19:00", 1))

	ok, err := e.Cancel(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Cancel(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, ok, "cancelling twice is a no-op")

	stored, err := store.FindReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, reservation.StatusCancelled, stored.Status)

	assert.NotNil(t, book(t, e, "19:00", 1), "seats were released")

	ok, err = e.Cancel(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompleteElapsed(t *testing.T) {
	t.Parallel()

	e, store := newTestEngine(t)
	ctx := context.Background()
	seed := []reservation.Reservation{
		{ID: "old", RestaurantID: "test", Date: "2026-03-09", Time: "09:00", PartySize: 2, Status: reservation.StatusConfirmed},
		{ID: "recent", RestaurantID: "test", Date: "2026-03-09", Time: "11:00", PartySize: 2, Status: reservation.StatusConfirmed},
		{ID: "gone", RestaurantID: "test", Date: "2026-03-08", Time: "19:00", PartySize: 2, Status: reservation.StatusCancelled},
		{ID: "future", RestaurantID: "test", Date: "2026-03-09", Time: "19:00", PartySize: 2, Status: reservation.StatusConfirmed},
	}
	for _, r := range seed {
		require.NoError(t, store.AppendReservation(ctx, r))
	}

	n, err := e.CompleteElapsed(ctx, 2*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	want := map[string]reservation.Status{
		"old":    reservation.StatusCompleted,
		"recent": reservation.StatusConfirmed,
		"gone":   reservation.StatusCancelled,
		"future": reservation.StatusConfirmed,
	}
	for id, status := range want {
		r, err := store.FindReservation(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, r.Status, id)
	}

	ok, err := e.Cancel(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok, "completed reservations cannot be cancelled")

	assert.ErrorIs(t, e.Complete(ctx, "gone"), reservation.ErrInvalidTransition)
	assert.ErrorIs(t, e.Complete(ctx, "missing"), internaltypes.ErrReservationNotFound)
}

func TestCustomerReservations(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	ctx := context.Background()
	late := book(t, e, "21:00", 2)
	early := book(t, e, "18:00", 2)
	_, err := e.Book(ctx, BookRequest{RestaurantID: "test", CustomerID: "someone-else", Date: monday, Time: "19:00", PartySize: 2})
	require.NoError(t, err)

	got, err := e.CustomerReservations(ctx, "cust")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, early.ID, got[0].ID)
	assert.Equal(t, late.ID, got[1].ID)
}
