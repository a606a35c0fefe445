package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/tablebook/internal/clock"
	"github.com/example/tablebook/internal/domain/restaurant"
	"github.com/example/tablebook/internal/storage/memory"
)

// 2026-03-09 is a Monday.
var testNow = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

const (
	monday  = "2026-03-09"
	tuesday = "2026-03-10"
)

func testRestaurant() restaurant.Restaurant {
	return restaurant.Restaurant{
		ID:         "test",
		Name:       "Test Restaurant",
		Location:   "Downtown",
		Cuisine:    "Italian",
		PriceRange: 2,
		Tables: []restaurant.Table{
			{ID: "t4", Seats: 4},
			{ID: "t6", Seats: 6},
		},
		OperatingHours: map[string]restaurant.Hours{
			"Monday":    {Open: "17:00", Close: "22:00"},
			"Wednesday": {Open: "11:00", Close: "23:00"},
		},
	}
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memory.Store) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.SaveRestaurant(context.Background(), testRestaurant()))
	seq := 0
	base := []Option{
		WithClock(clock.NewFixed(testNow)),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("res-%d", seq)
		}),
	}
	e, err := New(store, append(base, opts...)...)
	require.NoError(t, err)
	return e, store
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string) (func(), error) {
	return nil, errors.New("lock service down")
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
