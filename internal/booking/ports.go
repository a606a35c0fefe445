package booking

import (
	"context"

	"github.com/example/tablebook/internal/domain/reservation"
	"github.com/example/tablebook/internal/domain/restaurant"
)

// Store is the persistence the engine needs. Implementations must be safe
// for concurrent use; the engine serialises conflicting writes itself.
type Store interface {
	ListRestaurants(ctx context.Context) ([]restaurant.Restaurant, error)
	ListReservations(ctx context.Context) ([]reservation.Reservation, error)
	AppendReservation(ctx context.Context, r reservation.Reservation) error
	UpdateReservation(ctx context.Context, r reservation.Reservation) error
}

// RestaurantFinder is an optional Store extension for direct lookups.
// FindRestaurant returns internaltypes.ErrRestaurantNotFound on a miss.
type RestaurantFinder interface {
	FindRestaurant(ctx context.Context, id string) (restaurant.Restaurant, error)
}

// ReservationFinder is an optional Store extension that avoids full scans.
// FindReservation returns internaltypes.ErrReservationNotFound on a miss.
type ReservationFinder interface {
	FindReservation(ctx context.Context, id string) (reservation.Reservation, error)
	ReservationsOn(ctx context.Context, restaurantID, date string) ([]reservation.Reservation, error)
	ReservationsForCustomer(ctx context.Context, customerID string) ([]reservation.Reservation, error)
}

// Locker grants exclusive access to a key until the returned func is called.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
