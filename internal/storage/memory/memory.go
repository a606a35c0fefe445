// Package memory keeps the catalog, reservations and customers in process.
// It backs tests and single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/tablebook/internal/domain/customer"
	"github.com/example/tablebook/internal/domain/reservation"
	"github.com/example/tablebook/internal/domain/restaurant"
	"github.com/example/tablebook/internal/internaltypes"
)

type Store struct {
	mu           sync.RWMutex
	restaurants  []restaurant.Restaurant
	restIndex    map[string]int
	reservations []reservation.Reservation
	resIndex     map[string]int
	customers    map[string]customer.Customer
}

func New() *Store {
	return &Store{
		restIndex: make(map[string]int),
		resIndex:  make(map[string]int),
		customers: make(map[string]customer.Customer),
	}
}

// SaveRestaurant inserts r or replaces the restaurant with the same id.
func (s *Store) SaveRestaurant(_ context.Context, r restaurant.Restaurant) error {
	if r.ID == "" {
		return fmt.Errorf("%w: restaurant id required", internaltypes.ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.restIndex[r.ID]; ok {
		s.restaurants[i] = r
		return nil
	}
	s.restIndex[r.ID] = len(s.restaurants)
	s.restaurants = append(s.restaurants, r)
	return nil
}

func (s *Store) ListRestaurants(_ context.Context) ([]restaurant.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]restaurant.Restaurant, len(s.restaurants))
	copy(out, s.restaurants)
	return out, nil
}

func (s *Store) FindRestaurant(_ context.Context, id string) (restaurant.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.restIndex[id]
	if !ok {
		return restaurant.Restaurant{}, fmt.Errorf("%w: %s", internaltypes.ErrRestaurantNotFound, id)
	}
	return s.restaurants[i], nil
}

func (s *Store) ListReservations(_ context.Context) ([]reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]reservation.Reservation, len(s.reservations))
	copy(out, s.reservations)
	return out, nil
}

func (s *Store) FindReservation(_ context.Context, id string) (reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.resIndex[id]
	if !ok {
		return reservation.Reservation{}, fmt.Errorf("%w: %s", internaltypes.ErrReservationNotFound, id)
	}
	return s.reservations[i], nil
}

func (s *Store) ReservationsOn(_ context.Context, restaurantID, date string) ([]reservation.Reservation, error) {
	return s.filter(func(r reservation.Reservation) bool {
		return r.RestaurantID == restaurantID && r.Date == date
	}), nil
}

func (s *Store) ReservationsForCustomer(_ context.Context, customerID string) ([]reservation.Reservation, error) {
	return s.filter(func(r reservation.Reservation) bool { return r.CustomerID == customerID }), nil
}

func (s *Store) filter(keep func(reservation.Reservation) bool) []reservation.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []reservation.Reservation
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Store) AppendReservation(_ context.Context, r reservation.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resIndex[r.ID]; ok {
		return fmt.Errorf("reservation %s: %w", r.ID, internaltypes.ErrAlreadyExists)
	}
	s.resIndex[r.ID] = len(s.reservations)
	s.reservations = append(s.reservations, r)
	return nil
}

func (s *Store) UpdateReservation(_ context.Context, r reservation.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.resIndex[r.ID]
	if !ok {
		return fmt.Errorf("%w: %s", internaltypes.ErrReservationNotFound, r.ID)
	}
	s.reservations[i] = r
	return nil
}

func (s *Store) CreateCustomer(_ context.Context, c customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[c.ID]; ok {
		return fmt.Errorf("customer %s: %w", c.ID, internaltypes.ErrAlreadyExists)
	}
	for _, existing := range s.customers {
		if existing.Email == c.Email {
			return fmt.Errorf("customer email %s: %w", c.Email, internaltypes.ErrAlreadyExists)
		}
	}
	s.customers[c.ID] = c
	return nil
}

func (s *Store) CustomerByEmail(_ context.Context, email string) (customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return customer.Customer{}, fmt.Errorf("customer %w", internaltypes.ErrNotFound)
}

func (s *Store) CustomerByID(_ context.Context, id string) (customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return customer.Customer{}, fmt.Errorf("customer %w", internaltypes.ErrNotFound)
	}
	return c, nil
}
