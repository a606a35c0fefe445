package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/tablebook/internal/clock"
	"github.com/example/tablebook/internal/domain/reservation"
	"github.com/example/tablebook/internal/domain/restaurant"
	"github.com/example/tablebook/internal/internaltypes"
	"github.com/example/tablebook/internal/lock"
	"github.com/example/tablebook/internal/validate"
)

const (
	DefaultSlotInterval = 30
	// windowMinutes is how far either side of the requested time we look.
	windowMinutes = 60
)

type Engine struct {
	store    Store
	locker   Locker
	clock    clock.Clock
	loc      *time.Location
	interval int
	minParty int
	maxParty int
	log      *zap.Logger
	newID    func() string

	validator validate.Validator
}

type Option func(*Engine)

func WithLocker(l Locker) Option { return func(e *Engine) { e.locker = l } }

func WithClock(c clock.Clock) Option { return func(e *Engine) { e.clock = c } }

func WithLocation(loc *time.Location) Option { return func(e *Engine) { e.loc = loc } }

func WithSlotInterval(minutes int) Option { return func(e *Engine) { e.interval = minutes } }

func WithPartySizeBounds(min, max int) Option {
	return func(e *Engine) { e.minParty, e.maxParty = min, max }
}

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.log = l } }

// WithIDGenerator replaces the UUID source for new reservations.
func WithIDGenerator(f func() string) Option { return func(e *Engine) { e.newID = f } }

func New(store Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", internaltypes.ErrInvalidArgument)
	}
	e := &Engine{
		store:    store,
		locker:   lock.NewLocal(),
		clock:    clock.NewSystem(),
		loc:      time.UTC,
		interval: DefaultSlotInterval,
		minParty: validate.DefaultMinPartySize,
		maxParty: validate.DefaultMaxPartySize,
		log:      zap.NewNop(),
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	if e.interval <= 0 {
		return nil, fmt.Errorf("%w: slot interval must be positive (got %d)", internaltypes.ErrInvalidArgument, e.interval)
	}
	if e.minParty < 1 || e.maxParty < e.minParty {
		return nil, fmt.Errorf("%w: party size bounds [%d, %d]", internaltypes.ErrInvalidArgument, e.minParty, e.maxParty)
	}
	e.validator = validate.New(e.clock, e.loc, e.minParty, e.maxParty)
	return e, nil
}

func (e *Engine) Restaurant(ctx context.Context, id string) (restaurant.Restaurant, error) {
	if f, ok := e.store.(RestaurantFinder); ok {
		return f.FindRestaurant(ctx, id)
	}
	all, err := e.store.ListRestaurants(ctx)
	if err != nil {
		return restaurant.Restaurant{}, fmt.Errorf("list restaurants: %w", err)
	}
	for _, r := range all {
		if r.ID == id {
			return r, nil
		}
	}
	return restaurant.Restaurant{}, fmt.Errorf("%w: %s", internaltypes.ErrRestaurantNotFound, id)
}

func (e *Engine) Reservation(ctx context.Context, id string) (reservation.Reservation, error) {
	if f, ok := e.store.(ReservationFinder); ok {
		return f.FindReservation(ctx, id)
	}
	all, err := e.store.ListReservations(ctx)
	if err != nil {
		return reservation.Reservation{}, fmt.Errorf("list reservations: %w", err)
	}
	for _, r := range all {
		if r.ID == id {
			return r, nil
		}
	}
	return reservation.Reservation{}, fmt.Errorf("%w: %s", internaltypes.ErrReservationNotFound, id)
}

// CustomerReservations returns every reservation made by customerID,
// ordered by date and time.
func (e *Engine) CustomerReservations(ctx context.Context, customerID string) ([]reservation.Reservation, error) {
	var out []reservation.Reservation
	if f, ok := e.store.(ReservationFinder); ok {
		rs, err := f.ReservationsForCustomer(ctx, customerID)
		if err != nil {
			return nil, err
		}
		out = rs
	} else {
		all, err := e.store.ListReservations(ctx)
		if err != nil {
			return nil, fmt.Errorf("list reservations: %w", err)
		}
		for _, r := range all {
			if r.CustomerID == customerID {
				out = append(out, r)
			}
		}
	}
	sortReservations(out)
	return out, nil
}

func (e *Engine) reservationsOn(ctx context.Context, restaurantID, date string) ([]reservation.Reservation, error) {
	if f, ok := e.store.(ReservationFinder); ok {
		return f.ReservationsOn(ctx, restaurantID, date)
	}
	all, err := e.store.ListReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	var out []reservation.Reservation
	for _, r := range all {
		if r.RestaurantID == restaurantID && r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

func sortReservations(rs []reservation.Reservation) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Date != rs[j].Date {
			return rs[i].Date < rs[j].Date
		}
		return rs[i].Time < rs[j].Time
	})
}
