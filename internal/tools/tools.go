// Package tools exposes the booking engine as named operations with JSON
// parameters, the shape a conversational front end calls into.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/example/tablebook/internal/booking"
	"github.com/example/tablebook/internal/domain/reservation"
	"github.com/example/tablebook/internal/domain/restaurant"
	"github.com/example/tablebook/internal/internaltypes"
)

const (
	SearchRestaurants = "search_restaurants"
	CheckAvailability = "check_availability"
	MakeReservation   = "make_reservation"
	ModifyReservation = "modify_reservation"
	CancelReservation = "cancel_reservation"
)

// Engine is the slice of booking.Engine the tools drive.
type Engine interface {
	Search(ctx context.Context, c booking.Criteria) ([]restaurant.Restaurant, error)
	Availability(ctx context.Context, restaurantID, date, clockTime string, partySize int) ([]string, error)
	Suggest(ctx context.Context, restaurantID, date, clockTime string, partySize int) (string, bool, error)
	Book(ctx context.Context, req booking.BookRequest) (*reservation.Reservation, error)
	Modify(ctx context.Context, id string, req booking.ModifyRequest) (*reservation.Reservation, error)
	Cancel(ctx context.Context, id string) (bool, error)
	Reservation(ctx context.Context, id string) (reservation.Reservation, error)
}

type SearchParams struct {
	Cuisine    string `json:"cuisine,omitempty"`
	Location   string `json:"location,omitempty"`
	PriceRange *int   `json:"price_range,omitempty"`
	Seating    *int   `json:"seating,omitempty"`
}

type AvailabilityParams struct {
	RestaurantID string `json:"restaurant_id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	PartySize    int    `json:"party_size"`
}

type CustomerDetails struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type MakeParams struct {
	RestaurantID    string          `json:"restaurant_id"`
	Date            string          `json:"date"`
	Time            string          `json:"time"`
	PartySize       int             `json:"party_size"`
	CustomerDetails CustomerDetails `json:"customer_details"`
}

type ModifyParams struct {
	ReservationID string  `json:"reservation_id"`
	NewTime       *string `json:"new_time,omitempty"`
	NewDate       *string `json:"new_date,omitempty"`
	NewPartySize  *int    `json:"new_party_size,omitempty"`
}

type CancelParams struct {
	ReservationID string `json:"reservation_id"`
}

type AvailabilityResult struct {
	AvailableTimes []string `json:"available_times"`
}

// ReservationResult reports a booking attempt. When the slot was taken,
// Reservation is nil and Suggested holds the nearest open slot, if any.
type ReservationResult struct {
	Available   bool                     `json:"available"`
	Reservation *reservation.Reservation `json:"reservation,omitempty"`
	Suggested   string                   `json:"suggested,omitempty"`
}

type CancelResult struct {
	Cancelled bool `json:"cancelled"`
}

type Dispatcher struct {
	engine     Engine
	maxResults int
	log        *zap.Logger
	handlers   map[string]handler
}

type handler func(ctx context.Context, call callOptions, raw json.RawMessage) (any, error)

type callOptions struct {
	customerID string
	public     bool
}

// CallOption adjusts a single Execute call.
type CallOption func(*callOptions)

// AsCustomer runs the call on behalf of an authenticated customer: bookings
// are attributed to id, and modify or cancel only touch id's reservations.
func AsCustomer(id string) CallOption {
	return func(o *callOptions) { o.customerID = id }
}

// Public marks a call arriving from an open endpoint. Modify and cancel then
// require AsCustomer; without it they fail with ErrUnauthorized.
func Public() CallOption {
	return func(o *callOptions) { o.public = true }
}

// New builds a dispatcher. maxResults caps search output; zero means no cap.
func New(engine Engine, maxResults int, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{engine: engine, maxResults: maxResults, log: log}
	d.handlers = map[string]handler{
		SearchRestaurants: d.search,
		CheckAvailability: d.availability,
		MakeReservation:   d.makeReservation,
		ModifyReservation: d.modifyReservation,
		CancelReservation: d.cancelReservation,
	}
	return d
}

// Names lists the registered tools in sorted order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.handlers))
	for n := range d.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named tool with JSON params.
func (d *Dispatcher) Execute(ctx context.Context, name string, params json.RawMessage, opts ...CallOption) (any, error) {
	h, ok := d.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown tool %q", internaltypes.ErrInvalidArgument, name)
	}
	var call callOptions
	for _, o := range opts {
		o(&call)
	}
	out, err := h(ctx, call, params)
	if err != nil {
		d.log.Info("tool failed", zap.String("tool", name), zap.Error(err))
		return nil, err
	}
	d.log.Debug("tool executed", zap.String("tool", name))
	return out, nil
}

func decode(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: parameters: %v", internaltypes.ErrInvalidArgument, err)
	}
	return nil
}

func (d *Dispatcher) search(ctx context.Context, _ callOptions, raw json.RawMessage) (any, error) {
	var p SearchParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	rs, err := d.engine.Search(ctx, booking.Criteria{
		Cuisine:    p.Cuisine,
		Location:   p.Location,
		MaxPrice:   p.PriceRange,
		MinSeating: p.Seating,
		Limit:      d.maxResults,
	})
	if err != nil {
		return nil, err
	}
	if rs == nil {
		rs = []restaurant.Restaurant{}
	}
	return rs, nil
}

func (d *Dispatcher) availability(ctx context.Context, _ callOptions, raw json.RawMessage) (any, error) {
	var p AvailabilityParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	slots, err := d.engine.Availability(ctx, p.RestaurantID, p.Date, p.Time, p.PartySize)
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []string{}
	}
	return AvailabilityResult{AvailableTimes: slots}, nil
}

func (d *Dispatcher) makeReservation(ctx context.Context, call callOptions, raw json.RawMessage) (any, error) {
	var p MakeParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	customerID := p.CustomerDetails.ID
	if call.customerID != "" {
		customerID = call.customerID
	}
	res, err := d.engine.Book(ctx, booking.BookRequest{
		RestaurantID: p.RestaurantID,
		CustomerID:   customerID,
		Date:         p.Date,
		Time:         p.Time,
		PartySize:    p.PartySize,
	})
	if err != nil {
		return nil, err
	}
	if res != nil {
		return ReservationResult{Available: true, Reservation: res}, nil
	}
	return d.unavailable(ctx, p.RestaurantID, p.Date, p.Time, p.PartySize)
}

func (d *Dispatcher) modifyReservation(ctx context.Context, call callOptions, raw json.RawMessage) (any, error) {
	var p ModifyParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	current, err := d.owned(ctx, call, p.ReservationID)
	if err != nil {
		return nil, err
	}
	res, err := d.engine.Modify(ctx, p.ReservationID, booking.ModifyRequest{
		Date:      p.NewDate,
		Time:      p.NewTime,
		PartySize: p.NewPartySize,
	})
	if err != nil {
		return nil, err
	}
	if res != nil {
		return ReservationResult{Available: true, Reservation: res}, nil
	}

	date, clockTime, party := current.Date, current.Time, current.PartySize
	if p.NewDate != nil {
		date = *p.NewDate
	}
	if p.NewTime != nil {
		clockTime = *p.NewTime
	}
	if p.NewPartySize != nil {
		party = *p.NewPartySize
	}
	return d.unavailable(ctx, current.RestaurantID, date, clockTime, party)
}

func (d *Dispatcher) cancelReservation(ctx context.Context, call callOptions, raw json.RawMessage) (any, error) {
	var p CancelParams
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	if call.customerID != "" || call.public {
		if _, err := d.owned(ctx, call, p.ReservationID); err != nil {
			if internaltypes.IsNotFound(err) {
				return CancelResult{Cancelled: false}, nil
			}
			return nil, err
		}
	}
	ok, err := d.engine.Cancel(ctx, p.ReservationID)
	if err != nil {
		return nil, err
	}
	return CancelResult{Cancelled: ok}, nil
}

// owned loads a reservation and, for customer calls, checks it belongs to
// the caller. Public calls must name a customer.
func (d *Dispatcher) owned(ctx context.Context, call callOptions, id string) (reservation.Reservation, error) {
	if call.public && call.customerID == "" {
		return reservation.Reservation{}, fmt.Errorf("%w: login required to change reservation %s", internaltypes.ErrUnauthorized, id)
	}
	r, err := d.engine.Reservation(ctx, id)
	if err != nil {
		return reservation.Reservation{}, err
	}
	if call.customerID != "" && r.CustomerID != call.customerID {
		return reservation.Reservation{}, fmt.Errorf("%w: reservation %s belongs to another customer", internaltypes.ErrUnauthorized, id)
	}
	return r, nil
}

func (d *Dispatcher) unavailable(ctx context.Context, restaurantID, date, clockTime string, party int) (any, error) {
	suggested, _, err := d.engine.Suggest(ctx, restaurantID, date, clockTime, party)
	if err != nil {
		return nil, err
	}
	return ReservationResult{Available: false, Suggested: suggested}, nil
}
