package restaurant

import "time"

// Table is a seating unit owned by one restaurant.
type Table struct {
	ID          string `json:"id"`
	Seats       int    `json:"seats"`
	Description string `json:"description,omitempty"`
}

// Hours is one weekday's opening window as HH:MM clock times.
type Hours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

type Restaurant struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Location        string           `json:"location"`
	Cuisine         string           `json:"cuisine"`
	PriceRange      int              `json:"price_range"`
	SeatingCapacity int              `json:"seating_capacity"`
	Tables          []Table          `json:"tables"`
	OperatingHours  map[string]Hours `json:"operating_hours"`
	Rating          float64          `json:"rating,omitempty"`
	Description     string           `json:"description,omitempty"`
}

// HoursOn returns the opening window for the weekday of day.
func (r Restaurant) HoursOn(day time.Time) (Hours, bool) {
	h, ok := r.OperatingHours[day.Weekday().String()]
	return h, ok
}

// SuitableTables returns the tables seating at least partySize guests.
func (r Restaurant) SuitableTables(partySize int) []Table {
	var out []Table
	for _, t := range r.Tables {
		if t.Seats >= partySize {
			out = append(out, t)
		}
	}
	return out
}

// SuitableSeats is the seat total across SuitableTables.
func (r Restaurant) SuitableSeats(partySize int) int {
	n := 0
	for _, t := range r.SuitableTables(partySize) {
		n += t.Seats
	}
	return n
}

func (r Restaurant) TotalSeats() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Seats
	}
	return n
}

// LargestTable is the seat count of the biggest table, 0 with no tables.
func (r Restaurant) LargestTable() int {
	m := 0
	for _, t := range r.Tables {
		if t.Seats > m {
			m = t.Seats
		}
	}
	return m
}
