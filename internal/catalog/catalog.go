// Package catalog reads restaurant inventories from JSON and loads them
// into a store.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/example/tablebook/internal/domain/restaurant"
	"github.com/example/tablebook/internal/internaltypes"
	"github.com/example/tablebook/internal/timeslot"
)

// Writer persists catalog entries. Saving an existing id replaces it.
type Writer interface {
	SaveRestaurant(ctx context.Context, r restaurant.Restaurant) error
}

// Load decodes a JSON array of restaurants and checks each entry.
func Load(r io.Reader) ([]restaurant.Restaurant, error) {
	var rs []restaurant.Restaurant
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	seen := make(map[string]bool, len(rs))
	for i := range rs {
		if err := Normalize(&rs[i]); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if seen[rs[i].ID] {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q: %w", i, rs[i].ID, internaltypes.ErrInvalidArgument)
		}
		seen[rs[i].ID] = true
	}
	return rs, nil
}

func LoadFile(path string) ([]restaurant.Restaurant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Normalize validates r and fills in the seating capacity from its tables.
func Normalize(r *restaurant.Restaurant) error {
	if r.ID == "" {
		return fmt.Errorf("%w: id required", internaltypes.ErrInvalidArgument)
	}
	if r.PriceRange < 1 || r.PriceRange > 4 {
		return fmt.Errorf("%w: %s: price_range %d not in 1..4", internaltypes.ErrInvalidArgument, r.ID, r.PriceRange)
	}
	for _, t := range r.Tables {
		if t.Seats <= 0 {
			return fmt.Errorf("%w: %s: table %q has %d seats", internaltypes.ErrInvalidArgument, r.ID, t.ID, t.Seats)
		}
	}
	for day, h := range r.OperatingHours {
		if !isWeekday(day) {
			return fmt.Errorf("%w: %s: unknown weekday %q", internaltypes.ErrInvalidArgument, r.ID, day)
		}
		if _, err := timeslot.Parse(h.Open); err != nil {
			return fmt.Errorf("%s %s open: %w", r.ID, day, err)
		}
		if _, err := timeslot.Parse(h.Close); err != nil {
			return fmt.Errorf("%s %s close: %w", r.ID, day, err)
		}
	}
	if r.SeatingCapacity == 0 {
		r.SeatingCapacity = r.TotalSeats()
	}
	return nil
}

func isWeekday(name string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return true
		}
	}
	return false
}

// Import saves every restaurant through w and returns how many were written.
func Import(ctx context.Context, w Writer, rs []restaurant.Restaurant) (int, error) {
	for i, r := range rs {
		if err := w.SaveRestaurant(ctx, r); err != nil {
			return i, fmt.Errorf("save restaurant %s: %w", r.ID, err)
		}
	}
	return len(rs), nil
}
