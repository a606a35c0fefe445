package booking

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/tablebook/internal/domain/reservation"
	"github.com/example/tablebook/internal/domain/restaurant"
	"github.com/example/tablebook/internal/timeslot"
)

// Availability lists the slots within an hour of clockTime on date that can
// still seat partySize at restaurantID. An empty result is not an error.
func (e *Engine) Availability(ctx context.Context, restaurantID, date, clockTime string, partySize int) ([]string, error) {
	slots, err := e.availability(ctx, restaurantID, date, clockTime, partySize)
	if err != nil {
		return nil, err
	}
	return timeslot.Strings(slots), nil
}

// Suggest returns the available slot closest to clockTime, if any.
func (e *Engine) Suggest(ctx context.Context, restaurantID, date, clockTime string, partySize int) (string, bool, error) {
	slots, err := e.availability(ctx, restaurantID, date, clockTime, partySize)
	if err != nil {
		return "", false, err
	}
	target, err := timeslot.Parse(clockTime)
	if err != nil {
		return "", false, err
	}
	best, ok := reservation.ClosestSlot(target, slots)
	if !ok {
		return "", false, nil
	}
	return best.String(), true, nil
}

func (e *Engine) availability(ctx context.Context, restaurantID, date, clockTime string, partySize int) ([]timeslot.Time, error) {
	if err := e.validator.PartySize(partySize); err != nil {
		return nil, err
	}
	at, err := e.validator.DateTime(date, clockTime)
	if err != nil {
		return nil, err
	}
	r, err := e.Restaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return e.freeSlots(ctx, r, at, partySize, "")
}

// freeSlots loads the day's reservations and computes open slots around at.
// The reservation with id exclude does not count against capacity.
func (e *Engine) freeSlots(ctx context.Context, r restaurant.Restaurant, at time.Time, partySize int, exclude string) ([]timeslot.Time, error) {
	date := at.Format("2006-01-02")
	existing, err := e.reservationsOn(ctx, r.ID, date)
	if err != nil {
		return nil, err
	}
	slots, err := openSlots(r, at, partySize, e.interval, existing, exclude)
	if err != nil {
		return nil, err
	}
	e.log.Debug("availability computed",
		zap.String("restaurant_id", r.ID),
		zap.String("date", date),
		zap.String("time", at.Format("15:04")),
		zap.Int("party_size", partySize),
		zap.Int("slots", len(slots)),
	)
	return slots, nil
}

// openSlots is the pure availability rule. Candidate slots start an hour
// before at and end an hour after it, clipped to the weekday's opening hours.
// A slot is open when the seats of all tables large enough for the party,
// less the party sizes already confirmed at exactly that slot, still cover
// partySize.
func openSlots(r restaurant.Restaurant, at time.Time, partySize, interval int, existing []reservation.Reservation, exclude string) ([]timeslot.Time, error) {
	capacity := r.SuitableSeats(partySize)
	if capacity == 0 {
		return nil, nil
	}
	hours, ok := r.HoursOn(at)
	if !ok {
		return nil, nil
	}
	open, err := timeslot.Parse(hours.Open)
	if err != nil {
		return nil, err
	}
	closing, err := timeslot.Parse(hours.Close)
	if err != nil {
		return nil, err
	}

	target := timeslot.Time(at.Hour()*60 + at.Minute())
	start := target.Add(-windowMinutes)
	if start < open {
		start = open
	}
	end := target.Add(windowMinutes)
	if end > closing {
		end = closing
	}

	date := at.Format("2006-01-02")
	var out []timeslot.Time
	for _, slot := range timeslot.Generate(start, end, interval) {
		reserved := 0
		for _, res := range existing {
			if res.ID != exclude && res.Holds(r.ID, date, slot.String()) {
				reserved += res.PartySize
			}
		}
		if capacity-reserved >= partySize {
			out = append(out, slot)
		}
	}
	return out, nil
}

func containsSlot(slots []timeslot.Time, t timeslot.Time) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}
