package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/example/tablebook/internal/domain/reservation"
	"github.com/example/tablebook/internal/internaltypes"
	"github.com/example/tablebook/internal/timeslot"
	"github.com/example/tablebook/internal/validate"
)

type BookRequest struct {
	RestaurantID string
	CustomerID   string
	Date         string
	Time         string
	PartySize    int
}

// ModifyRequest carries the fields to change. Nil means keep the current value.
type ModifyRequest struct {
	Date      *string
	Time      *string
	PartySize *int
}

func (m ModifyRequest) empty() bool {
	return m.Date == nil && m.Time == nil && m.PartySize == nil
}

// maxRelock bounds how often we chase a reservation whose date moved while
// we waited for its lock.
const maxRelock = 3

var errConcurrentChange = errors.New("reservation changed concurrently")

// Book confirms a reservation if the requested slot still has room. A nil
// reservation with a nil error means the slot is unavailable.
func (e *Engine) Book(ctx context.Context, req BookRequest) (*reservation.Reservation, error) {
	if err := e.validator.PartySize(req.PartySize); err != nil {
		return nil, err
	}
	at, err := e.validator.DateTime(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	r, err := e.Restaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	customerID := req.CustomerID
	if customerID == "" {
		customerID = reservation.UnknownCustomer
	}
	date := at.Format("2006-01-02")
	slot := timeslot.Time(at.Hour()*60 + at.Minute())

	unlock, err := e.lockKeys(ctx, lockKey(r.ID, date))
	if err != nil {
		return nil, err
	}
	defer unlock()

	free, err := e.freeSlots(ctx, r, at, req.PartySize, "")
	if err != nil {
		return nil, err
	}
	if !containsSlot(free, slot) {
		e.log.Info("slot unavailable",
			zap.String("restaurant_id", r.ID),
			zap.String("date", date),
			zap.String("slot", slot.String()),
			zap.Int("party_size", req.PartySize),
		)
		return nil, nil
	}

	now := e.clock.Now()
	res := reservation.Reservation{
		ID:           e.newID(),
		RestaurantID: r.ID,
		CustomerID:   customerID,
		Date:         date,
		Time:         slot.String(),
		PartySize:    req.PartySize,
		Status:       reservation.StatusConfirmed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.store.AppendReservation(ctx, res); err != nil {
		return nil, fmt.Errorf("append reservation: %w", err)
	}
	e.log.Info("reservation confirmed",
		zap.String("reservation_id", res.ID),
		zap.String("restaurant_id", res.RestaurantID),
		zap.String("date", res.Date),
		zap.String("slot", res.Time),
		zap.Int("party_size", res.PartySize),
	)
	return &res, nil
}

// Modify moves or resizes a confirmed reservation. Capacity is rechecked at
// the effective date and time with the reservation's own seats released.
// Fields left nil keep the values read under the lock, so concurrent
// modifications of different fields both survive.
// A nil reservation with a nil error means the target slot is unavailable.
func (e *Engine) Modify(ctx context.Context, id string, req ModifyRequest) (*reservation.Reservation, error) {
	if req.PartySize != nil {
		if err := e.validator.PartySize(*req.PartySize); err != nil {
			return nil, err
		}
	}
	targetDate := ""
	if req.Date != nil {
		d, err := e.validator.Date(*req.Date)
		if err != nil {
			return nil, err
		}
		targetDate = d.Format(validate.DateLayout)
	}

	current, unlock, err := e.lockReservation(ctx, id, targetDate)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if !current.IsConfirmed() {
		return nil, fmt.Errorf("%w: %s is %s", internaltypes.ErrReservationNotFound, id, current.Status)
	}
	if req.empty() {
		return &current, nil
	}

	partySize, date, clockTime := current.PartySize, current.Date, current.Time
	if req.PartySize != nil {
		partySize = *req.PartySize
	}
	if req.Date != nil {
		date = targetDate
	}
	if req.Time != nil {
		clockTime = *req.Time
	}
	at, err := e.validator.DateTime(date, clockTime)
	if err != nil {
		return nil, err
	}
	slot := timeslot.Time(at.Hour()*60 + at.Minute())

	r, err := e.Restaurant(ctx, current.RestaurantID)
	if err != nil {
		return nil, err
	}
	free, err := e.freeSlots(ctx, r, at, partySize, current.ID)
	if err != nil {
		return nil, err
	}
	if !containsSlot(free, slot) {
		e.log.Info("modification target unavailable",
			zap.String("reservation_id", id),
			zap.String("date", date),
			zap.String("slot", slot.String()),
			zap.Int("party_size", partySize),
		)
		return nil, nil
	}

	updated := current
	updated.Date = date
	updated.Time = slot.String()
	updated.PartySize = partySize
	updated.UpdatedAt = e.clock.Now()
	if err := e.store.UpdateReservation(ctx, updated); err != nil {
		return nil, fmt.Errorf("update reservation: %w", err)
	}
	e.log.Info("reservation modified",
		zap.String("reservation_id", id),
		zap.String("date", updated.Date),
		zap.String("slot", updated.Time),
		zap.Int("party_size", updated.PartySize),
	)
	return &updated, nil
}

// Cancel releases a reservation's seats. It reports false when the
// reservation does not exist or has already been completed, and true when
// it is (or already was) cancelled.
func (e *Engine) Cancel(ctx context.Context, id string) (bool, error) {
	current, unlock, err := e.lockReservation(ctx, id, "")
	if errors.Is(err, internaltypes.ErrReservationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer unlock()

	switch current.Status {
	case reservation.StatusCancelled:
		return true, nil
	case reservation.StatusCompleted:
		return false, nil
	}
	current.Status = reservation.StatusCancelled
	current.UpdatedAt = e.clock.Now()
	if err := e.store.UpdateReservation(ctx, current); err != nil {
		return false, fmt.Errorf("update reservation: %w", err)
	}
	e.log.Info("reservation cancelled", zap.String("reservation_id", id))
	return true, nil
}

// Complete marks a confirmed reservation as honoured.
func (e *Engine) Complete(ctx context.Context, id string) error {
	current, unlock, err := e.lockReservation(ctx, id, "")
	if err != nil {
		return err
	}
	defer unlock()

	if err := reservation.CanTransition(current.Status, reservation.StatusCompleted); err != nil {
		return err
	}
	current.Status = reservation.StatusCompleted
	current.UpdatedAt = e.clock.Now()
	if err := e.store.UpdateReservation(ctx, current); err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	return nil
}

// CompleteElapsed completes every confirmed reservation that started at
// least after ago. It returns how many were completed.
func (e *Engine) CompleteElapsed(ctx context.Context, after time.Duration) (int, error) {
	all, err := e.store.ListReservations(ctx)
	if err != nil {
		return 0, fmt.Errorf("list reservations: %w", err)
	}
	cutoff := e.clock.Now().Add(-after)
	n := 0
	for _, r := range all {
		if !r.IsConfirmed() {
			continue
		}
		start, err := r.StartsAt(e.loc)
		if err != nil {
			e.log.Warn("skipping reservation with bad date", zap.String("reservation_id", r.ID), zap.Error(err))
			continue
		}
		if start.After(cutoff) {
			continue
		}
		err = e.Complete(ctx, r.ID)
		if errors.Is(err, reservation.ErrInvalidTransition) {
			// Cancelled between the scan and the lock.
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// lockReservation locks the reservation's current (restaurant, date) key and
// also extraDate when set, then returns the reservation as read under the
// lock. If the reservation moved to another date in the meantime the locks
// are dropped and taken again.
func (e *Engine) lockReservation(ctx context.Context, id, extraDate string) (reservation.Reservation, func(), error) {
	for attempt := 0; attempt < maxRelock; attempt++ {
		seen, err := e.Reservation(ctx, id)
		if err != nil {
			return reservation.Reservation{}, nil, err
		}
		keys := []string{lockKey(seen.RestaurantID, seen.Date)}
		if extraDate != "" {
			keys = append(keys, lockKey(seen.RestaurantID, extraDate))
		}
		unlock, err := e.lockKeys(ctx, keys...)
		if err != nil {
			return reservation.Reservation{}, nil, err
		}
		current, err := e.Reservation(ctx, id)
		if err != nil {
			unlock()
			return reservation.Reservation{}, nil, err
		}
		if current.Date == seen.Date {
			return current, unlock, nil
		}
		unlock()
	}
	return reservation.Reservation{}, nil, fmt.Errorf("%w: %s", errConcurrentChange, id)
}

func lockKey(restaurantID, date string) string {
	return "reservation:" + restaurantID + ":" + date
}

// lockKeys acquires every distinct key in sorted order so two callers that
// need overlapping keys cannot deadlock.
func (e *Engine) lockKeys(ctx context.Context, keys ...string) (func(), error) {
	sort.Strings(keys)
	var unlocks []func()
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for i, k := range keys {
		if i > 0 && keys[i-1] == k {
			continue
		}
		u, err := e.locker.Lock(ctx, k)
		if err != nil {
			release()
			return nil, fmt.Errorf("lock %s: %w", k, err)
		}
		unlocks = append(unlocks, u)
	}
	return release, nil
}
