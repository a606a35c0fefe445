package reservation

import "time"

// UnknownCustomer is recorded when a booking arrives without a customer id.
const UnknownCustomer = "unknown"

type Reservation struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	CustomerID   string    `json:"customer_id"`
	Date         string    `json:"date"` // YYYY-MM-DD
	Time         string    `json:"time"` // HH:MM, slot aligned
	PartySize    int       `json:"party_size"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r Reservation) IsConfirmed() bool { return r.Status == StatusConfirmed }

// Holds reports whether r occupies seats in the given slot.
func (r Reservation) Holds(restaurantID, date, slot string) bool {
	return r.IsConfirmed() && r.RestaurantID == restaurantID && r.Date == date && r.Time == slot
}

// StartsAt resolves the reservation's date and time in loc.
func (r Reservation) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", r.Date+" "+r.Time, loc)
}
