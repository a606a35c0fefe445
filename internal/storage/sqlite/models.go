package sqlite

import (
	"time"

	"github.com/example/tablebook/internal/domain/customer"
	"github.com/example/tablebook/internal/domain/reservation"
	"github.com/example/tablebook/internal/domain/restaurant"
)

type restaurantRow struct {
	ID              string `gorm:"primaryKey"`
	Seq             int64  `gorm:"index"`
	Name            string
	Location        string
	Cuisine         string
	PriceRange      int
	SeatingCapacity int
	Rating          float64
	Description     string
	Tables          []tableRow `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE"`
	Hours           []hoursRow `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE"`
}

func (restaurantRow) TableName() string { return "restaurants" }

type tableRow struct {
	RestaurantID string `gorm:"primaryKey"`
	ID           string `gorm:"primaryKey"`
	Seats        int    `gorm:"not null"`
	Description  string
}

func (tableRow) TableName() string { return "restaurant_tables" }

type hoursRow struct {
	RestaurantID string `gorm:"primaryKey"`
	Weekday      string `gorm:"primaryKey"`
	OpenTime     string `gorm:"not null"`
	CloseTime    string `gorm:"not null"`
}

func (hoursRow) TableName() string { return "restaurant_hours" }

type reservationRow struct {
	ID           string    `gorm:"primaryKey"`
	RestaurantID string    `gorm:"not null;index:idx_reservations_restaurant_date"`
	CustomerID   string    `gorm:"not null;index"`
	Date         string    `gorm:"not null;index:idx_reservations_restaurant_date"`
	Time         string    `gorm:"not null"`
	PartySize    int       `gorm:"not null"`
	Status       string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

func (reservationRow) TableName() string { return "reservations" }

type customerRow struct {
	ID             string `gorm:"primaryKey"`
	Name           string
	Email          string `gorm:"uniqueIndex;not null"`
	Phone          string
	PasswordBcrypt []byte
	CreatedAt      time.Time `gorm:"autoCreateTime:false"`
}

func (customerRow) TableName() string { return "customers" }

func toRestaurantRow(r restaurant.Restaurant) restaurantRow {
	row := restaurantRow{
		ID:              r.ID,
		Name:            r.Name,
		Location:        r.Location,
		Cuisine:         r.Cuisine,
		PriceRange:      r.PriceRange,
		SeatingCapacity: r.SeatingCapacity,
		Rating:          r.Rating,
		Description:     r.Description,
	}
	for _, t := range r.Tables {
		row.Tables = append(row.Tables, tableRow{RestaurantID: r.ID, ID: t.ID, Seats: t.Seats, Description: t.Description})
	}
	for day, h := range r.OperatingHours {
		row.Hours = append(row.Hours, hoursRow{RestaurantID: r.ID, Weekday: day, OpenTime: h.Open, CloseTime: h.Close})
	}
	return row
}

func (row restaurantRow) domain() restaurant.Restaurant {
	r := restaurant.Restaurant{
		ID:              row.ID,
		Name:            row.Name,
		Location:        row.Location,
		Cuisine:         row.Cuisine,
		PriceRange:      row.PriceRange,
		SeatingCapacity: row.SeatingCapacity,
		Rating:          row.Rating,
		Description:     row.Description,
		OperatingHours:  make(map[string]restaurant.Hours, len(row.Hours)),
	}
	for _, t := range row.Tables {
		r.Tables = append(r.Tables, restaurant.Table{ID: t.ID, Seats: t.Seats, Description: t.Description})
	}
	for _, h := range row.Hours {
		r.OperatingHours[h.Weekday] = restaurant.Hours{Open: h.OpenTime, Close: h.CloseTime}
	}
	return r
}

func toReservationRow(r reservation.Reservation) reservationRow {
	return reservationRow{
		ID:           r.ID,
		RestaurantID: r.RestaurantID,
		CustomerID:   r.CustomerID,
		Date:         r.Date,
		Time:         r.Time,
		PartySize:    r.PartySize,
		Status:       string(r.Status),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func (row reservationRow) domain() reservation.Reservation {
	return reservation.Reservation{
		ID:           row.ID,
		RestaurantID: row.RestaurantID,
		CustomerID:   row.CustomerID,
		Date:         row.Date,
		Time:         row.Time,
		PartySize:    row.PartySize,
		Status:       reservation.Status(row.Status),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func (row customerRow) domain() customer.Customer {
	return customer.Customer{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Phone:        row.Phone,
		PasswordHash: row.PasswordBcrypt,
		CreatedAt:    row.CreatedAt,
	}
}
