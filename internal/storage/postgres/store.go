// Package postgres stores the catalog, reservations and customers in
// PostgreSQL through pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/tablebook/internal/db"
	"github.com/example/tablebook/internal/domain/reservation"
	"github.com/example/tablebook/internal/domain/restaurant"
	"github.com/example/tablebook/internal/internaltypes"
)

type Store struct{ db *db.DB }

func NewStore(d *db.DB) *Store { return &Store{db: d} }

// SaveRestaurant upserts r and replaces its tables and opening hours.
func (s *Store) SaveRestaurant(ctx context.Context, r restaurant.Restaurant) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
INSERT INTO restaurants(id,name,location,cuisine,price_range,seating_capacity,rating,description)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
	name=EXCLUDED.name, location=EXCLUDED.location, cuisine=EXCLUDED.cuisine,
	price_range=EXCLUDED.price_range, seating_capacity=EXCLUDED.seating_capacity,
	rating=EXCLUDED.rating, description=EXCLUDED.description`,
			r.ID, r.Name, r.Location, r.Cuisine, r.PriceRange, r.SeatingCapacity, r.Rating, r.Description,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM restaurant_tables WHERE restaurant_id=$1`, r.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM restaurant_hours WHERE restaurant_id=$1`, r.ID); err != nil {
			return err
		}
		for _, t := range r.Tables {
			if _, err := tx.Exec(ctx, `INSERT INTO restaurant_tables(restaurant_id,id,seats,description) VALUES ($1,$2,$3,$4)`,
				r.ID, t.ID, t.Seats, t.Description); err != nil {
				return err
			}
		}
		for day, h := range r.OperatingHours {
			if _, err := tx.Exec(ctx, `INSERT INTO restaurant_hours(restaurant_id,weekday,open_time,close_time) VALUES ($1,$2,$3,$4)`,
				r.ID, day, h.Open, h.Close); err != nil {
				return err
			}
		}
		return nil
	})
}

const restaurantColumns = `id,name,location,cuisine,price_range,seating_capacity,rating,description`

func (s *Store) ListRestaurants(ctx context.Context) ([]restaurant.Restaurant, error) {
	rows, err := s.db.Query(ctx, `SELECT `+restaurantColumns+` FROM restaurants ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []restaurant.Restaurant
	index := make(map[string]int)
	for rows.Next() {
		r, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		index[r.ID] = len(out)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachTables(ctx, out, index, ""); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) FindRestaurant(ctx context.Context, id string) (restaurant.Restaurant, error) {
	r, err := scanRestaurant(s.db.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id=$1`, id))
	if err != nil {
		if db.IsNotFound(err) {
			return restaurant.Restaurant{}, fmt.Errorf("%w: %s", internaltypes.ErrRestaurantNotFound, id)
		}
		return restaurant.Restaurant{}, err
	}
	out := []restaurant.Restaurant{r}
	if err := s.attachTables(ctx, out, map[string]int{id: 0}, id); err != nil {
		return restaurant.Restaurant{}, err
	}
	return out[0], nil
}

func scanRestaurant(row db.Row) (restaurant.Restaurant, error) {
	var r restaurant.Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.Location, &r.Cuisine, &r.PriceRange, &r.SeatingCapacity, &r.Rating, &r.Description)
	r.OperatingHours = map[string]restaurant.Hours{}
	return r, err
}

// attachTables fills tables and hours for the restaurants in index. When
// only is set the queries are limited to that restaurant.
func (s *Store) attachTables(ctx context.Context, rs []restaurant.Restaurant, index map[string]int, only string) error {
	where, args := "", []any{}
	if only != "" {
		where, args = " WHERE restaurant_id=$1", []any{only}
	}

	rows, err := s.db.Query(ctx, `SELECT restaurant_id,id,seats,description FROM restaurant_tables`+where+` ORDER BY restaurant_id, id`, args...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var rid string
		var t restaurant.Table
		if err := rows.Scan(&rid, &t.ID, &t.Seats, &t.Description); err != nil {
			rows.Close()
			return err
		}
		if i, ok := index[rid]; ok {
			rs[i].Tables = append(rs[i].Tables, t)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.Query(ctx, `SELECT restaurant_id,weekday,open_time,close_time FROM restaurant_hours`+where, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rid, day string
		var h restaurant.Hours
		if err := rows.Scan(&rid, &day, &h.Open, &h.Close); err != nil {
			return err
		}
		if i, ok := index[rid]; ok {
			rs[i].OperatingHours[day] = h
		}
	}
	return rows.Err()
}

const reservationColumns = `id,restaurant_id,customer_id,date,time,party_size,status,created_at,updated_at`

func (s *Store) ListReservations(ctx context.Context) ([]reservation.Reservation, error) {
	return s.queryReservations(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY created_at`)
}

func (s *Store) ReservationsOn(ctx context.Context, restaurantID, date string) ([]reservation.Reservation, error) {
	return s.queryReservations(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE restaurant_id=$1 AND date=$2`, restaurantID, date)
}

func (s *Store) ReservationsForCustomer(ctx context.Context, customerID string) ([]reservation.Reservation, error) {
	return s.queryReservations(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE customer_id=$1 ORDER BY date, time`, customerID)
}

func (s *Store) FindReservation(ctx context.Context, id string) (reservation.Reservation, error) {
	r, err := scanReservation(s.db.QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id=$1`, id))
	if err != nil {
		if db.IsNotFound(err) {
			return reservation.Reservation{}, fmt.Errorf("%w: %s", internaltypes.ErrReservationNotFound, id)
		}
		return reservation.Reservation{}, err
	}
	return r, nil
}

func (s *Store) queryReservations(ctx context.Context, sql string, args ...any) ([]reservation.Reservation, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reservation.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanReservation(row db.Row) (reservation.Reservation, error) {
	var r reservation.Reservation
	var status string
	err := row.Scan(&r.ID, &r.RestaurantID, &r.CustomerID, &r.Date, &r.Time, &r.PartySize, &status, &r.CreatedAt, &r.UpdatedAt)
	r.Status = reservation.Status(status)
	return r, err
}

func (s *Store) AppendReservation(ctx context.Context, r reservation.Reservation) error {
	return s.db.Exec(ctx, `
INSERT INTO reservations(`+reservationColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		r.ID, r.RestaurantID, r.CustomerID, r.Date, r.Time, r.PartySize, string(r.Status), utc(r.CreatedAt), utc(r.UpdatedAt),
	)
}

func (s *Store) UpdateReservation(ctx context.Context, r reservation.Reservation) error {
	n, err := s.db.ExecCount(ctx, `
UPDATE reservations
SET restaurant_id=$2, customer_id=$3, date=$4, time=$5, party_size=$6, status=$7, updated_at=$8
WHERE id=$1`,
		r.ID, r.RestaurantID, r.CustomerID, r.Date, r.Time, r.PartySize, string(r.Status), utc(r.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", internaltypes.ErrReservationNotFound, r.ID)
	}
	return nil
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
