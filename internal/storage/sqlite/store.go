// Package sqlite is a single-file store on gorm and the pure Go SQLite
// driver. It suits one-process deployments that still want durability.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/example/tablebook/internal/domain/customer"
	"github.com/example/tablebook/internal/domain/reservation"
	"github.com/example/tablebook/internal/domain/restaurant"
	"github.com/example/tablebook/internal/internaltypes"
)

type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and migrates its schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One writer at a time, and ":memory:" is per connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&restaurantRow{}, &tableRow{}, &hoursRow{}, &reservationRow{}, &customerRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) SaveRestaurant(ctx context.Context, r restaurant.Restaurant) error {
	row := toRestaurantRow(r)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing restaurantRow
		err := tx.Select("seq").Where("id = ?", r.ID).Take(&existing).Error
		switch {
		case err == nil:
			row.Seq = existing.Seq
		case errors.Is(err, gorm.ErrRecordNotFound):
			var maxSeq int64
			if err := tx.Model(&restaurantRow{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
				return err
			}
			row.Seq = maxSeq + 1
		default:
			return err
		}

		if err := tx.Omit(clause.Associations).Save(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("restaurant_id = ?", r.ID).Delete(&tableRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("restaurant_id = ?", r.ID).Delete(&hoursRow{}).Error; err != nil {
			return err
		}
		if len(row.Tables) > 0 {
			if err := tx.Create(&row.Tables).Error; err != nil {
				return err
			}
		}
		if len(row.Hours) > 0 {
			if err := tx.Create(&row.Hours).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) ListRestaurants(ctx context.Context) ([]restaurant.Restaurant, error) {
	var rows []restaurantRow
	err := s.db.WithContext(ctx).
		Preload("Tables", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Hours").
		Order("seq").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]restaurant.Restaurant, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.domain())
	}
	return out, nil
}

func (s *Store) FindRestaurant(ctx context.Context, id string) (restaurant.Restaurant, error) {
	var row restaurantRow
	err := s.db.WithContext(ctx).
		Preload("Tables", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Hours").
		Where("id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return restaurant.Restaurant{}, fmt.Errorf("%w: %s", internaltypes.ErrRestaurantNotFound, id)
	}
	if err != nil {
		return restaurant.Restaurant{}, err
	}
	return row.domain(), nil
}

func (s *Store) ListReservations(ctx context.Context) ([]reservation.Reservation, error) {
	return s.findReservations(s.db.WithContext(ctx).Order("created_at"))
}

func (s *Store) ReservationsOn(ctx context.Context, restaurantID, date string) ([]reservation.Reservation, error) {
	return s.findReservations(s.db.WithContext(ctx).Where("restaurant_id = ? AND date = ?", restaurantID, date))
}

func (s *Store) ReservationsForCustomer(ctx context.Context, customerID string) ([]reservation.Reservation, error) {
	return s.findReservations(s.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("date, time"))
}

func (s *Store) findReservations(q *gorm.DB) ([]reservation.Reservation, error) {
	var rows []reservationRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]reservation.Reservation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.domain())
	}
	return out, nil
}

func (s *Store) FindReservation(ctx context.Context, id string) (reservation.Reservation, error) {
	var row reservationRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reservation.Reservation{}, fmt.Errorf("%w: %s", internaltypes.ErrReservationNotFound, id)
	}
	if err != nil {
		return reservation.Reservation{}, err
	}
	return row.domain(), nil
}

func (s *Store) AppendReservation(ctx context.Context, r reservation.Reservation) error {
	row := toReservationRow(r)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("reservation %s: %w", r.ID, internaltypes.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func (s *Store) UpdateReservation(ctx context.Context, r reservation.Reservation) error {
	row := toReservationRow(r)
	res := s.db.WithContext(ctx).Model(&reservationRow{}).Where("id = ?", r.ID).Updates(map[string]any{
		"restaurant_id": row.RestaurantID,
		"customer_id":   row.CustomerID,
		"date":          row.Date,
		"time":          row.Time,
		"party_size":    row.PartySize,
		"status":        row.Status,
		"updated_at":    row.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", internaltypes.ErrReservationNotFound, r.ID)
	}
	return nil
}

func (s *Store) CreateCustomer(ctx context.Context, c customer.Customer) error {
	row := customerRow{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		PasswordBcrypt: c.PasswordHash,
		CreatedAt:      c.CreatedAt.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("customer %s: %w", c.Email, internaltypes.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

func (s *Store) CustomerByEmail(ctx context.Context, email string) (customer.Customer, error) {
	return s.customer(ctx, "email = ?", email)
}

func (s *Store) CustomerByID(ctx context.Context, id string) (customer.Customer, error) {
	return s.customer(ctx, "id = ?", id)
}

func (s *Store) customer(ctx context.Context, where string, arg any) (customer.Customer, error) {
	var row customerRow
	err := s.db.WithContext(ctx).Where(where, arg).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return customer.Customer{}, fmt.Errorf("customer %w", internaltypes.ErrNotFound)
	}
	if err != nil {
		return customer.Customer{}, err
	}
	return row.domain(), nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
