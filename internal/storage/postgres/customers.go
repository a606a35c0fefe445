package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/tablebook/internal/db"
	"github.com/example/tablebook/internal/domain/customer"
	"github.com/example/tablebook/internal/internaltypes"
)

type CustomerRepo struct{ db *db.DB }

func NewCustomerRepo(d *db.DB) *CustomerRepo { return &CustomerRepo{db: d} }

func (r *CustomerRepo) CreateCustomer(ctx context.Context, c customer.Customer) error {
	err := r.db.Exec(ctx,
		`INSERT INTO customers (id, name, email, phone, password_bcrypt, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.Name, c.Email, c.Phone, c.PasswordHash, utc(c.CreatedAt),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("customer %s: %w", c.Email, internaltypes.ErrAlreadyExists)
	}
	return err
}

func (r *CustomerRepo) CustomerByEmail(ctx context.Context, email string) (customer.Customer, error) {
	return r.get(ctx, `WHERE email=$1`, email)
}

func (r *CustomerRepo) CustomerByID(ctx context.Context, id string) (customer.Customer, error) {
	return r.get(ctx, `WHERE id=$1`, id)
}

func (r *CustomerRepo) get(ctx context.Context, where string, arg any) (customer.Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, email, phone, password_bcrypt, created_at FROM customers `+where, arg)
	var c customer.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.PasswordHash, &c.CreatedAt); err != nil {
		return customer.Customer{}, fmt.Errorf("customer: %w", db.WrapNotFound(err))
	}
	return c, nil
}
