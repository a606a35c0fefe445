package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/tablebook/internal/domain/customer"
	"github.com/example/tablebook/internal/internaltypes"
)

// CustomerRepo is the customer persistence auth needs.
type CustomerRepo interface {
	CreateCustomer(ctx context.Context, c customer.Customer) error
	CustomerByEmail(ctx context.Context, email string) (customer.Customer, error)
	CustomerByID(ctx context.Context, id string) (customer.Customer, error)
}

const (
	sessionMaxAge     = 14 * 24 * time.Hour
	minPasswordLength = 8
	cookieName        = "tablebook_session"
)

type Store struct {
	sc   *securecookie.SecureCookie
	repo CustomerRepo
}

type ctxKey string

const customerIDKey ctxKey = "customerID"

func NewStore(repo CustomerRepo, hashKey, blockKey []byte) *Store {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(sessionMaxAge.Seconds()))
	return &Store{sc: sc, repo: repo}
}

func HashPassword(pw string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
}

func CheckPassword(hash []byte, pw string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(pw)) == nil
}

// Register creates a customer account with a bcrypt password hash.
func (s *Store) Register(ctx context.Context, name, email, phone, password string) (customer.Customer, error) {
	email = customer.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return customer.Customer{}, fmt.Errorf("%w: a valid email is required", internaltypes.ErrInvalidArgument)
	}
	if len(password) < minPasswordLength {
		return customer.Customer{}, fmt.Errorf("%w: password must be at least %d characters", internaltypes.ErrInvalidArgument, minPasswordLength)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return customer.Customer{}, err
	}
	c := customer.Customer{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateCustomer(ctx, c); err != nil {
		return customer.Customer{}, err
	}
	return c, nil
}

// Authenticate returns the customer for a matching email and password.
// Unknown emails and wrong passwords both yield ErrUnauthorized.
func (s *Store) Authenticate(ctx context.Context, email, password string) (customer.Customer, error) {
	c, err := s.repo.CustomerByEmail(ctx, customer.NormalizeEmail(email))
	if errors.Is(err, internaltypes.ErrNotFound) {
		return customer.Customer{}, internaltypes.ErrUnauthorized
	}
	if err != nil {
		return customer.Customer{}, err
	}
	if !CheckPassword(c.PasswordHash, password) {
		return customer.Customer{}, internaltypes.ErrUnauthorized
	}
	return c, nil
}

type Session struct {
	CustomerID string
}

type sessionValue struct {
	CustomerID string
	Version    int
}

func (s *Store) SetSession(w http.ResponseWriter, r *http.Request, customerID string) error {
	encoded, err := s.sc.Encode(cookieName, sessionValue{CustomerID: customerID, Version: 1})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(sessionMaxAge.Seconds()),
	})
	return nil
}

func (s *Store) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (s *Store) GetSession(r *http.Request) (Session, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return Session{}, false
	}
	var v sessionValue
	if err := s.sc.Decode(cookieName, c.Value, &v); err != nil {
		return Session{}, false
	}
	if v.CustomerID == "" {
		return Session{}, false
	}
	return Session{CustomerID: v.CustomerID}, true
}

func WithCustomerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, customerIDKey, id)
}

func CustomerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(customerIDKey).(string)
	return id, ok && id != ""
}

// RequireCustomer rejects requests without a valid session and stores the
// session's customer id in the request context.
func (s *Store) RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.GetSession(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"login required"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCustomerID(r.Context(), sess.CustomerID)))
	})
}

// OptionalCustomer is RequireCustomer without the rejection.
func (s *Store) OptionalCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess, ok := s.GetSession(r); ok {
			r = r.WithContext(WithCustomerID(r.Context(), sess.CustomerID))
		}
		next.ServeHTTP(w, r)
	})
}
