package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/tablebook/internal/auth"
	"github.com/example/tablebook/internal/booking"
	"github.com/example/tablebook/internal/domain/reservation"
	"github.com/example/tablebook/internal/internaltypes"
	"github.com/example/tablebook/internal/tools"
)

// Engine is what the HTTP API needs from booking.Engine.
type Engine interface {
	tools.Engine
	CustomerReservations(ctx context.Context, customerID string) ([]reservation.Reservation, error)
}

type Server struct {
	Auth   *auth.Store
	Engine Engine
	Tools  *tools.Dispatcher
	Log    *zap.Logger

	// MaxResults caps restaurant search responses; zero means no cap.
	MaxResults int
}

func (s *Server) Routes() http.Handler {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /api/restaurants", s.handleSearch)
	mux.HandleFunc("GET /api/restaurants/{id}/availability", s.handleAvailability)

	authed := s.Auth.RequireCustomer
	mux.Handle("POST /api/reservations", authed(http.HandlerFunc(s.handleBook)))
	mux.Handle("GET /api/reservations", authed(http.HandlerFunc(s.handleList)))
	mux.Handle("PATCH /api/reservations/{id}", authed(http.HandlerFunc(s.handleModify)))
	mux.Handle("DELETE /api/reservations/{id}", authed(http.HandlerFunc(s.handleCancel)))

	mux.Handle("POST /api/tools/{name}", s.Auth.OptionalCustomer(http.HandlerFunc(s.handleTool)))

	return s.logRequests(mux)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.Auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Auth.SetSession(w, r, c.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	price, err := optionalInt(q.Get("price_range"), "price_range")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	seating, err := optionalInt(q.Get("seating"), "seating")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rs, err := s.Engine.Search(r.Context(), booking.Criteria{
		Cuisine:    q.Get("cuisine"),
		Location:   q.Get("location"),
		MaxPrice:   price,
		MinSeating: seating,
		Limit:      s.MaxResults,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rs == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	party, err := strconv.Atoi(q.Get("party_size"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: party_size must be an integer", internaltypes.ErrInvalidArgument))
		return
	}
	slots, err := s.Engine.Availability(r.Context(), r.PathValue("id"), q.Get("date"), q.Get("time"), party)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, tools.AvailabilityResult{AvailableTimes: slots})
}

type bookRequest struct {
	RestaurantID string `json:"restaurant_id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	PartySize    int    `json:"party_size"`
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	customerID, _ := auth.CustomerIDFromContext(r.Context())
	var req bookRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.Engine.Book(r.Context(), booking.BookRequest{
		RestaurantID: req.RestaurantID,
		CustomerID:   customerID,
		Date:         req.Date,
		Time:         req.Time,
		PartySize:    req.PartySize,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res == nil {
		s.writeUnavailable(w, r, req.RestaurantID, req.Date, req.Time, req.PartySize)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	customerID, _ := auth.CustomerIDFromContext(r.Context())
	rs, err := s.Engine.CustomerReservations(r.Context(), customerID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rs == nil {
		rs = []reservation.Reservation{}
	}
	writeJSON(w, http.StatusOK, rs)
}

type modifyRequest struct {
	Date      *string `json:"date,omitempty"`
	Time      *string `json:"time,omitempty"`
	PartySize *int    `json:"party_size,omitempty"`
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	current, err := s.owned(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req modifyRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.Engine.Modify(r.Context(), current.ID, booking.ModifyRequest{
		Date:      req.Date,
		Time:      req.Time,
		PartySize: req.PartySize,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res != nil {
		writeJSON(w, http.StatusOK, res)
		return
	}
	date, clockTime, party := current.Date, current.Time, current.PartySize
	if req.Date != nil {
		date = *req.Date
	}
	if req.Time != nil {
		clockTime = *req.Time
	}
	if req.PartySize != nil {
		party = *req.PartySize
	}
	s.writeUnavailable(w, r, current.RestaurantID, date, clockTime, party)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	current, err := s.owned(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok, err := s.Engine.Cancel(r.Context(), current.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tools.CancelResult{Cancelled: ok})
}

func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	opts := []tools.CallOption{tools.Public()}
	if id, ok := auth.CustomerIDFromContext(r.Context()); ok {
		opts = append(opts, tools.AsCustomer(id))
	}
	raw, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.Tools.Execute(r.Context(), r.PathValue("name"), raw, opts...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// owned loads the path's reservation and checks the session customer owns it.
func (s *Server) owned(r *http.Request) (reservation.Reservation, error) {
	customerID, _ := auth.CustomerIDFromContext(r.Context())
	res, err := s.Engine.Reservation(r.Context(), r.PathValue("id"))
	if err != nil {
		return reservation.Reservation{}, err
	}
	if res.CustomerID != customerID {
		// Someone else's reservation looks the same as a missing one.
		return reservation.Reservation{}, internaltypes.ErrReservationNotFound
	}
	return res, nil
}

func (s *Server) writeUnavailable(w http.ResponseWriter, r *http.Request, restaurantID, date, clockTime string, party int) {
	suggested, _, err := s.Engine.Suggest(r.Context(), restaurantID, date, clockTime, party)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusConflict, tools.ReservationResult{Available: false, Suggested: suggested})
}

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case internaltypes.IsValidation(err):
		return http.StatusBadRequest
	case internaltypes.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, internaltypes.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, internaltypes.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.Log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

const maxBodyBytes = 1 << 20

func readBody(r *http.Request) (json.RawMessage, error) {
	var raw json.RawMessage
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: request body: %v", internaltypes.ErrInvalidArgument, err)
	}
	return raw, nil
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: request body: %v", internaltypes.ErrInvalidArgument, err)
	}
	return nil
}

func optionalInt(s, name string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", internaltypes.ErrInvalidArgument, name)
	}
	return &n, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// Start serves h on addr until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, addr string, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
