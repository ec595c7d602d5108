package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/skhumalo/airline-reservation/internal/middleware"
	"github.com/skhumalo/airline-reservation/internal/model"
	"github.com/skhumalo/airline-reservation/internal/queue"
	"github.com/skhumalo/airline-reservation/internal/service"
)

// BookingAPI is the slice of the booking service the handlers need.
type BookingAPI interface {
	CreateBooking(ctx context.Context, in service.CreateBookingInput) (*service.BookingConfirmation, error)
	CancelBooking(ctx context.Context, bookingID uint64) (*model.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID uint64, status string) error
	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
	GetBookingByReference(ctx context.Context, ref string) (*model.Booking, error)
	ListUserBookings(ctx context.Context, userID uint64) ([]model.Booking, error)
	ListAllBookings(ctx context.Context) ([]model.Booking, error)
}

// EventPublisher abstracts the broker so handler tests need no
// RabbitMQ.  A nil publisher disables events entirely.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishBookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error
}

// BookingHandler serves the customer booking endpoints.
type BookingHandler struct {
	Svc    BookingAPI
	Events EventPublisher
}

func NewBookingHandler(svc BookingAPI, events EventPublisher) *BookingHandler {
	return &BookingHandler{Svc: svc, Events: events}
}

type createBookingReq struct {
	FlightID       uint64 `json:"flight_id"`
	SeatID         uint64 `json:"seat_id"`
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`
	PassengerPhone string `json:"passenger_phone"`
}

type bookingResp struct {
	ID              uint64    `json:"id"`
	Reference       string    `json:"reference"`
	Status          string    `json:"status"`
	FlightID        uint64    `json:"flight_id"`
	SeatID          uint64    `json:"seat_id"`
	TotalPriceCents uint32    `json:"total_price_cents"`
	PassengerName   string    `json:"passenger_name"`
	PassengerEmail  string    `json:"passenger_email,omitempty"`
	PassengerPhone  string    `json:"passenger_phone,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type bookingDetailResp struct {
	bookingResp
	FlightNumber string `json:"flight_number"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	SeatNumber   string `json:"seat_number"`
	SeatClass    string `json:"seat_class"`
}

func toBookingResp(b *model.Booking) bookingResp {
	return bookingResp{
		ID:              b.ID,
		Reference:       b.Reference,
		Status:          b.Status,
		FlightID:        b.FlightID,
		SeatID:          b.SeatID,
		TotalPriceCents: b.TotalPriceCents,
		PassengerName:   b.PassengerName,
		PassengerEmail:  b.PassengerEmail,
		PassengerPhone:  b.PassengerPhone,
		CreatedAt:       b.CreatedAt,
	}
}

// bookingError translates the service's typed errors into HTTP
// responses.  Retryable conflicts get a 503 with Retry-After so
// well-behaved clients back off before trying again.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrSeatUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat unavailable"})
	case errors.Is(err, service.ErrFlightNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
	case errors.Is(err, service.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, service.ErrAlreadyCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
	case errors.Is(err, service.ErrInvalidStatus):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	case errors.Is(err, service.ErrRetryableConflict):
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "conflicting concurrent update, retry"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// authedUserID pulls the JWT identity set by the auth middleware.
func authedUserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(middleware.CtxUserID).(uint64)
	return id, ok
}

func isAdmin(c echo.Context) bool {
	role, _ := c.Get(middleware.CtxRole).(string)
	return role == model.RoleAdmin
}

// Create books a seat for the authenticated user.  On success it
// responds 201 with the booking and publishes booking.confirmed in the
// background; publish failures never affect the response.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, ok := authedUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FlightID == 0 || req.SeatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "flight_id and seat_id required"})
	}
	if strings.TrimSpace(req.PassengerName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passenger_name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	conf, err := h.Svc.CreateBooking(ctx, service.CreateBookingInput{
		FlightID:       req.FlightID,
		SeatID:         req.SeatID,
		UserID:         uid,
		PassengerName:  strings.TrimSpace(req.PassengerName),
		PassengerEmail: strings.TrimSpace(req.PassengerEmail),
		PassengerPhone: strings.TrimSpace(req.PassengerPhone),
	})
	if err != nil {
		return bookingError(c, err)
	}

	if h.Events != nil {
		ev := queue.BookingConfirmedEvent{
			EventID:         uuid.NewString(),
			BookingID:       conf.Booking.ID,
			Reference:       conf.Booking.Reference,
			UserID:          uid,
			FlightID:        conf.Flight.ID,
			FlightNumber:    conf.Flight.FlightNumber,
			Origin:          conf.Flight.Origin,
			Destination:     conf.Flight.Destination,
			SeatNumber:      conf.Seat.SeatNumber,
			TotalPriceCents: conf.Booking.TotalPriceCents,
			PassengerName:   conf.Booking.PassengerName,
			ConfirmedAt:     time.Now().UTC().Format(time.RFC3339),
		}
		go func() { _ = h.Events.PublishBookingConfirmed(context.Background(), ev) }()
	}

	resp := bookingDetailResp{
		bookingResp:  toBookingResp(&conf.Booking),
		FlightNumber: conf.Flight.FlightNumber,
		Origin:       conf.Flight.Origin,
		Destination:  conf.Flight.Destination,
		SeatNumber:   conf.Seat.SeatNumber,
		SeatClass:    conf.Seat.SeatClass,
	}
	return c.JSON(http.StatusCreated, resp)
}

// ListMine returns the caller's bookings, newest first.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid, ok := authedUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	bookings, err := h.Svc.ListUserBookings(ctx, uid)
	if err != nil {
		return bookingError(c, err)
	}
	out := make([]bookingResp, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResp(&bookings[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// Get returns one booking.  Customers can only see their own;
// admins can see any.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, ok := authedUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	b, err := h.Svc.GetBooking(ctx, id)
	if err != nil {
		return bookingError(c, err)
	}
	if !h.canAccess(c, b, uid) {
		// Hide existence of other users' bookings.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// GetByReference looks a booking up by its reference code, with the
// same visibility rules as Get.
func (h *BookingHandler) GetByReference(c echo.Context) error {
	uid, ok := authedUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ref := strings.ToUpper(strings.TrimSpace(c.Param("ref")))
	if len(ref) != 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking reference"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	b, err := h.Svc.GetBookingByReference(ctx, ref)
	if err != nil {
		return bookingError(c, err)
	}
	if !h.canAccess(c, b, uid) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.JSON(http.StatusOK, toBookingResp(b))
}

// Cancel cancels the caller's booking and frees its seat.  The
// booking.cancelled event is published in the background on success.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, ok := authedUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	// Ownership check before mutating anything.
	b, err := h.Svc.GetBooking(ctx, id)
	if err != nil {
		return bookingError(c, err)
	}
	if !h.canAccess(c, b, uid) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}

	cancelled, err := h.Svc.CancelBooking(ctx, id)
	if err != nil {
		return bookingError(c, err)
	}

	if h.Events != nil {
		ev := queue.BookingCancelledEvent{
			EventID:     uuid.NewString(),
			BookingID:   cancelled.ID,
			Reference:   cancelled.Reference,
			FlightID:    cancelled.FlightID,
			SeatID:      cancelled.SeatID,
			CancelledAt: time.Now().UTC().Format(time.RFC3339),
		}
		go func() { _ = h.Events.PublishBookingCancelled(context.Background(), ev) }()
	}

	return c.JSON(http.StatusOK, toBookingResp(cancelled))
}

func (h *BookingHandler) canAccess(c echo.Context, b *model.Booking, uid uint64) bool {
	if isAdmin(c) {
		return true
	}
	return b.UserID != nil && *b.UserID == uid
}
