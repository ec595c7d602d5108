package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/skhumalo/airline-reservation/internal/model"
	"github.com/skhumalo/airline-reservation/internal/queue"
)

// AdminBookingHandler exposes the back-office view of bookings.
type AdminBookingHandler struct {
	Svc    BookingAPI
	Events EventPublisher
}

func NewAdminBookingHandler(svc BookingAPI, events EventPublisher) *AdminBookingHandler {
	return &AdminBookingHandler{Svc: svc, Events: events}
}

type updateStatusReq struct {
	Status string `json:"status"`
}

// List returns every booking in the system, newest first.
func (h *AdminBookingHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	bookings, err := h.Svc.ListAllBookings(ctx)
	if err != nil {
		return bookingError(c, err)
	}
	out := make([]bookingResp, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResp(&bookings[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// UpdateStatus sets an arbitrary status on a booking.  Setting
// CANCELLED releases the seat exactly like a customer cancellation
// and emits the same event.
func (h *AdminBookingHandler) UpdateStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Svc.UpdateBookingStatus(ctx, id, status); err != nil {
		return bookingError(c, err)
	}

	b, err := h.Svc.GetBooking(ctx, id)
	if err != nil {
		return bookingError(c, err)
	}

	if h.Events != nil && status == model.BookingCancelled {
		ev := queue.BookingCancelledEvent{
			EventID:     uuid.NewString(),
			BookingID:   b.ID,
			Reference:   b.Reference,
			FlightID:    b.FlightID,
			SeatID:      b.SeatID,
			CancelledAt: time.Now().UTC().Format(time.RFC3339),
		}
		go func() { _ = h.Events.PublishBookingCancelled(context.Background(), ev) }()
	}

	return c.JSON(http.StatusOK, toBookingResp(b))
}
