package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skhumalo/airline-reservation/internal/model"
	"github.com/skhumalo/airline-reservation/internal/repository"
)

// FlightHandler serves the public flight catalogue.
type FlightHandler struct {
	Flights  *repository.FlightRepo
	SeatRepo *repository.SeatRepo
}

func NewFlightHandler(f *repository.FlightRepo, s *repository.SeatRepo) *FlightHandler {
	return &FlightHandler{Flights: f, SeatRepo: s}
}

type flightResp struct {
	ID             uint64    `json:"id"`
	FlightNumber   string    `json:"flight_number"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departure_time"`
	ArrivalTime    time.Time `json:"arrival_time"`
	PriceCents     uint32    `json:"price_cents"`
	TotalSeats     uint32    `json:"total_seats"`
	AircraftType   string    `json:"aircraft_type,omitempty"`
	Description    string    `json:"description,omitempty"`
	IsActive       bool      `json:"is_active"`
	AvailableSeats *int      `json:"available_seats,omitempty"`
}

type seatResp struct {
	ID          uint64 `json:"id"`
	SeatNumber  string `json:"seat_number"`
	SeatClass   string `json:"seat_class"`
	IsAvailable bool   `json:"is_available"`
	IsWindow    bool   `json:"is_window"`
	IsAisle     bool   `json:"is_aisle"`
}

func toFlightResp(f *model.Flight) flightResp {
	return flightResp{
		ID:            f.ID,
		FlightNumber:  f.FlightNumber,
		Origin:        f.Origin,
		Destination:   f.Destination,
		DepartureTime: f.DepartureTime,
		ArrivalTime:   f.ArrivalTime,
		PriceCents:    f.PriceCents,
		TotalSeats:    f.TotalSeats,
		AircraftType:  f.AircraftType,
		Description:   f.Description,
		IsActive:      f.IsActive,
	}
}

func toSeatResp(s model.Seat) seatResp {
	return seatResp{
		ID:          s.ID,
		SeatNumber:  s.SeatNumber,
		SeatClass:   s.SeatClass,
		IsAvailable: s.IsAvailable,
		IsWindow:    s.IsWindow,
		IsAisle:     s.IsAisle,
	}
}

// List returns active flights, optionally filtered by origin,
// destination and departure date (YYYY-MM-DD, interpreted as UTC).
func (h *FlightHandler) List(c echo.Context) error {
	var date *time.Time
	if ds := c.QueryParam("date"); ds != "" {
		d, err := time.ParseInLocation("2006-01-02", ds, time.UTC)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		date = &d
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	flights, err := h.Flights.Search(ctx, c.QueryParam("origin"), c.QueryParam("destination"), date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]flightResp, 0, len(flights))
	for i := range flights {
		out = append(out, toFlightResp(&flights[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"flights": out})
}

// Get returns one flight with its current available seat count.
func (h *FlightHandler) Get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	f, err := h.Flights.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	avail, err := h.Flights.AvailableSeatCount(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	resp := toFlightResp(f)
	resp.AvailableSeats = &avail
	return c.JSON(http.StatusOK, resp)
}

// Seats returns the full seat map of a flight, ordered by row.
func (h *FlightHandler) Seats(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if _, err := h.Flights.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	seats, err := h.SeatRepo.GetByFlight(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	out := make([]seatResp, 0, len(seats))
	for _, s := range seats {
		out = append(out, toSeatResp(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"flight_id": id, "seats": out})
}

func parseIDParam(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
