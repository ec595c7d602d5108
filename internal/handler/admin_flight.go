package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skhumalo/airline-reservation/internal/model"
	"github.com/skhumalo/airline-reservation/internal/repository"
)

// AdminFlightHandler manages the flight catalogue.  All routes behind
// it require the ADMIN role.
type AdminFlightHandler struct {
	Flights *repository.FlightRepo
	Seats   *repository.SeatRepo
}

func NewAdminFlightHandler(f *repository.FlightRepo, s *repository.SeatRepo) *AdminFlightHandler {
	return &AdminFlightHandler{Flights: f, Seats: s}
}

type createFlightReq struct {
	FlightNumber  string    `json:"flight_number"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	PriceCents    uint32    `json:"price_cents"`
	TotalSeats    uint32    `json:"total_seats"`
	AircraftType  string    `json:"aircraft_type"`
	Description   string    `json:"description"`
}

type updateFlightReq struct {
	FlightNumber  string    `json:"flight_number"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	PriceCents    uint32    `json:"price_cents"`
	AircraftType  string    `json:"aircraft_type"`
	Description   string    `json:"description"`
	IsActive      *bool     `json:"is_active"`
}

func (r *createFlightReq) validate() string {
	switch {
	case r.FlightNumber == "":
		return "flight_number required"
	case r.Origin == "" || r.Destination == "":
		return "origin and destination required"
	case r.DepartureTime.IsZero() || r.ArrivalTime.IsZero():
		return "departure_time and arrival_time required"
	case !r.ArrivalTime.After(r.DepartureTime):
		return "arrival_time must be after departure_time"
	case r.TotalSeats == 0:
		return "total_seats must be positive"
	}
	return ""
}

// Create inserts a flight and generates its full seat plan in one
// transaction, so a flight is never visible without seats.
func (h *AdminFlightHandler) Create(c echo.Context) error {
	var req createFlightReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tx, err := h.Flights.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	f := &model.Flight{
		FlightNumber:  req.FlightNumber,
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureTime: req.DepartureTime.UTC(),
		ArrivalTime:   req.ArrivalTime.UTC(),
		PriceCents:    req.PriceCents,
		TotalSeats:    req.TotalSeats,
		AircraftType:  req.AircraftType,
		Description:   req.Description,
		IsActive:      true,
	}
	if err := h.Flights.CreateTx(ctx, tx, f); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create flight failed"})
	}
	if err := h.Seats.CreateBulkTx(ctx, tx, repository.BuildSeatPlan(f.ID, f.TotalSeats)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seats failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusCreated, toFlightResp(f))
}

// Update changes a flight's details.  The seat count is fixed at
// creation; changing it would orphan or invent seats under live
// bookings.
func (h *AdminFlightHandler) Update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}
	var req updateFlightReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
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

	if req.FlightNumber != "" {
		f.FlightNumber = req.FlightNumber
	}
	if req.Origin != "" {
		f.Origin = req.Origin
	}
	if req.Destination != "" {
		f.Destination = req.Destination
	}
	if !req.DepartureTime.IsZero() {
		f.DepartureTime = req.DepartureTime.UTC()
	}
	if !req.ArrivalTime.IsZero() {
		f.ArrivalTime = req.ArrivalTime.UTC()
	}
	if req.PriceCents != 0 {
		f.PriceCents = req.PriceCents
	}
	if req.AircraftType != "" {
		f.AircraftType = req.AircraftType
	}
	if req.Description != "" {
		f.Description = req.Description
	}
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}
	if !f.ArrivalTime.After(f.DepartureTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrival_time must be after departure_time"})
	}

	if err := h.Flights.Update(ctx, f); err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toFlightResp(f))
}

// Deactivate soft-deletes a flight.  Existing bookings stay intact;
// the flight simply stops appearing in searches.
func (h *AdminFlightHandler) Deactivate(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid flight id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Flights.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "flight deactivated"})
}

// List returns every flight including inactive ones.
func (h *AdminFlightHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	flights, err := h.Flights.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]flightResp, 0, len(flights))
	for i := range flights {
		out = append(out, toFlightResp(&flights[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"flights": out})
}
