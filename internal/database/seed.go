package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/skhumalo/airline-reservation/internal/model"
	"github.com/skhumalo/airline-reservation/internal/repository"
)

type seedFlight struct {
	number       string
	origin       string
	destination  string
	departsInH   int
	durationMin  int
	priceCents   uint32
	totalSeats   uint32
	aircraftType string
	description  string
}

// South African domestic routes used for demos and local development.
var seedFlights = []seedFlight{
	{"SA101", "Johannesburg (JNB)", "Cape Town (CPT)", 24, 130, 189900, 180, "Airbus A320", "Morning service to Cape Town"},
	{"SA102", "Cape Town (CPT)", "Johannesburg (JNB)", 30, 125, 179900, 180, "Airbus A320", "Afternoon return to Johannesburg"},
	{"SA203", "Johannesburg (JNB)", "Durban (DUR)", 26, 70, 99900, 120, "Embraer E190", "Short hop to the coast"},
	{"SA204", "Durban (DUR)", "Johannesburg (JNB)", 32, 70, 99900, 120, "Embraer E190", "Evening return service"},
	{"SA305", "Cape Town (CPT)", "Port Elizabeth (PLZ)", 48, 85, 129900, 96, "Boeing 737-800", "Garden Route connection"},
}

// SeedDemoData loads a demo admin, a demo customer and the sample
// flight catalogue with full seat plans.  It is idempotent: if any
// user or flight already exists it does nothing, so it is safe to
// leave enabled across restarts of a dev environment.
func SeedDemoData(ctx context.Context, db *sql.DB, bcryptCost int) error {
	var userCount, flightCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&userCount); err != nil {
		return fmt.Errorf("seed precheck users: %w", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flights`).Scan(&flightCount); err != nil {
		return fmt.Errorf("seed precheck flights: %w", err)
	}
	if userCount > 0 || flightCount > 0 {
		log.Printf("seed: database not empty (users=%d flights=%d), skipping", userCount, flightCount)
		return nil
	}

	users := repository.NewUserRepo(db)
	flights := repository.NewFlightRepo(db)
	seats := repository.NewSeatRepo(db)

	for _, u := range []struct {
		email, password, role string
	}{
		{"admin@airline.com", "Admin#12345", model.RoleAdmin},
		{"demo@airline.com", "Demo#12345", model.RoleCustomer},
	} {
		if _, err := users.Create(ctx, u.email, u.password, u.role, bcryptCost); err != nil {
			return fmt.Errorf("seed user %s: %w", u.email, err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC().Truncate(time.Hour)
	for _, sf := range seedFlights {
		departure := now.Add(time.Duration(sf.departsInH) * time.Hour)
		f := &model.Flight{
			FlightNumber:  sf.number,
			Origin:        sf.origin,
			Destination:   sf.destination,
			DepartureTime: departure,
			ArrivalTime:   departure.Add(time.Duration(sf.durationMin) * time.Minute),
			PriceCents:    sf.priceCents,
			TotalSeats:    sf.totalSeats,
			AircraftType:  sf.aircraftType,
			Description:   sf.description,
			IsActive:      true,
		}
		if err := flights.CreateTx(ctx, tx, f); err != nil {
			return fmt.Errorf("seed flight %s: %w", sf.number, err)
		}
		plan := repository.BuildSeatPlan(f.ID, f.TotalSeats)
		if err := seats.CreateBulkTx(ctx, tx, plan); err != nil {
			return fmt.Errorf("seed seats for %s: %w", sf.number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}
	committed = true
	log.Printf("seed: loaded %d flights and 2 demo accounts", len(seedFlights))
	return nil
}
