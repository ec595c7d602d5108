package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/skhumalo/airline-reservation/internal/model"
)

const flightColumns = `id, flight_number, origin, destination, departure_time, arrival_time,
	price_cents, total_seats, aircraft_type, description, is_active, created_at, updated_at`

// FlightRepo provides access to the flights table.  Flight rows own
// their seat inventory; seat generation happens in the same
// transaction as the flight insert, orchestrated by the caller.
type FlightRepo struct {
	db *sql.DB
}

// NewFlightRepo constructs a FlightRepo bound to the given database.
func NewFlightRepo(db *sql.DB) *FlightRepo { return &FlightRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning flights and seats.
func (r *FlightRepo) DB() *sql.DB { return r.db }

func scanFlight(row interface{ Scan(...any) error }) (*model.Flight, error) {
	var f model.Flight
	err := row.Scan(
		&f.ID, &f.FlightNumber, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime,
		&f.PriceCents, &f.TotalSeats, &f.AircraftType, &f.Description, &f.IsActive,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

// CreateTx inserts a flight within an existing transaction and
// populates the generated ID.  The caller commits or rolls back.
func (r *FlightRepo) CreateTx(ctx context.Context, tx *sql.Tx, f *model.Flight) error {
	const q = `INSERT INTO flights
	           (flight_number, origin, destination, departure_time, arrival_time,
	            price_cents, total_seats, aircraft_type, description, is_active)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		f.FlightNumber, f.Origin, f.Destination, f.DepartureTime.UTC(), f.ArrivalTime.UTC(),
		f.PriceCents, f.TotalSeats, f.AircraftType, f.Description, f.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// GetByID retrieves a flight by its id.
func (r *FlightRepo) GetByID(ctx context.Context, id uint64) (*model.Flight, error) {
	const q = `SELECT ` + flightColumns + ` FROM flights WHERE id = ?`
	return scanFlight(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx retrieves a flight by its id inside a transaction.
func (r *FlightRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Flight, error) {
	const q = `SELECT ` + flightColumns + ` FROM flights WHERE id = ?`
	return scanFlight(tx.QueryRowContext(ctx, q, id))
}

// Search returns active flights matching the optional filters, ordered
// by departure time.  Origin and destination are case-insensitive
// substring matches; date restricts departures to that calendar day.
func (r *FlightRepo) Search(ctx context.Context, origin, destination string, date *time.Time) ([]model.Flight, error) {
	q := `SELECT ` + flightColumns + ` FROM flights WHERE is_active = 1`
	var args []any
	if o := strings.TrimSpace(origin); o != "" {
		q += ` AND LOWER(origin) LIKE ?`
		args = append(args, "%"+strings.ToLower(o)+"%")
	}
	if d := strings.TrimSpace(destination); d != "" {
		q += ` AND LOWER(destination) LIKE ?`
		args = append(args, "%"+strings.ToLower(d)+"%")
	}
	if date != nil {
		day := date.UTC().Truncate(24 * time.Hour)
		q += ` AND departure_time >= ? AND departure_time < ?`
		args = append(args, day, day.Add(24*time.Hour))
	}
	q += ` ORDER BY departure_time`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]model.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return flights, nil
}

// ListAll returns every flight regardless of the active flag, ordered
// by departure time.  Used by administrative listings.
func (r *FlightRepo) ListAll(ctx context.Context) ([]model.Flight, error) {
	const q = `SELECT ` + flightColumns + ` FROM flights ORDER BY departure_time`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]model.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return flights, nil
}

// Update rewrites the mutable fields of a flight.  TotalSeats is
// deliberately excluded: capacity is fixed at creation because the
// seat inventory is generated to match it.
func (r *FlightRepo) Update(ctx context.Context, f *model.Flight) error {
	const q = `UPDATE flights
	           SET flight_number = ?, origin = ?, destination = ?, departure_time = ?,
	               arrival_time = ?, price_cents = ?, aircraft_type = ?, description = ?,
	               is_active = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		f.FlightNumber, f.Origin, f.Destination, f.DepartureTime.UTC(), f.ArrivalTime.UTC(),
		f.PriceCents, f.AircraftType, f.Description, f.IsActive, f.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFlightNotFound
	}
	return nil
}

// Deactivate soft-deletes a flight.  Seats and historical bookings are
// untouched; the flight simply stops appearing in search results.
func (r *FlightRepo) Deactivate(ctx context.Context, id uint64) error {
	const q = `UPDATE flights SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFlightNotFound
	}
	return nil
}

// AvailableSeatCount returns the number of bookable seats on a flight.
func (r *FlightRepo) AvailableSeatCount(ctx context.Context, flightID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM seats WHERE flight_id = ? AND is_available = 1`
	var n int
	if err := r.db.QueryRowContext(ctx, q, flightID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
