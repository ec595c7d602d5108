package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skhumalo/airline-reservation/internal/model"
)

const seatColumns = `id, flight_id, seat_number, seat_class, is_available, is_window, is_aisle,
	created_at, updated_at`

// SeatRepo provides access to the seats table.  Availability changes
// are exposed only as *Tx methods because they must always run in the
// same transaction as the booking row they pair with; the repository
// stores fields, the booking service enforces the invariant.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

func scanSeat(row interface{ Scan(...any) error }) (*model.Seat, error) {
	var s model.Seat
	err := row.Scan(
		&s.ID, &s.FlightID, &s.SeatNumber, &s.SeatClass, &s.IsAvailable,
		&s.IsWindow, &s.IsAisle, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateBulkTx inserts multiple seats in a single statement within an
// existing transaction.  Passing an empty slice has no effect.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (flight_id, seat_number, seat_class, is_available, is_window, is_aisle) VALUES `
	args := make([]any, 0, len(seats)*6)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, s.FlightID, s.SeatNumber, s.SeatClass, s.IsAvailable, s.IsWindow, s.IsAisle)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a seat by its id.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE id = ?`
	return scanSeat(r.db.QueryRowContext(ctx, q, id))
}

// GetByFlight returns all seats of a flight ordered by seat number.
func (r *SeatRepo) GetByFlight(ctx context.Context, flightID uint64) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats
	           WHERE flight_id = ?
	           ORDER BY LENGTH(seat_number), seat_number`
	rows, err := r.db.QueryContext(ctx, q, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]model.Seat, 0)
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// GetForUpdateTx loads the seat identified by (flightID, seatID) and
// takes an exclusive row lock that is held until the transaction ends.
// A seat that does not exist and a seat belonging to a different
// flight are both ErrSeatNotFound; callers must not distinguish them.
func (r *SeatRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, flightID, seatID uint64) (*model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats
	           WHERE id = ? AND flight_id = ? FOR UPDATE`
	return scanSeat(tx.QueryRowContext(ctx, q, seatID, flightID))
}

// ReserveTx flips is_available to false, conditional on it still being
// true.  The returned bool reports whether the row actually changed;
// false means another transaction took the seat first.  Together with
// the FOR UPDATE read this makes the check-then-set race-free.
func (r *SeatRepo) ReserveTx(ctx context.Context, tx *sql.Tx, seatID uint64) (bool, error) {
	const q = `UPDATE seats SET is_available = 0, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ? AND is_available = 1`
	res, err := tx.ExecContext(ctx, q, seatID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseTx marks a seat available again.  Unconditional: releasing an
// already-available seat is a harmless no-op.
func (r *SeatRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, seatID uint64) error {
	const q = `UPDATE seats SET is_available = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, seatID)
	return err
}

// Cabin layout constants used when generating a flight's seat map.
// Six seats per row lettered A-F; A and F are windows, C and D are on
// the aisle.  Rows 1-3 are First, rows 4-10 Business, the rest Economy.
const (
	seatsPerRow       = 6
	lastFirstRow      = 3
	lastBusinessRow   = 10
	seatColumnLetters = "ABCDEF"
)

// BuildSeatPlan generates the seat records for a new flight.  Exactly
// totalSeats records are produced, filling rows front to back, so a
// capacity that is not a multiple of six ends with a partial last row.
func BuildSeatPlan(flightID uint64, totalSeats uint32) []model.Seat {
	seats := make([]model.Seat, 0, totalSeats)
	for row := 1; uint32(len(seats)) < totalSeats; row++ {
		class := model.SeatClassEconomy
		switch {
		case row <= lastFirstRow:
			class = model.SeatClassFirst
		case row <= lastBusinessRow:
			class = model.SeatClassBusiness
		}
		for col := 0; col < seatsPerRow && uint32(len(seats)) < totalSeats; col++ {
			letter := seatColumnLetters[col]
			seats = append(seats, model.Seat{
				FlightID:    flightID,
				SeatNumber:  fmt.Sprintf("%d%c", row, letter),
				SeatClass:   class,
				IsAvailable: true,
				IsWindow:    letter == 'A' || letter == 'F',
				IsAisle:     letter == 'C' || letter == 'D',
			})
		}
	}
	return seats
}
