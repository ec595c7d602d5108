package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/skhumalo/airline-reservation/internal/model"
)

const bookingColumns = `id, user_id, flight_id, seat_id, booking_ref, status, total_price_cents,
	passenger_name, passenger_email, passenger_phone, created_at, updated_at`

// BookingRepo provides access to the bookings table.  Rows are only
// ever inserted and status-updated, never deleted; cancelled bookings
// remain as an audit trail and keep their reference forever.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for transaction orchestration.
func (r *BookingRepo) DB() *sql.DB { return r.db }

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var (
		b      model.Booking
		userID sql.NullInt64
	)
	err := row.Scan(
		&b.ID, &userID, &b.FlightID, &b.SeatID, &b.Reference, &b.Status, &b.TotalPriceCents,
		&b.PassengerName, &b.PassengerEmail, &b.PassengerPhone, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		b.UserID = &uid
	}
	return &b, nil
}

// CreateTx inserts a booking within an existing transaction, populates
// the generated ID and timestamps, and maps a unique-key violation on
// booking_ref to ErrDuplicateReference so the caller can regenerate.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (user_id, flight_id, seat_id, booking_ref, status, total_price_cents,
	            passenger_name, passenger_email, passenger_phone)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var userID any
	if b.UserID != nil {
		userID = *b.UserID
	}
	res, err := tx.ExecContext(ctx, q,
		userID, b.FlightID, b.SeatID, b.Reference, b.Status, b.TotalPriceCents,
		b.PassengerName, b.PassengerEmail, b.PassengerPhone)
	if err != nil {
		if IsDuplicateKey(err) {
			return ErrDuplicateReference
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	// Query back the row to populate DB-side defaults.
	const sel = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	stored, err := scanBooking(tx.QueryRowContext(ctx, sel, b.ID))
	if err != nil {
		return err
	}
	*b = *stored
	return nil
}

// GetByID retrieves a booking by its id.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	return scanBooking(r.db.QueryRowContext(ctx, q, id))
}

// GetByReference retrieves a booking by its unique reference code.
func (r *BookingRepo) GetByReference(ctx context.Context, ref string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_ref = ?`
	return scanBooking(r.db.QueryRowContext(ctx, q, ref))
}

// GetForUpdateTx loads a booking under an exclusive row lock so that
// concurrent cancels or status updates of the same booking serialize.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
	return scanBooking(tx.QueryRowContext(ctx, q, id))
}

// UpdateStatusTx sets a booking's status within a transaction.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	const q = `UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// ListByUser returns all bookings owned by a user, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
	           WHERE user_id = ?
	           ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, userID)
}

// ListAll returns every booking, newest first.  Administrative use.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q)
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
