// Package service implements the booking core: the transactional
// create/cancel/status-update operations against shared seat
// inventory, and the read-side booking lookups.  All coordination is
// expressed as database transactions and row locks, never in-process
// mutexes, so correctness holds across multiple server processes.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skhumalo/airline-reservation/internal/model"
	"github.com/skhumalo/airline-reservation/internal/repository"
)

// Typed outcomes of the booking operations.  Handlers map these to
// HTTP statuses with errors.Is.
var (
	// ErrSeatUnavailable covers "seat does not exist", "seat belongs
	// to a different flight" and "seat already booked".  Callers cannot
	// distinguish these, deliberately.
	ErrSeatUnavailable = errors.New("seat unavailable")

	ErrFlightNotFound  = errors.New("flight not found")
	ErrBookingNotFound = errors.New("booking not found")

	// ErrAlreadyCancelled rejects a double cancel; re-releasing the
	// seat would be harmless but the rejection keeps audit semantics
	// clear.
	ErrAlreadyCancelled = errors.New("booking already cancelled")

	ErrInvalidStatus = errors.New("invalid booking status")

	// ErrRetryableConflict surfaces lock-wait timeouts and deadlocks.
	// The core never retries on the caller's behalf.
	ErrRetryableConflict = errors.New("conflicting concurrent update, retry")

	// ErrReferenceGeneration is returned after the bounded number of
	// reference collisions in a row, which in practice means the
	// random source is broken.
	ErrReferenceGeneration = errors.New("could not generate a unique booking reference")
)

// How many duplicate-reference collisions to absorb before giving up.
const maxReferenceAttempts = 5

// CreateBookingInput carries the plain values of a booking request.
// UserID zero means the booking has no owning account (system-created
// records); passenger fields are captured as given.
type CreateBookingInput struct {
	FlightID       uint64
	SeatID         uint64
	UserID         uint64
	PassengerName  string
	PassengerEmail string
	PassengerPhone string
}

// BookingConfirmation is the result of a successful CreateBooking.
// Flight and Seat are the rows read inside the booking transaction, so
// they reflect the state the booking was priced against.
type BookingConfirmation struct {
	Booking model.Booking
	Flight  model.Flight
	Seat    model.Seat
}

// BookingService orchestrates booking transactions over the flight,
// seat and booking repositories.  It is safe for concurrent use.
type BookingService struct {
	db       *sql.DB
	flights  *repository.FlightRepo
	seats    *repository.SeatRepo
	bookings *repository.BookingRepo
}

// NewBookingService constructs a BookingService.  All repositories
// must be bound to the same database handle.
func NewBookingService(db *sql.DB, flights *repository.FlightRepo, seats *repository.SeatRepo, bookings *repository.BookingRepo) *BookingService {
	if db == nil || flights == nil || seats == nil || bookings == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{db: db, flights: flights, seats: seats, bookings: bookings}
}

// classify maps driver-level contention errors to the typed outcome;
// everything else passes through unchanged.
func classify(err error) error {
	if repository.IsLockConflict(err) {
		return fmt.Errorf("%w: %v", ErrRetryableConflict, err)
	}
	return err
}

// CreateBooking atomically books one seat on one flight.  Inside a
// single transaction it locks the seat row, verifies availability and
// the flight, flips the availability flag with a conditional write and
// inserts a CONFIRMED booking with a freshly generated reference and
// the flight's current price snapshotted.  Under concurrent calls for
// the same seat at most one succeeds; the rest get ErrSeatUnavailable.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*BookingConfirmation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	seat, err := s.seats.GetForUpdateTx(ctx, tx, in.FlightID, in.SeatID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return nil, ErrSeatUnavailable
		}
		return nil, classify(err)
	}
	if !seat.IsAvailable {
		return nil, ErrSeatUnavailable
	}

	flight, err := s.flights.GetByIDTx(ctx, tx, in.FlightID)
	if err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			return nil, ErrFlightNotFound
		}
		return nil, classify(err)
	}

	// The row lock already serializes rival transactions; the
	// conditional write is the backstop that makes a silent lost
	// update impossible even if the lock is ever weakened.
	reserved, err := s.seats.ReserveTx(ctx, tx, seat.ID)
	if err != nil {
		return nil, classify(err)
	}
	if !reserved {
		return nil, ErrSeatUnavailable
	}

	booking := &model.Booking{
		FlightID:        flight.ID,
		SeatID:          seat.ID,
		Status:          model.BookingConfirmed,
		TotalPriceCents: flight.PriceCents,
		PassengerName:   in.PassengerName,
		PassengerEmail:  in.PassengerEmail,
		PassengerPhone:  in.PassengerPhone,
	}
	if in.UserID != 0 {
		uid := in.UserID
		booking.UserID = &uid
	}

	for attempt := 0; ; attempt++ {
		if attempt == maxReferenceAttempts {
			return nil, ErrReferenceGeneration
		}
		ref, err := GenerateReference()
		if err != nil {
			return nil, err
		}
		booking.Reference = ref
		err = s.bookings.CreateTx(ctx, tx, booking)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateReference) {
			continue
		}
		return nil, classify(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	committed = true

	// Availability in the returned seat reflects the new booking.
	seat.IsAvailable = false
	return &BookingConfirmation{Booking: *booking, Flight: *flight, Seat: *seat}, nil
}

// CancelBooking atomically marks a booking CANCELLED and releases its
// seat, returning the cancelled booking.  Cancelling an
// already-cancelled booking is rejected with ErrAlreadyCancelled; a
// missing booking is ErrBookingNotFound with no side effects.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := s.bookings.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, classify(err)
	}
	if booking.Status == model.BookingCancelled {
		return nil, ErrAlreadyCancelled
	}

	if err := s.bookings.UpdateStatusTx(ctx, tx, bookingID, model.BookingCancelled); err != nil {
		return nil, classify(err)
	}
	if err := s.seats.ReleaseTx(ctx, tx, booking.SeatID); err != nil {
		return nil, classify(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	committed = true
	booking.Status = model.BookingCancelled
	return booking, nil
}

// UpdateBookingStatus sets an arbitrary status on a booking
// (administrative operation).  A transition to CANCELLED releases the
// seat exactly like CancelBooking; reviving a cancelled booking has to
// re-acquire the seat and fails with ErrSeatUnavailable if it was
// taken in the meantime.  Both paths run in one transaction so the
// availability invariant can never be observed broken.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID uint64, status string) error {
	if !model.ValidBookingStatus(status) {
		return ErrInvalidStatus
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := s.bookings.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return ErrBookingNotFound
		}
		return classify(err)
	}

	switch {
	case booking.Status == status:
		// No transition; nothing to do.
		return nil
	case status == model.BookingCancelled:
		if err := s.seats.ReleaseTx(ctx, tx, booking.SeatID); err != nil {
			return classify(err)
		}
	case booking.Status == model.BookingCancelled:
		// Reviving a cancelled booking re-claims the seat.
		reserved, err := s.seats.ReserveTx(ctx, tx, booking.SeatID)
		if err != nil {
			return classify(err)
		}
		if !reserved {
			return ErrSeatUnavailable
		}
	}

	if err := s.bookings.UpdateStatusTx(ctx, tx, bookingID, status); err != nil {
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	committed = true
	return nil
}

// GetBooking returns a booking by id.
func (s *BookingService) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// GetBookingByReference returns a booking by its unique reference.
func (s *BookingService) GetBookingByReference(ctx context.Context, ref string) (*model.Booking, error) {
	b, err := s.bookings.GetByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// ListUserBookings returns a user's bookings, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// ListAllBookings returns every booking, newest first.
func (s *BookingService) ListAllBookings(ctx context.Context) ([]model.Booking, error) {
	return s.bookings.ListAll(ctx)
}
