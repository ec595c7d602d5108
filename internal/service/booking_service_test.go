package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skhumalo/airline-reservation/internal/model"
	"github.com/skhumalo/airline-reservation/internal/repository"
	"github.com/skhumalo/airline-reservation/internal/service"
)

const (
	seatQueryForUpdate    = `(?s)SELECT .+ FROM seats\s+WHERE id = \? AND flight_id = \? FOR UPDATE`
	flightQueryByID       = `(?s)SELECT .+ FROM flights WHERE id = \?`
	seatReserve           = `(?s)UPDATE seats SET is_available = 0.+WHERE id = \? AND is_available = 1`
	seatRelease           = `UPDATE seats SET is_available = 1`
	bookingInsert         = `(?s)INSERT INTO bookings.+VALUES`
	bookingSelectByID     = `(?s)SELECT .+ FROM bookings WHERE id = \?$`
	bookingQueryForUpdate = `(?s)SELECT .+ FROM bookings WHERE id = \? FOR UPDATE`
	bookingUpdateStatus   = `UPDATE bookings SET status = \?`
)

func newServiceWithMock(t *testing.T) (*service.BookingService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := service.NewBookingService(db,
		repository.NewFlightRepo(db),
		repository.NewSeatRepo(db),
		repository.NewBookingRepo(db))
	return svc, mock
}

func seatRow(id, flightID uint64, available bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "flight_id", "seat_number", "seat_class", "is_available",
		"is_window", "is_aisle", "created_at", "updated_at",
	}).AddRow(id, flightID, "12C", model.SeatClassEconomy, available, false, true, now, now)
}

func flightRow(id uint64, priceCents uint32) *sqlmock.Rows {
	now := time.Now()
	dep := now.Add(48 * time.Hour)
	return sqlmock.NewRows([]string{
		"id", "flight_number", "origin", "destination", "departure_time", "arrival_time",
		"price_cents", "total_seats", "aircraft_type", "description", "is_active",
		"created_at", "updated_at",
	}).AddRow(id, "SA101", "Johannesburg (JNB)", "Cape Town (CPT)", dep, dep.Add(2*time.Hour),
		priceCents, 180, "Airbus A320", "", true, now, now)
}

func bookingRow(id uint64, userID any, flightID, seatID uint64, ref, status string, price uint32) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "flight_id", "seat_id", "booking_ref", "status", "total_price_cents",
		"passenger_name", "passenger_email", "passenger_phone", "created_at", "updated_at",
	}).AddRow(id, userID, flightID, seatID, ref, status, price, "Thabo Mokoena", "thabo@example.com", "", now, now)
}

func validInput() service.CreateBookingInput {
	return service.CreateBookingInput{
		FlightID:       3,
		SeatID:         42,
		UserID:         9,
		PassengerName:  "Thabo Mokoena",
		PassengerEmail: "thabo@example.com",
	}
}

func TestCreateBookingSuccess(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(seatQueryForUpdate).WithArgs(42, 3).WillReturnRows(seatRow(42, 3, true))
	mock.ExpectQuery(flightQueryByID).WithArgs(3).WillReturnRows(flightRow(3, 189900))
	mock.ExpectExec(seatReserve).WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(bookingInsert).WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectQuery(bookingSelectByID).WithArgs(77).
		WillReturnRows(bookingRow(77, 9, 3, 42, "AB12CD34", model.BookingConfirmed, 189900))
	mock.ExpectCommit()

	conf, err := svc.CreateBooking(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, uint64(77), conf.Booking.ID)
	assert.Equal(t, "AB12CD34", conf.Booking.Reference)
	assert.Equal(t, model.BookingConfirmed, conf.Booking.Status)
	assert.Equal(t, uint32(189900), conf.Booking.TotalPriceCents, "price snapshotted from flight")
	assert.Equal(t, "SA101", conf.Flight.FlightNumber)
	assert.Equal(t, "12C", conf.Seat.SeatNumber)
	assert.False(t, conf.Seat.IsAvailable)
	require.NotNil(t, conf.Booking.UserID)
	assert.Equal(t, uint64(9), *conf.Booking.UserID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingSeatTaken(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(seatQueryForUpdate).WithArgs(42, 3).WillReturnRows(seatRow(42, 3, false))
	mock.ExpectRollback()

	_, err := svc.CreateBooking(context.Background(), validInput())
	assert.ErrorIs(t, err, service.ErrSeatUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingSeatMissing(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(seatQueryForUpdate).WithArgs(42, 3).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.CreateBooking(context.Background(), validInput())
	assert.ErrorIs(t, err, service.ErrSeatUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingFlightMissing(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(seatQueryForUpdate).WithArgs(42, 3).WillReturnRows(seatRow(42, 3, true))
	mock.ExpectQuery(flightQueryByID).WithArgs(3).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.CreateBooking(context.Background(), validInput())
	assert.ErrorIs(t, err, service.ErrFlightNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingLostReservationRace(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(seatQueryForUpdate).WithArgs(42, 3).WillReturnRows(seatRow(42, 3, true))
	mock.ExpectQuery(flightQueryByID).WithArgs(3).WillReturnRows(flightRow(3, 189900))
	// Another transaction won the conditional update.
	mock.ExpectExec(seatReserve).WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.CreateBooking(context.Background(), validInput())
	assert.ErrorIs(t, err, service.ErrSeatUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingReferenceCollisionRetries(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(seatQueryForUpdate).WithArgs(42, 3).WillReturnRows(seatRow(42, 3, true))
	mock.ExpectQuery(flightQueryByID).WithArgs(3).WillReturnRows(flightRow(3, 189900))
	mock.ExpectExec(seatReserve).WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(bookingInsert).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'uq_bookings_ref'"})
	mock.ExpectExec(bookingInsert).WillReturnResult(sqlmock.NewResult(78, 1))
	mock.ExpectQuery(bookingSelectByID).WithArgs(78).
		WillReturnRows(bookingRow(78, 9, 3, 42, "ZZ99XY01", model.BookingConfirmed, 189900))
	mock.ExpectCommit()

	conf, err := svc.CreateBooking(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "ZZ99XY01", conf.Booking.Reference)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingLockWaitTimeout(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(seatQueryForUpdate).WithArgs(42, 3).
		WillReturnError(&mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"})
	mock.ExpectRollback()

	_, err := svc.CreateBooking(context.Background(), validInput())
	assert.ErrorIs(t, err, service.ErrRetryableConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingSuccess(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(bookingQueryForUpdate).WithArgs(77).
		WillReturnRows(bookingRow(77, 9, 3, 42, "AB12CD34", model.BookingConfirmed, 189900))
	mock.ExpectExec(bookingUpdateStatus).WithArgs(model.BookingCancelled, 77).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(seatRelease).WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	cancelled, err := svc.CancelBooking(context.Background(), 77)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
	assert.Equal(t, uint64(42), cancelled.SeatID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingAlreadyCancelled(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(bookingQueryForUpdate).WithArgs(77).
		WillReturnRows(bookingRow(77, 9, 3, 42, "AB12CD34", model.BookingCancelled, 189900))
	mock.ExpectRollback()

	_, err := svc.CancelBooking(context.Background(), 77)
	assert.ErrorIs(t, err, service.ErrAlreadyCancelled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingNotFound(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(bookingQueryForUpdate).WithArgs(404).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.CancelBooking(context.Background(), 404)
	assert.ErrorIs(t, err, service.ErrBookingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatusInvalid(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	err := svc.UpdateBookingStatus(context.Background(), 77, "TELEPORTED")
	assert.ErrorIs(t, err, service.ErrInvalidStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatusCancelReleasesSeat(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(bookingQueryForUpdate).WithArgs(77).
		WillReturnRows(bookingRow(77, 9, 3, 42, "AB12CD34", model.BookingConfirmed, 189900))
	mock.ExpectExec(seatRelease).WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(bookingUpdateStatus).WithArgs(model.BookingCancelled, 77).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.UpdateBookingStatus(context.Background(), 77, model.BookingCancelled)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatusReviveReacquiresSeat(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(bookingQueryForUpdate).WithArgs(77).
		WillReturnRows(bookingRow(77, 9, 3, 42, "AB12CD34", model.BookingCancelled, 189900))
	mock.ExpectExec(seatReserve).WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(bookingUpdateStatus).WithArgs(model.BookingConfirmed, 77).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.UpdateBookingStatus(context.Background(), 77, model.BookingConfirmed)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatusReviveSeatTaken(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(bookingQueryForUpdate).WithArgs(77).
		WillReturnRows(bookingRow(77, 9, 3, 42, "AB12CD34", model.BookingCancelled, 189900))
	mock.ExpectExec(seatReserve).WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.UpdateBookingStatus(context.Background(), 77, model.BookingConfirmed)
	assert.ErrorIs(t, err, service.ErrSeatUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatusNoop(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(bookingQueryForUpdate).WithArgs(77).
		WillReturnRows(bookingRow(77, 9, 3, 42, "AB12CD34", model.BookingConfirmed, 189900))
	mock.ExpectRollback()

	err := svc.UpdateBookingStatus(context.Background(), 77, model.BookingConfirmed)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelThenRebookSameSeat(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(bookingQueryForUpdate).WithArgs(77).
		WillReturnRows(bookingRow(77, 9, 3, 42, "AB12CD34", model.BookingConfirmed, 189900))
	mock.ExpectExec(bookingUpdateStatus).WithArgs(model.BookingCancelled, 77).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(seatRelease).WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.CancelBooking(context.Background(), 77)
	require.NoError(t, err)

	// The freed seat is immediately bookable by someone else.
	mock.ExpectBegin()
	mock.ExpectQuery(seatQueryForUpdate).WithArgs(42, 3).WillReturnRows(seatRow(42, 3, true))
	mock.ExpectQuery(flightQueryByID).WithArgs(3).WillReturnRows(flightRow(3, 189900))
	mock.ExpectExec(seatReserve).WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(bookingInsert).WillReturnResult(sqlmock.NewResult(78, 1))
	mock.ExpectQuery(bookingSelectByID).WithArgs(78).
		WillReturnRows(bookingRow(78, 10, 3, 42, "QX71PM20", model.BookingConfirmed, 189900))
	mock.ExpectCommit()

	in := validInput()
	in.UserID = 10
	conf, err := svc.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "QX71PM20", conf.Booking.Reference)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassifyDeadlock(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(bookingQueryForUpdate).WithArgs(77).
		WillReturnRows(bookingRow(77, 9, 3, 42, "AB12CD34", model.BookingConfirmed, 189900))
	mock.ExpectExec(bookingUpdateStatus).WithArgs(model.BookingCancelled, 77).
		WillReturnError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})
	mock.ExpectRollback()

	_, err := svc.CancelBooking(context.Background(), 77)
	assert.ErrorIs(t, err, service.ErrRetryableConflict)
	assert.False(t, errors.Is(err, service.ErrBookingNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}
