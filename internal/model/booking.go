package model

import "time"

// Booking statuses, stored uppercase in bookings.status.
const (
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
	BookingPending   = "PENDING"
)

// ValidBookingStatus reports whether s is one of the known statuses.
func ValidBookingStatus(s string) bool {
	switch s {
	case BookingConfirmed, BookingCancelled, BookingPending:
		return true
	}
	return false
}

// Booking ties one seat on one flight to a passenger.  Bookings are
// created only through the booking service's transactional create and
// are never deleted; cancellation is a status transition so the row
// remains as an audit record.  The passenger contact fields are
// captured at booking time and are independent of the owning user's
// profile, since a booking may be made on someone else's behalf.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – owning user; nil for system-created records.
//  FlightID        – booked flight.
//  SeatID          – booked seat.
//  Reference       – 8-character [A-Z0-9] lookup code, unique forever
//                    (cancelled bookings keep theirs).
//  Status          – CONFIRMED, CANCELLED or PENDING.
//  TotalPriceCents – flight price snapshotted at booking time.
type Booking struct {
	ID              uint64    // bookings.id
	UserID          *uint64   // bookings.user_id (nullable)
	FlightID        uint64    // bookings.flight_id
	SeatID          uint64    // bookings.seat_id
	Reference       string    // bookings.booking_ref
	Status          string    // bookings.status
	TotalPriceCents uint32    // bookings.total_price_cents
	PassengerName   string    // bookings.passenger_name
	PassengerEmail  string    // bookings.passenger_email
	PassengerPhone  string    // bookings.passenger_phone
	CreatedAt       time.Time // bookings.created_at
	UpdatedAt       time.Time // bookings.updated_at
}
