package model

import "time"

// Seat classes, stored uppercase in seats.seat_class.
const (
	SeatClassFirst    = "FIRST"
	SeatClassBusiness = "BUSINESS"
	SeatClassEconomy  = "ECONOMY"
)

// Seat is one physical seat on a flight.  (FlightID, SeatNumber) is
// unique and the flight reference never changes after creation.
// IsAvailable is the single source of truth for bookability: it is
// true exactly when no non-cancelled booking references the seat, and
// it is only ever flipped inside the same transaction that creates or
// cancels the referencing booking.
//
// Fields:
//  ID          – primary key identifier.
//  FlightID    – owning flight (immutable).
//  SeatNumber  – row plus column letter, e.g. "12C"; unique per flight.
//  SeatClass   – FIRST, BUSINESS or ECONOMY.
//  IsAvailable – true when the seat can be booked.
//  IsWindow    – derived from the column letter (A or F).
//  IsAisle     – derived from the column letter (C or D).
type Seat struct {
	ID          uint64    // seats.id
	FlightID    uint64    // seats.flight_id
	SeatNumber  string    // seats.seat_number
	SeatClass   string    // seats.seat_class
	IsAvailable bool      // seats.is_available
	IsWindow    bool      // seats.is_window
	IsAisle     bool      // seats.is_aisle
	CreatedAt   time.Time // seats.created_at
	UpdatedAt   time.Time // seats.updated_at
}
