package model

import "time"

// Flight describes a scheduled flight between two airports.  The seat
// inventory for a flight is generated once at creation time from
// TotalSeats and never resized afterwards; AvailableSeats is always
// derived from the seats table, not stored here.
//
// Fields:
//  ID            – primary key identifier.
//  FlightNumber  – airline designator plus number (e.g. SA101).
//  Origin        – departure city or airport name.
//  Destination   – arrival city or airport name.
//  DepartureTime – scheduled departure in UTC.
//  ArrivalTime   – scheduled arrival in UTC.
//  PriceCents    – base fare in cents; snapshotted onto bookings.
//  TotalSeats    – fixed seat capacity, set at creation.
//  AircraftType  – free-form equipment description.
//  Description   – marketing blurb shown to customers.
//  IsActive      – soft-delete flag; inactive flights are hidden from search.
type Flight struct {
	ID            uint64    // flights.id
	FlightNumber  string    // flights.flight_number
	Origin        string    // flights.origin
	Destination   string    // flights.destination
	DepartureTime time.Time // flights.departure_time
	ArrivalTime   time.Time // flights.arrival_time
	PriceCents    uint32    // flights.price_cents
	TotalSeats    uint32    // flights.total_seats
	AircraftType  string    // flights.aircraft_type
	Description   string    // flights.description
	IsActive      bool      // flights.is_active
	CreatedAt     time.Time // flights.created_at
	UpdatedAt     time.Time // flights.updated_at
}
