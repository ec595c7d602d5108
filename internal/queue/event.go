// Package queue defines the message payloads exchanged over the
// broker and the publisher/consumer plumbing around them.
package queue

// Queue names.  Both are declared durable by publisher and consumer.
const (
	ConfirmedQueueName = "booking.confirmed"
	CancelledQueueName = "booking.cancelled"
)

// BookingConfirmedEvent is published after a booking transaction
// commits.  It carries enough for downstream consumers to log or
// notify without querying the primary database.
type BookingConfirmedEvent struct {
	EventID         string `json:"event_id"`
	BookingID       uint64 `json:"booking_id"`
	Reference       string `json:"reference"`
	UserID          uint64 `json:"user_id,omitempty"`
	FlightID        uint64 `json:"flight_id"`
	FlightNumber    string `json:"flight_number"`
	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	SeatNumber      string `json:"seat_number"`
	TotalPriceCents uint32 `json:"total_price_cents"`
	PassengerName   string `json:"passenger_name"`
	ConfirmedAt     string `json:"confirmed_at"`
}

// BookingCancelledEvent is published after a cancellation commits and
// the seat has been returned to inventory.
type BookingCancelledEvent struct {
	EventID     string `json:"event_id"`
	BookingID   uint64 `json:"booking_id"`
	Reference   string `json:"reference"`
	FlightID    uint64 `json:"flight_id"`
	SeatID      uint64 `json:"seat_id"`
	CancelledAt string `json:"cancelled_at"`
}
