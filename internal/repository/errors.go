// Package repository defines data access for flights, seats, bookings
// and users.  Sentinel errors declared here are shared across the
// repositories so that higher layers can distinguish failure modes
// with errors.Is instead of string matching.  Driver-specific failures
// (duplicate keys, lock waits, deadlocks) are classified through the
// helpers below so callers never touch MySQL error numbers directly.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrFlightNotFound is returned when a flight lookup yields no rows.
var ErrFlightNotFound = errors.New("flight not found")

// ErrSeatNotFound is returned when a seat lookup yields no rows, which
// includes asking for a seat that belongs to a different flight.
var ErrSeatNotFound = errors.New("seat not found")

// ErrBookingNotFound is returned when a booking lookup yields no rows.
var ErrBookingNotFound = errors.New("booking not found")

// ErrDuplicateReference is returned when a booking insert collides on
// the unique booking_ref index.  Callers regenerate the reference and
// retry.
var ErrDuplicateReference = errors.New("duplicate booking reference")

// MySQL server error numbers we care about.
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

// IsDuplicateKey reports whether err is a unique-constraint violation.
func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry
}

// IsLockConflict reports whether err is a lock wait timeout or a
// deadlock, i.e. transient contention that the caller may retry.
func IsLockConflict(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlErrLockWaitTimeout || me.Number == mysqlErrDeadlock
}
