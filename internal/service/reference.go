package service

import "crypto/rand"

// Booking references are 8 characters from a 36-character alphabet,
// about 41 bits of entropy.  Collisions are astronomically rare; the
// unique index on bookings.booking_ref is the backstop and the create
// path regenerates on a duplicate-key error.
const (
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceLength   = 8
)

// GenerateReference returns a fresh customer-facing booking code.
func GenerateReference() (string, error) {
	buf := make([]byte, referenceLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return string(buf), nil
}
