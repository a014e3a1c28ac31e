package utils // package utils provides helper functions for token creation

import (
    "crypto/rand" // secure random number generation
    "encoding/hex" // hex encoding for token strings
)

// checkInTokenBytes is the entropy of a check-in token; 32 bytes encode
// to 64 hex characters, comfortably unguessable for a scannable code.
const checkInTokenBytes = 32

// NewCheckInToken returns a cryptographically secure random token used
// for scannable check-in.  It is generated after the booking
// transaction commits so token generation can never fail a reservation.
func NewCheckInToken() (string, error) {
    return randomHex(checkInTokenBytes)
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
