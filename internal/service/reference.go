package service

import (
	"crypto/rand"
	"math/big"
)

const referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// ReferenceLength is the length of a booking reference code.
const ReferenceLength = 8

// ReferenceFunc produces booking reference codes.
type ReferenceFunc func() (string, error)

// NewReference returns an 8-character upper-case base-36 code drawn from
// crypto/rand.  Uniqueness is enforced by the bookings table, not here.
func NewReference() (string, error) {
	buf := make([]byte, ReferenceLength)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return string(buf), nil
}
