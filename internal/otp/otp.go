// Package otp generates numeric one-time codes and hashes them for storage.
package otp

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// DefaultLength is the number of digits in a code when no length is configured.
const DefaultLength = 4

var ten = big.NewInt(10)

// Generate returns a numeric code of the given length. Digits come from
// crypto/rand so a code cannot be derived from process state.
func Generate(length int) (string, error) {
	if length < 1 {
		length = DefaultLength
	}

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
