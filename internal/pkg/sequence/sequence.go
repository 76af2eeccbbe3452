// Package sequence generates random character sequences for verification
// and invite codes.
package sequence

import (
	"crypto/rand"
	"math/big"
)

const (
	digits  = "0123456789"
	letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Generate returns a string of length characters, each position sampled
// independently from the alphabet (digits only, or digits plus letters).
// A length of zero or less yields the empty string. Uniqueness is not
// guaranteed; callers that need unique values must detect collisions and
// retry.
func Generate(length int, digitsOnly bool) string {
	if length <= 0 {
		return ""
	}

	alphabet := digits + letters
	if digitsOnly {
		alphabet = digits
	}

	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken;
			// there is no meaningful recovery at this level.
			panic("sequence: entropy source unavailable: " + err.Error())
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out)
}
