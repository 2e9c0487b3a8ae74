// Package joincode generates workspace join codes.
package joincode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Alphabet is the set join codes are drawn from. Codes are stored lowercase.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Length is the number of characters in a join code.
const Length = 6

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Generate returns a new code of Length characters drawn uniformly from
// Alphabet. Codes are not globally unique.
func Generate() (string, error) {
	b := make([]byte, Length)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("generate join code: %w", err)
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b), nil
}

// Valid reports whether code has the shape Generate produces.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}
