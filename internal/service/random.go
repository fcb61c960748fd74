package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var sixDigitSpan = big.NewInt(900000)

// randomSixDigits returns a number in [100000, 999999] as a string.
func randomSixDigits() (string, error) {
	n, err := rand.Int(rand.Reader, sixDigitSpan)
	if err != nil {
		return "", fmt.Errorf("error reading random: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
