package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewOtp returns a uniformly random 6-digit one-time passcode as a
// string.  Leading zeros are preserved, so "004213" is a valid code.
func NewOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
