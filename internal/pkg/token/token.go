package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const safetyCodeSpace = 10000

// NewSafetyCode generates a cryptographically random 4-digit PIN, zero padded.
func NewSafetyCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(safetyCodeSpace))
	if err != nil {
		return "", fmt.Errorf("generate safety code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
