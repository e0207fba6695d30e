package miniq

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// generateClientID produces a default client identifier when the caller
// does not supply one. Following original_source/adafruit_minimqtt.py,
// generated IDs begin with "cpy" followed by two random decimal runs;
// validateClientID (session.go) then enforces the 1-23 byte bound this
// scheme is built to satisfy (invariant I3 in spec.md section 3).
func generateClientID() (string, error) {
	a, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return "", fmt.Errorf("miniq: generating client id: %w", err)
	}
	b, err := rand.Int(rand.Reader, big.NewInt(100))
	if err != nil {
		return "", fmt.Errorf("miniq: generating client id: %w", err)
	}
	return fmt.Sprintf("cpy%d%d", a.Int64(), b.Int64()), nil
}
