package miniq

import (
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

// maxBackoffSeconds caps the exponential term of the connect back-off
// schedule, per spec.md section 4.5.
const maxBackoffSeconds = 32

// connectBackoff computes the delay slept after the attempt-th counted
// connect failure (1-indexed), per spec.md section 4.5:
//
//	d = min(2^attempt, 32) + uniform(0, 1) seconds
//
// A Dialer failure wrapping transport.ErrSocketUnavailable is not
// counted: it skips the delay and does not advance attempt. Every other
// failure, including an ordinary dial error, is counted (see
// (*Client).connectWithRetry in client.go).
func connectBackoff(attempt int) time.Duration {
	exp := math.Pow(2, float64(attempt))
	if exp > maxBackoffSeconds {
		exp = maxBackoffSeconds
	}
	jitter, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	var jitterSeconds float64
	if err == nil {
		jitterSeconds = float64(jitter.Int64()) / 1_000_000
	}
	return time.Duration((exp + jitterSeconds) * float64(time.Second))
}
