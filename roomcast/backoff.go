package roomcast

import (
	"math/rand"
	"time"
)

func defaultJitter() float64 { return rand.Float64() }

// backoffDelay computes the reconnect delay for the given attempt
// (1-based): initial * 2^min(attempt-1,4), capped at max, plus 0-20%
// jitter. jitter yields a value in [0,1).
func backoffDelay(attempt int, initial, max time.Duration, jitter func() float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	exp := attempt - 1
	if exp > 4 {
		exp = 4
	}
	delay := initial << uint(exp)
	if delay > max {
		delay = max
	}
	return delay + time.Duration(float64(delay)*0.2*jitter())
}
