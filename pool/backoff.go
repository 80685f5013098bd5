package pool

import (
	"math"
	"time"
)

// backoffDelay computes the delay before retry attempt (1-based) per §4.5:
// initial_delay * factor^attempt, capped at maxDelay. The cap matters: left
// unbounded, factor^attempt eventually exceeds time.Duration's int64
// nanosecond range and silently wraps, which would make retries against a
// target that never comes back hammer it at full speed instead of backing
// off.
func backoffDelay(initial time.Duration, factor float64, attempt int, maxDelay time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := float64(initial) * math.Pow(factor, float64(attempt))
	if d <= 0 || d > float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(d)
}
