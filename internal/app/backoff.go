package app

import (
	"math/rand"
	"time"
)

// backoff implements exponential backoff with jitter for probe retries.
// Unlike a sleeping helper it only computes durations, so callers can wait
// in a context-aware select.
type backoff struct {
	base time.Duration
	max  time.Duration
	cur  time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	return &backoff{base: base, max: max}
}

// Next returns the duration to wait before the next attempt and advances
// the sequence.
func (b *backoff) Next() time.Duration {
	if b.cur <= 0 {
		b.cur = b.base
	} else {
		b.cur *= 2
		if b.cur > b.max {
			b.cur = b.max
		}
	}
	// jitter ~ +/-20%
	j := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(b.cur) * j)
}

// Reset restarts the sequence after a success.
func (b *backoff) Reset() { b.cur = 0 }
