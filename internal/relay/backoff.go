package relay

import (
	"time"
)

type Backoff struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64

	current time.Duration
}

func NewBackoff(initial, max time.Duration) *Backoff {
	if initial <= 0 {
		initial = time.Second
	}

	if max < initial {
		max = initial
	}

	return &Backoff{Initial: initial, Max: max, Factor: 2}
}

// Next returns the delay before the next attempt: Initial, then growing by
// Factor up to Max.
func (b *Backoff) Next() time.Duration {
	if b.current == 0 {
		b.current = b.Initial
		return b.current
	}

	next := time.Duration(float64(b.current) * b.Factor)
	if next > b.Max || next <= 0 {
		next = b.Max
	}

	b.current = next

	return b.current
}

func (b *Backoff) Reset() {
	b.current = 0
}
