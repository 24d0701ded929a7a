package backoff

import (
	"math/rand"
	"sync"
	"time"
)

// Backoff produces exponentially increasing retry delays with jitter. It
// is used to space carrier-search retries so a transport stuck offline
// doesn't spin the event loop.
type Backoff struct {
	mu sync.Mutex

	initial    time.Duration
	max        time.Duration
	multiplier float64
	jitter     float64

	current  time.Duration
	attempts int

	rng *rand.Rand
}

// New creates a Backoff starting at initial, growing by multiplier each
// call to Next up to max, with +/-jitter fractional randomization applied
// to each returned value.
func New(initial, max time.Duration, multiplier, jitter float64) *Backoff {
	return &Backoff{
		initial:    initial,
		max:        max,
		multiplier: multiplier,
		jitter:     jitter,
		current:    initial,
		rng:        rand.New(rand.NewSource(int64(initial) + 1)),
	}
}

// Next advances the sequence and returns the jittered delay to wait
// before the next retry.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := b.addJitter(b.current)
	b.attempts++

	next := time.Duration(float64(b.current) * b.multiplier)
	if next > b.max {
		next = b.max
	}
	b.current = next

	return d
}

// Peek returns the jittered delay Next would return without advancing
// the sequence.
func (b *Backoff) Peek() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addJitter(b.current)
}

// Reset returns the sequence to its initial state.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
	b.attempts = 0
}

// Attempts reports how many times Next has been called since the last
// Reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Current reports the un-jittered delay that the next call to Next would
// be based on.
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Backoff) addJitter(d time.Duration) time.Duration {
	if b.jitter <= 0 {
		return d
	}
	spread := float64(d) * b.jitter
	delta := (b.rng.Float64()*2 - 1) * spread
	jittered := time.Duration(float64(d) + delta)
	if jittered < 0 {
		jittered = 0
	}
	return jittered
}

// Sequence returns the un-jittered delays Next would produce over count
// calls starting from a fresh Backoff with the given parameters. It is
// used by tests and by documentation tooling to describe a transport's
// retry schedule without constructing and mutating a live Backoff.
func Sequence(initial, max time.Duration, multiplier float64, count int) []time.Duration {
	out := make([]time.Duration, 0, count)
	cur := initial
	for i := 0; i < count; i++ {
		out = append(out, cur)
		cur = time.Duration(float64(cur) * multiplier)
		if cur > max {
			cur = max
		}
	}
	return out
}
