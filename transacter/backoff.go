package transacter

import (
	"math/rand/v2"
	"time"
)

// shift bound keeps minDelay << attempt from overflowing time.Duration.
const maxBackoffShift = 32

// Backoff computes retry delays with exponential growth bounded to
// [minDelay, maxDelay] plus a uniformly random jitter in [0, jitter].
// The jitter decorrelates simultaneous retries from concurrent callers.
//
// A Backoff is stateful across calls within one retry loop and must be
// created fresh for each top-level transaction call. It is not safe for
// concurrent use.
type Backoff struct {
	minDelay time.Duration
	maxDelay time.Duration
	jitter   time.Duration
	attempt  uint
	rand     *rand.Rand
}

// NewBackoff creates a backoff policy drawing jitter from the process-global
// non-deterministic random source.
func NewBackoff(minDelay, maxDelay, jitter time.Duration) *Backoff {
	return &Backoff{
		minDelay: minDelay,
		maxDelay: maxDelay,
		jitter:   jitter,
	}
}

// NewBackoffWithSource creates a backoff policy drawing jitter from the given
// source, so delays are deterministic under a fixed seed.
func NewBackoffWithSource(minDelay, maxDelay, jitter time.Duration, source rand.Source) *Backoff {
	backoff := NewBackoff(minDelay, maxDelay, jitter)
	backoff.rand = rand.New(source)

	return backoff
}

// NextDelay returns the delay to sleep before the next attempt and advances
// the backoff state. Delays double per call, starting at minDelay, capped at
// maxDelay, with jitter added on top.
func (b *Backoff) NextDelay() time.Duration {
	delay := b.minDelay
	if b.attempt >= maxBackoffShift || b.minDelay<<b.attempt > b.maxDelay || b.minDelay<<b.attempt < b.minDelay {
		delay = b.maxDelay
	} else {
		delay = b.minDelay << b.attempt
	}

	if delay > b.maxDelay {
		delay = b.maxDelay
	}

	b.attempt++

	return delay + b.nextJitter()
}

// Reset rewinds the backoff to its initial state.
func (b *Backoff) Reset() {
	b.attempt = 0
}

func (b *Backoff) nextJitter() time.Duration {
	if b.jitter <= 0 {
		return 0
	}

	if b.rand != nil {
		return time.Duration(b.rand.Int64N(int64(b.jitter) + 1))
	}

	return time.Duration(rand.Int64N(int64(b.jitter) + 1))
}
