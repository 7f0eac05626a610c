package transacter_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shardedkit/transacter-go/transacter"
)

func Test_Backoff_DoublesDelaysUpToCap(t *testing.T) {
	backoff := transacter.NewBackoff(100*time.Millisecond, 1*time.Second, 0)

	expected := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		1 * time.Second,
		1 * time.Second,
	}

	for i, want := range expected {
		assert.Equal(t, want, backoff.NextDelay(), "delay %d should follow the doubling sequence", i)
	}
}

func Test_Backoff_AddsJitterWithinBounds(t *testing.T) {
	minDelay := 100 * time.Millisecond
	jitter := 400 * time.Millisecond

	backoff := transacter.NewBackoffWithSource(minDelay, 1*time.Second, jitter, rand.NewPCG(7, 13))

	delay := backoff.NextDelay()

	assert.GreaterOrEqual(t, delay, minDelay, "first delay should be at least the minimum")
	assert.LessOrEqual(t, delay, minDelay+jitter, "first delay should not exceed minimum plus jitter")
}

func Test_Backoff_IsDeterministicUnderFixedSource(t *testing.T) {
	first := transacter.NewBackoffWithSource(100*time.Millisecond, 1*time.Second, 400*time.Millisecond, rand.NewPCG(42, 42))
	second := transacter.NewBackoffWithSource(100*time.Millisecond, 1*time.Second, 400*time.Millisecond, rand.NewPCG(42, 42))

	for i := 0; i < 8; i++ {
		assert.Equal(t, first.NextDelay(), second.NextDelay(), "delay %d should match under identical seeds", i)
	}
}

func Test_Backoff_Reset_RewindsTheSequence(t *testing.T) {
	backoff := transacter.NewBackoff(100*time.Millisecond, 1*time.Second, 0)

	firstRun := backoff.NextDelay()
	backoff.NextDelay()
	backoff.NextDelay()

	backoff.Reset()

	assert.Equal(t, firstRun, backoff.NextDelay(), "after reset the sequence should restart at the minimum delay")
}

func Test_Backoff_DoesNotOverflowOnManyAttempts(t *testing.T) {
	maxDelay := 1 * time.Second

	backoff := transacter.NewBackoff(100*time.Millisecond, maxDelay, 0)

	for i := 0; i < 100; i++ {
		delay := backoff.NextDelay()
		assert.Positive(t, delay, "delay %d should stay positive", i)
		assert.LessOrEqual(t, delay, maxDelay, "delay %d should stay capped", i)
	}
}
