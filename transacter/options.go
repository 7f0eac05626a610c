package transacter

import "time"

const (
	defaultMaxAttempts   = 2
	defaultMinRetryDelay = 100 * time.Millisecond
	defaultMaxRetryDelay = 1 * time.Second
	defaultRetryJitter   = 400 * time.Millisecond
)

// Options is the immutable per-call configuration of a transaction handle.
//
// Options values are copied on derivation: each With* method returns a new
// value and leaves the receiver untouched, so handles derived from the same
// engine can carry different behavior while sharing the underlying database
// connection and execution-context registry.
type Options struct {
	MaxAttempts    int
	DisabledChecks CheckSet
	MinRetryDelay  time.Duration
	MaxRetryDelay  time.Duration
	RetryJitter    time.Duration
	ReadOnly       bool
}

// DefaultOptions returns the options used by a freshly constructed engine:
// two attempts, no disabled checks, read-write.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:   defaultMaxAttempts,
		MinRetryDelay: defaultMinRetryDelay,
		MaxRetryDelay: defaultMaxRetryDelay,
		RetryJitter:   defaultRetryJitter,
	}
}

// WithMaxAttempts returns a copy of the options with the attempt bound replaced.
func (o Options) WithMaxAttempts(maxAttempts int) Options {
	o.MaxAttempts = maxAttempts
	return o
}

// NoRetries returns a copy of the options that runs exactly one attempt.
func (o Options) NoRetries() Options {
	return o.WithMaxAttempts(1)
}

// AsReadOnly returns a copy of the options with the read-only flag set.
// Sessions started under read-only options reject Save and Delete.
func (o Options) AsReadOnly() Options {
	o.ReadOnly = true
	return o
}

// WithDisabledCheck returns a copy of the options with the given check added
// to the disabled set. The receiver's set is copied, not shared.
func (o Options) WithDisabledCheck(check Check) Options {
	o.DisabledChecks = o.DisabledChecks.With(check)
	return o
}

// Validate reports a programming-error fault for unusable options.
// An invalid MaxAttempts is surfaced immediately and never retried.
func (o Options) Validate() error {
	if o.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	return nil
}
