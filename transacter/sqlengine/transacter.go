package sqlengine

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/shardedkit/transacter-go/transacter"
	"github.com/shardedkit/transacter-go/transacter/sqlengine/internal/adapters"
)

// Transacter executes units of work against the database with all-or-nothing
// commit semantics and automatic retry on transient contention.
//
// A Transacter handle is cheap to derive: NoRetries, ReadOnly, and the other
// derivation methods copy the immutable options while sharing the underlying
// database adapter and observability collaborators by reference. Handles are
// safe for concurrent use; each transaction attempt gets its own Session.
type Transacter struct {
	db               adapters.DBAdapter
	options          transacter.Options
	sharded          bool
	logger           transacter.Logger
	contextualLogger transacter.ContextualLogger
	metricsCollector transacter.MetricsCollector
	tracingCollector transacter.TracingCollector

	// test seams, nil in production
	newBackoff func(options transacter.Options) *transacter.Backoff
	sleep      func(ctx context.Context, delay time.Duration) error
}

// Option defines a functional option for configuring a Transacter.
type Option func(*Transacter) error

// WithOptions replaces the initial transaction options of the engine.
func WithOptions(options transacter.Options) Option {
	return func(t *Transacter) error {
		if err := options.Validate(); err != nil {
			return err
		}

		t.options = options

		return nil
	}
}

// WithSharded marks the backend as horizontally partitioned. Sharded backends
// answer shard discovery queries and accept routing statements; non-sharded
// backends expose a single implicit shard and treat targeting as a no-op.
func WithSharded() Option {
	return func(t *Transacter) error {
		t.sharded = true
		return nil
	}
}

// WithLogger sets the logger for the Transacter.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: attempt boundaries and backoff delays (development use)
// Info level: retries, attempt counts, durations (production-safe)
// Warn level: non-critical issues like close-hook failures
// Error level: critical failures that cause transaction failures.
func WithLogger(logger transacter.Logger) Option {
	return func(t *Transacter) error {
		t.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Transacter.
// The contextual logger will receive log messages with context information including
// automatic trace/span correlation when tracing is enabled.
func WithContextualLogger(logger transacter.ContextualLogger) Option {
	return func(t *Transacter) error {
		t.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Transacter.
// The collector will receive attempt durations, retry counts, retries-exhausted
// counts, rollback failures, and post-commit hook failures.
func WithMetrics(collector transacter.MetricsCollector) Option {
	return func(t *Transacter) error {
		t.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Transacter.
// The collector will receive one span per transaction plus child spans for the
// begin, commit, and rollback phases. The engine behaves identically without it.
func WithTracing(collector transacter.TracingCollector) Option {
	return func(t *Transacter) error {
		t.tracingCollector = collector
		return nil
	}
}

// NewTransacterFromPGXPool creates a new Transacter using a pgx pool with optional configuration.
func NewTransacterFromPGXPool(db *pgxpool.Pool, options ...Option) (*Transacter, error) {
	if db == nil {
		return nil, transacter.ErrNilDatabaseConnection
	}

	return newTransacter(adapters.NewPGXAdapter(db), options...)
}

// NewTransacterFromSQLDB creates a new Transacter using a sql.DB with optional configuration.
func NewTransacterFromSQLDB(db *sql.DB, options ...Option) (*Transacter, error) {
	if db == nil {
		return nil, transacter.ErrNilDatabaseConnection
	}

	return newTransacter(adapters.NewSQLAdapter(db), options...)
}

// NewTransacterFromSQLX creates a new Transacter using a sqlx.DB with optional configuration.
func NewTransacterFromSQLX(db *sqlx.DB, options ...Option) (*Transacter, error) {
	if db == nil {
		return nil, transacter.ErrNilDatabaseConnection
	}

	return newTransacter(adapters.NewSQLXAdapter(db), options...)
}

func newTransacter(db adapters.DBAdapter, options ...Option) (*Transacter, error) {
	t := &Transacter{
		db:      db,
		options: transacter.DefaultOptions(),
	}

	for _, option := range options {
		if err := option(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Options returns the immutable options of this handle.
func (t *Transacter) Options() transacter.Options {
	return t.options
}

// WithMaxAttempts derives a handle with a different attempt bound.
func (t *Transacter) WithMaxAttempts(maxAttempts int) *Transacter {
	return t.derive(t.options.WithMaxAttempts(maxAttempts))
}

// NoRetries derives a handle that runs exactly one attempt.
func (t *Transacter) NoRetries() *Transacter {
	return t.derive(t.options.NoRetries())
}

// ReadOnly derives a handle whose sessions reject mutating operations.
func (t *Transacter) ReadOnly() *Transacter {
	return t.derive(t.options.AsReadOnly())
}

// AllowCowrites derives a handle with the concurrent-write check disabled.
func (t *Transacter) AllowCowrites() *Transacter {
	return t.derive(t.options.WithDisabledCheck(transacter.CheckCowrite))
}

// WithDisabledCheck derives a handle with the given check disabled.
func (t *Transacter) WithDisabledCheck(check transacter.Check) *Transacter {
	return t.derive(t.options.WithDisabledCheck(check))
}

// derive copies the handle with new options; the database adapter and the
// observability collaborators stay shared by reference.
func (t *Transacter) derive(options transacter.Options) *Transacter {
	derived := *t
	derived.options = options

	return &derived
}
