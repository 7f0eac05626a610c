package transacter

import "context"

// Connection exposes the raw datastore connection of a session for operations
// outside the engine's vocabulary, e.g. routing commands. The engine does not
// interpret the connection's state after the callback returns.
type Connection interface {
	Exec(ctx context.Context, statement string) error
	Query(ctx context.Context, query string) (Rows, error)
}

// Rows is the row iterator returned by Connection.Query.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// Hook is an ordered session lifecycle callback. Hooks run in registration
// order; see Session.OnPreCommit, OnPostCommit, and OnSessionClose for the
// failure semantics of each phase.
type Hook func(ctx context.Context) error
