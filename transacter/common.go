package transacter

import (
	"errors"
	"fmt"
)

var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")
var ErrNestedTransaction = errors.New("a transaction is already active in this execution context")
var ErrReadOnlySession = errors.New("mutation attempted on a read-only session")
var ErrSessionClosed = errors.New("session is already closed")
var ErrHookPhaseStarted = errors.New("hook phase has already started")
var ErrUnknownEntityKind = errors.New("entity does not match exactly one entity kind")
var ErrMissingParentID = errors.New("child entity must supply a parent id")
var ErrEntityNotFound = errors.New("entity not found")
var ErrMalformedShardRow = errors.New("malformed shard discovery row")
var ErrBuildingQueryFailed = errors.New("failed to build query")
var ErrBeginningTransactionFailed = errors.New("failed to begin transaction")
var ErrCommittingTransactionFailed = errors.New("failed to commit transaction")
var ErrRollbackFailed = errors.New("failed to roll back transaction")
var ErrSavingEntityFailed = errors.New("failed to save entity")
var ErrDeletingEntityFailed = errors.New("failed to delete entity")
var ErrLoadingEntityFailed = errors.New("failed to load entity")
var ErrDiscoveringShardsFailed = errors.New("failed to discover shards")

// ErrRetryTransaction is the explicit retry signal. Application code returns
// it (or an error wrapping it) from a transaction's work function to request
// that the whole attempt is rolled back and retried.
var ErrRetryTransaction = errors.New("transaction retry requested")

// PostCommitError signals that a post-commit hook failed after the underlying
// database transaction had already committed. The data is persisted; callers
// must treat this as partial success with degraded side effects, not as a
// failed transaction. It is never retried.
type PostCommitError struct {
	Err error
}

func (e *PostCommitError) Error() string {
	return fmt.Sprintf("post-commit hook failed: %s", e.Err)
}

func (e *PostCommitError) Unwrap() error {
	return e.Err
}

// NewPostCommitError wraps the given hook failure in a PostCommitError.
func NewPostCommitError(err error) *PostCommitError {
	return &PostCommitError{Err: err}
}

// IsPostCommitError reports whether err or any error in its chain is a
// PostCommitError.
func IsPostCommitError(err error) bool {
	var pce *PostCommitError
	return errors.As(err, &pce)
}
