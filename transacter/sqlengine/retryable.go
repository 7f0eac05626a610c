package sqlengine

import (
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/shardedkit/transacter-go/transacter"
)

const (
	// maxCauseDepth bounds the cause-chain walk so pathological or cyclic
	// chains cannot hang classification.
	maxCauseDepth = 32

	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
	sqlstateLockNotAvailable     = "55P03"
	sqlstateClassConnection      = "08"
)

// isRetryable classifies an attempt failure as transient contention eligible
// for automatic retry. Retryable: serialization and deadlock conflicts
// (optimistic-lock and stale-version faults surface as these), lock
// acquisition timeouts, recoverable connectivity errors, and the explicit
// transacter.ErrRetryTransaction signal. The classification walks the full
// cause chain, so a retryable fault nested inside an unrelated wrapper is
// still retried. Everything else is fatal.
func isRetryable(err error) bool {
	return retryableCause(err, 0)
}

func retryableCause(err error, depth int) bool {
	if err == nil || depth > maxCauseDepth {
		return false
	}

	// A post-commit hook fault reflects a transaction that already
	// committed; retrying would run the work twice.
	if _, ok := err.(*transacter.PostCommitError); ok {
		return false
	}

	if err == transacter.ErrRetryTransaction {
		return true
	}

	if pgErr, ok := err.(*pgconn.PgError); ok {
		return retryableSQLState(pgErr.Code)
	}

	if pqErr, ok := err.(*pq.Error); ok {
		return retryableSQLState(string(pqErr.Code))
	}

	if pgconn.SafeToRetry(err) {
		return true
	}

	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}

	switch wrapped := err.(type) {
	case interface{ Unwrap() error }:
		return retryableCause(wrapped.Unwrap(), depth+1)
	case interface{ Unwrap() []error }:
		for _, cause := range wrapped.Unwrap() {
			if retryableCause(cause, depth+1) {
				return true
			}
		}
	}

	return false
}

func retryableSQLState(code string) bool {
	if strings.HasPrefix(code, sqlstateClassConnection) {
		return true
	}

	switch code {
	case sqlstateSerializationFailure, sqlstateDeadlockDetected, sqlstateLockNotAvailable:
		return true
	default:
		return false
	}
}
