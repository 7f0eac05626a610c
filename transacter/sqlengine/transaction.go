package sqlengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shardedkit/transacter-go/transacter"
	"github.com/shardedkit/transacter-go/transacter/sqlengine/internal/adapters"
)

const sqlSetReadOnly = "SET TRANSACTION READ ONLY"

// WorkFunc is a unit of work executed inside one transaction attempt. The
// context it receives carries the active session registration; pass it along
// when calling back into the engine so nesting is detected.
type WorkFunc func(ctx context.Context, session *Session) error

// Transaction runs work inside a database transaction, retrying transient
// contention faults with exponential backoff up to the handle's MaxAttempts.
//
// Every attempt gets a fresh Session, never a reused one. On success the
// result of the committed attempt stands and post-commit hooks have run. A
// non-retryable fault propagates immediately; after exhausting retries the
// last attempt's fault propagates as-is. A failure in a post-commit hook is
// returned as a *transacter.PostCommitError: the data is committed and the
// call must not be treated as a failed transaction.
//
// Starting a transaction from inside a running one, with the running work's
// context, fails with transacter.ErrNestedTransaction.
func (t *Transacter) Transaction(ctx context.Context, work WorkFunc) error {
	if err := t.options.Validate(); err != nil {
		return err
	}

	if _, active := ActiveSession(ctx); active {
		return transacter.ErrNestedTransaction
	}

	backoff := t.backoffForCall()
	start := time.Now()

	var lastErr error

	for attempt := 1; attempt <= t.options.MaxAttempts; attempt++ {
		attemptErr := t.runAttempt(ctx, attempt, work)
		if attemptErr == nil {
			duration := time.Since(start)
			t.recordDurationContext(ctx, metricTransactionDuration, duration, statusSuccess)
			t.logOperation(logMsgTransactionCommitted, logAttrAttempts, attempt, logAttrDurationMS, t.toMilliseconds(duration))
			t.logOperationContext(ctx, logMsgTransactionCommitted, logAttrAttempts, attempt, logAttrDurationMS, t.toMilliseconds(duration))

			return nil
		}

		lastErr = attemptErr

		if !isRetryable(attemptErr) {
			t.recordDurationContext(ctx, metricTransactionDuration, time.Since(start), statusError)
			t.logErrorContext(ctx, logMsgFatalFault, attemptErr, logAttrAttempt, attempt)

			return attemptErr
		}

		if attempt == t.options.MaxAttempts {
			break
		}

		delay := backoff.NextDelay()
		t.recordCounterContext(ctx, metricTransactionRetries, map[string]string{spanAttrErrorType: errorTypeOf(attemptErr)})
		t.logDebug(logMsgRetryScheduled, logAttrAttempt, attempt, logAttrDelayMS, t.toMilliseconds(delay), logAttrError, attemptErr.Error())

		if delay > 0 {
			if sleepErr := t.sleepFor(ctx, delay); sleepErr != nil {
				return sleepErr
			}
		}
	}

	t.recordCounterContext(ctx, metricRetriesExhausted, map[string]string{spanAttrErrorType: errorTypeOf(lastErr)})
	t.logErrorContext(ctx, logMsgRetriesExhausted, lastErr, logAttrAttempts, t.options.MaxAttempts)
	t.logError(logMsgRetriesExhausted, lastErr, logAttrAttempts, t.options.MaxAttempts)

	return lastErr
}

// InTransaction runs work inside a transaction on the given handle and
// returns its result, with the same retry and failure semantics as
// Transacter.Transaction.
func InTransaction[T any](ctx context.Context, t *Transacter, work func(ctx context.Context, session *Session) (T, error)) (T, error) {
	var result T

	err := t.Transaction(ctx, func(ctx context.Context, session *Session) error {
		var workErr error
		result, workErr = work(ctx, session)

		return workErr
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}

// runAttempt drives the state machine of one attempt:
// begin -> work -> pre-commit hooks -> commit -> post-commit hooks, with
// rollback on any failure while the transaction is still active. The session
// is always closed after the attempt, with the execution-context registration
// already released.
func (t *Transacter) runAttempt(ctx context.Context, attempt int, work WorkFunc) error {
	spanCtx, span := t.startSpan(ctx, spanNameTransaction, map[string]string{
		spanAttrAttempt: fmt.Sprintf("%d", attempt),
	})

	var tx adapters.DBTx

	beginErr := t.tracePhase(spanCtx, spanNameBegin, func(ctx context.Context) error {
		var err error
		tx, err = t.db.Begin(ctx)

		return err
	})
	if beginErr != nil {
		joined := errors.Join(transacter.ErrBeginningTransactionFailed, beginErr)
		t.finishSpan(span, statusError, map[string]string{spanAttrErrorType: errorTypeOf(joined)})

		return joined
	}

	session := newSession(t, tx)
	workCtx := withActiveSession(spanCtx, session)
	txActive := true

	// Close hooks run with the caller's context: the session registration
	// lives only on workCtx, so they may start new transactions.
	defer session.close(ctx)

	err := t.executeWork(workCtx, session, work)

	if err == nil {
		commitErr := t.tracePhase(spanCtx, spanNameCommit, tx.Commit)
		if commitErr != nil {
			// A failed commit terminates the transaction; there is
			// nothing left to roll back.
			txActive = false
			err = errors.Join(transacter.ErrCommittingTransactionFailed, commitErr)
		} else {
			txActive = false
			err = session.postCommit(workCtx)
		}
	}

	if err != nil && txActive {
		rollbackErr := t.tracePhase(spanCtx, spanNameRollback, tx.Rollback)
		if rollbackErr != nil {
			// The rollback failure is attached to the triggering
			// fault, never replacing it.
			t.recordCounterContext(ctx, metricRollbackFailures, nil)
			t.logError(logMsgRollbackFailed, rollbackErr, logAttrAttempt, attempt)
			err = errors.Join(err, transacter.ErrRollbackFailed, rollbackErr)
		}
		txActive = false
	}

	if err != nil {
		t.finishSpan(span, statusError, map[string]string{spanAttrErrorType: errorTypeOf(err)})
		return err
	}

	t.finishSpan(span, statusSuccess, nil)

	return nil
}

// executeWork applies the read-only mode, runs the work function, and runs
// the pre-commit hooks. Any error aborts the commit.
func (t *Transacter) executeWork(ctx context.Context, session *Session, work WorkFunc) error {
	if t.options.ReadOnly {
		if _, execErr := session.tx.Exec(ctx, sqlSetReadOnly); execErr != nil {
			return errors.Join(transacter.ErrBeginningTransactionFailed, execErr)
		}
	}

	if workErr := work(ctx, session); workErr != nil {
		return workErr
	}

	return session.preCommit(ctx)
}

func (t *Transacter) backoffForCall() *transacter.Backoff {
	if t.newBackoff != nil {
		return t.newBackoff(t.options)
	}

	return transacter.NewBackoff(t.options.MinRetryDelay, t.options.MaxRetryDelay, t.options.RetryJitter)
}

// sleepFor blocks for the backoff delay. Cancellation takes effect only
// between attempts; a running attempt is never interrupted.
func (t *Transacter) sleepFor(ctx context.Context, delay time.Duration) error {
	if t.sleep != nil {
		return t.sleep(ctx, delay)
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
