package sqlengine

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/shardedkit/transacter-go/transacter"
)

const (
	componentName = "transacter"

	spanNameTransaction = "transacter.transaction"
	spanNameBegin       = "transacter.begin"
	spanNameCommit      = "transacter.commit"
	spanNameRollback    = "transacter.rollback"

	spanAttrComponent = "component"
	spanAttrAttempt   = "attempt"
	spanAttrErrorType = "error_type"

	statusSuccess = "success"
	statusError   = "error"

	metricTransactionDuration    = "transacter_transaction_duration"
	metricTransactionRetries     = "transacter_transaction_retries"
	metricRetriesExhausted       = "transacter_retries_exhausted"
	metricRollbackFailures       = "transacter_rollback_failures"
	metricPostCommitHookFailures = "transacter_post_commit_hook_failures"

	logMsgOperation            = "transacter operation: "
	logMsgTransactionCommitted = "transaction committed"
	logMsgRetryScheduled       = "retrying transaction after transient fault"
	logMsgRetriesExhausted     = "transaction retries exhausted"
	logMsgFatalFault           = "transaction failed with non-retryable fault"
	logMsgRollbackFailed       = "failed to roll back transaction"
	logMsgPostCommitHookFailed = "post-commit hook failed after successful commit"
	logMsgCloseHookFailed      = "session close hook failed"
	logMsgCloseRowsFailed      = "failed to close database rows"
	logMsgRestoreTargetFailed  = "failed to restore prior routing target"

	logAttrError      = "error"
	logAttrAttempt    = "attempt"
	logAttrAttempts   = "attempts"
	logAttrDelayMS    = "delay_ms"
	logAttrDurationMS = "duration_ms"
	logAttrShard      = "shard"
)

// logOperation logs operational information at info level if the logger is configured.
func (t *Transacter) logOperation(action string, args ...any) {
	if t.logger != nil {
		t.logger.Info(logMsgOperation+action, args...)
	}
}

// logOperationContext logs operational information with context correlation.
func (t *Transacter) logOperationContext(ctx context.Context, action string, args ...any) {
	if t.contextualLogger != nil {
		t.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logDebug logs attempt-level details at debug level if the logger is configured.
func (t *Transacter) logDebug(message string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(message, args...)
	}
}

// logWarn logs non-critical issues at warn level if the logger is configured.
func (t *Transacter) logWarn(message string, err error, args ...any) {
	if t.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		t.logger.Warn(message, allArgs...)
	}
}

// logError logs error information at the error level if the logger is configured.
func (t *Transacter) logError(message string, err error, args ...any) {
	if t.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		t.logger.Error(message, allArgs...)
	}
}

// logErrorContext logs error information with context correlation.
func (t *Transacter) logErrorContext(ctx context.Context, message string, err error, args ...any) {
	if t.contextualLogger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		t.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (t *Transacter) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordDurationContext records a duration metric with context if the collector supports it.
func (t *Transacter) recordDurationContext(
	ctx context.Context,
	metricName string,
	duration time.Duration,
	status string,
) {
	if t.metricsCollector != nil {
		labels := map[string]string{
			spanAttrComponent: componentName,
			"status":          status,
		}

		// Use context-aware method if available
		if contextualCollector, ok := t.metricsCollector.(transacter.ContextualMetricsCollector); ok {
			contextualCollector.RecordDurationContext(ctx, metricName, duration, labels)
		} else {
			t.metricsCollector.RecordDuration(metricName, duration, labels)
		}
	}
}

// recordCounterContext increments a counter metric with context if the collector supports it.
func (t *Transacter) recordCounterContext(ctx context.Context, metricName string, labels map[string]string) {
	if t.metricsCollector != nil {
		if labels == nil {
			labels = map[string]string{}
		}
		labels[spanAttrComponent] = componentName

		// Use context-aware method if available
		if contextualCollector, ok := t.metricsCollector.(transacter.ContextualMetricsCollector); ok {
			contextualCollector.IncrementCounterContext(ctx, metricName, labels)
		} else {
			t.metricsCollector.IncrementCounter(metricName, labels)
		}
	}
}

// startSpan starts a tracing span if the tracing collector is configured.
func (t *Transacter) startSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, transacter.SpanContext) {
	if t.tracingCollector != nil {
		if attrs == nil {
			attrs = map[string]string{}
		}
		attrs[spanAttrComponent] = componentName

		return t.tracingCollector.StartSpan(ctx, name, attrs)
	}

	return ctx, nil
}

// finishSpan finishes a tracing span if the tracing collector is configured.
func (t *Transacter) finishSpan(spanCtx transacter.SpanContext, status string, attrs map[string]string) {
	if t.tracingCollector != nil && spanCtx != nil {
		t.tracingCollector.FinishSpan(spanCtx, status, attrs)
	}
}

// tracePhase wraps one transaction phase (begin, commit, rollback) in its own
// span so each boundary is individually instrumentable. With no collector
// configured this is a plain call to fn.
func (t *Transacter) tracePhase(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	phaseCtx, span := t.startSpan(ctx, name, nil)

	err := fn(phaseCtx)
	if err != nil {
		t.finishSpan(span, statusError, map[string]string{spanAttrErrorType: errorTypeOf(err)})
		return err
	}

	t.finishSpan(span, statusSuccess, nil)

	return nil
}

// errorTypeOf extracts a string representation of the error type for metrics and span labeling.
func errorTypeOf(err error) string {
	switch {
	case err == nil:
		return "none"
	case transacter.IsPostCommitError(err):
		return "post_commit_hook"
	case errors.Is(err, transacter.ErrRetryTransaction):
		return "retry_requested"
	case errors.Is(err, context.Canceled):
		return "context_canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "context_deadline_exceeded"
	case isRetryable(err):
		return "transient"
	default:
		return "other"
	}
}
