// Package zapadapter provides a zap-backed implementation of the transacter
// logging interface for users who already run zap and do not want to write
// an adapter themselves.
package zapadapter

import (
	"go.uber.org/zap"

	"github.com/shardedkit/transacter-go/transacter"
)

// Logger implements transacter.Logger on top of a zap SugaredLogger.
// The engine's alternating key-value log arguments map directly onto
// zap's *w logging methods.
type Logger struct {
	base *zap.SugaredLogger
}

// NewLogger creates a logger adapter from an existing zap logger.
// The zap logger's configuration (level, encoding, sinks) is used as-is.
func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{base: logger.Sugar()}
}

// NewNamedLogger creates a logger adapter with a name appended to the
// zap logger's name path, so engine output is attributable in shared logs.
func NewNamedLogger(logger *zap.Logger, name string) *Logger {
	return &Logger{base: logger.Sugar().Named(name)}
}

// Debug logs a debug message with alternating key-value arguments.
func (l *Logger) Debug(msg string, args ...any) {
	l.base.Debugw(msg, args...)
}

// Info logs an info message with alternating key-value arguments.
func (l *Logger) Info(msg string, args ...any) {
	l.base.Infow(msg, args...)
}

// Warn logs a warning message with alternating key-value arguments.
func (l *Logger) Warn(msg string, args ...any) {
	l.base.Warnw(msg, args...)
}

// Error logs an error message with alternating key-value arguments.
func (l *Logger) Error(msg string, args ...any) {
	l.base.Errorw(msg, args...)
}

// Ensure Logger implements transacter.Logger.
var _ transacter.Logger = (*Logger)(nil)
