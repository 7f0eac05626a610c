// Package testdoubles provides test doubles (spies) for the transacter
// observability interfaces:
//   - LoggerSpy: captures structured logging calls for verification
//   - ContextualLoggerSpy: captures structured logging with context
//   - MetricsCollectorSpy: captures metrics recording calls
//   - TracingCollectorSpy: captures spans with their status and attributes
//
// These test doubles enable testing of the engine's observability
// instrumentation without requiring actual telemetry backends.
package testdoubles
