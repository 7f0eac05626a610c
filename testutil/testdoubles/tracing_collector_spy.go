package testdoubles

import (
	"context"
	"sync"

	"github.com/shardedkit/transacter-go/transacter"
)

// SpySpan represents a span captured by the TracingCollectorSpy.
type SpySpan struct {
	Name       string
	Status     string
	Attributes map[string]string
	Finished   bool
}

// TracingCollectorSpy is a TracingCollector implementation that captures
// spans for testing the engine's tracing instrumentation.
type TracingCollectorSpy struct {
	spans []*SpySpan
	mu    sync.Mutex
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy instance.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

// StartSpan implements the TracingCollector interface for testing.
func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, transacter.SpanContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	span := &SpySpan{Name: name, Attributes: copyLabels(attrs)}
	if span.Attributes == nil {
		span.Attributes = map[string]string{}
	}
	s.spans = append(s.spans, span)

	return ctx, &spySpanContext{span: span, collector: s}
}

// FinishSpan implements the TracingCollector interface for testing.
func (s *TracingCollectorSpy) FinishSpan(spanCtx transacter.SpanContext, status string, attrs map[string]string) {
	spy, ok := spanCtx.(*spySpanContext)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	spy.span.Status = status
	spy.span.Finished = true
	for key, value := range attrs {
		spy.span.Attributes[key] = value
	}
}

// Reset clears all captured spans.
func (s *TracingCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spans = s.spans[:0]
}

// GetSpans returns a copy of all captured spans in start order.
func (s *TracingCollectorSpy) GetSpans() []SpySpan {
	s.mu.Lock()
	defer s.mu.Unlock()

	spans := make([]SpySpan, 0, len(s.spans))
	for _, span := range s.spans {
		copied := *span
		copied.Attributes = copyLabels(span.Attributes)
		spans = append(spans, copied)
	}

	return spans
}

// SpanNames returns the names of all captured spans in start order.
func (s *TracingCollectorSpy) SpanNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.spans))
	for _, span := range s.spans {
		names = append(names, span.Name)
	}

	return names
}

// HasSpan checks if a span with the given name and status was captured.
func (s *TracingCollectorSpy) HasSpan(name, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, span := range s.spans {
		if span.Name == name && span.Status == status {
			return true
		}
	}

	return false
}

// spySpanContext wraps a captured span as a transacter.SpanContext.
type spySpanContext struct {
	span      *SpySpan
	collector *TracingCollectorSpy
}

func (c *spySpanContext) SetStatus(status string) {
	c.collector.mu.Lock()
	defer c.collector.mu.Unlock()

	c.span.Status = status
}

func (c *spySpanContext) AddAttribute(key, value string) {
	c.collector.mu.Lock()
	defer c.collector.mu.Unlock()

	c.span.Attributes[key] = value
}

// Compile-time check to ensure TracingCollectorSpy implements the TracingCollector interface.
var _ transacter.TracingCollector = (*TracingCollectorSpy)(nil)
