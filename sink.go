package tracebridge

import (
	"context"

	"go.uber.org/multierr"
)

// Sink consumes span and event data for reporting. The bridge depends
// only on this interface, never on a concrete implementation, and the
// callback contract is satisfiable by any sink, including NoopSink.
//
// Sinks receive immutable snapshots; the registry retains exclusive
// ownership of the live spans. All four notification methods sit on
// the native layer's instrumentation path and must return quickly;
// sinks that do real work should be wrapped in Buffered.
//
// Sinks that only care about a subset of the lifecycle can embed
// NoopSink and override what they need.
type Sink interface {
	// SpanStarted is called after a new span is allocated and has
	// become current.
	SpanStarted(view SpanView)
	// SpanRecorded is called after values were merged into the span's
	// attributes. The view already reflects the merge; values holds
	// just the freshly-recorded batch.
	SpanRecorded(view SpanView, values map[string]Value)
	// EventEmitted is called for every event, carrying the severity
	// metadata so a severity-to-action policy can be applied
	// downstream.
	EventEmitted(view SpanView, ev Event)
	// SpanClosed is called after the span was released from the
	// registry and the current-span stack was restored. The view is
	// the span's final snapshot.
	SpanClosed(view SpanView)
	// Close flushes and releases sink resources.
	Close(ctx context.Context) error
}

// NoopSink is a Sink that discards everything.
type NoopSink struct{}

var _ Sink = NoopSink{}

// SpanStarted implements Sink.
func (NoopSink) SpanStarted(SpanView) {}

// SpanRecorded implements Sink.
func (NoopSink) SpanRecorded(SpanView, map[string]Value) {}

// EventEmitted implements Sink.
func (NoopSink) EventEmitted(SpanView, Event) {}

// SpanClosed implements Sink.
func (NoopSink) SpanClosed(SpanView) {}

// Close implements Sink.
func (NoopSink) Close(context.Context) error { return nil }

// MultiSink fans every notification out to all of the given sinks, in
// order. Close closes every sink and combines the errors.
func MultiSink(sinks ...Sink) Sink {
	// Avoid a pointless indirection for the common cases.
	switch len(sinks) {
	case 0:
		return NoopSink{}
	case 1:
		return sinks[0]
	}
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) SpanStarted(view SpanView) {
	for _, s := range m {
		s.SpanStarted(view)
	}
}

func (m multiSink) SpanRecorded(view SpanView, values map[string]Value) {
	for _, s := range m {
		s.SpanRecorded(view, values)
	}
}

func (m multiSink) EventEmitted(view SpanView, ev Event) {
	for _, s := range m {
		s.EventEmitted(view, ev)
	}
}

func (m multiSink) SpanClosed(view SpanView) {
	for _, s := range m {
		s.SpanClosed(view)
	}
}

func (m multiSink) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close(ctx))
	}
	return multierr.Combine(errs...)
}
