// Package sentrysink forwards bridged tracing data into Sentry's
// error/performance monitoring.
//
// Spans become Sentry spans (the root of every bridged span tree
// becomes a transaction) with the recorded timings preserved. Events
// go through the severity-to-action policy: with the default policy,
// errors are captured as exceptions, warnings and plain information
// become breadcrumbs, debug output becomes standalone Sentry events,
// and trace-level chatter is dropped.
//
// Attribute recordings are only attached to the Sentry spans when
// WithTracingFields(true) is set; span fields routinely carry the
// instrumented function's arguments, which can be personally
// identifiable.
package sentrysink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/luxas/tracebridge"
)

const defaultFlushTimeout = 2 * time.Second

// Option applies an option to the target Options struct.
type Option interface {
	ApplyToSink(target *Options)
}

// Options store the sink's configuration.
type Options struct {
	// Mapper is the severity-to-action policy applied to events.
	// Defaults to tracebridge.DefaultLevelMapper.
	Mapper tracebridge.LevelMapper
	// TracingFields controls whether span attributes are attached to
	// the Sentry spans. Defaults to false, as fields may carry
	// personally identifiable data.
	TracingFields bool
}

func (o *Options) applyOptions(opts []Option) *Options {
	for _, opt := range opts {
		opt.ApplyToSink(o)
	}
	return o
}

type withMapper struct{ mapper tracebridge.LevelMapper }

func (w withMapper) ApplyToSink(target *Options) { target.Mapper = w.mapper }

// WithLevelMapper overrides the severity-to-action policy.
func WithLevelMapper(mapper tracebridge.LevelMapper) Option { return withMapper{mapper} }

type withTracingFields struct{ include bool }

func (w withTracingFields) ApplyToSink(target *Options) { target.TracingFields = w.include }

// WithTracingFields controls whether span attributes are forwarded.
func WithTracingFields(include bool) Option { return withTracingFields{include} }

// Sink implements tracebridge.Sink against a Sentry hub.
type Sink struct {
	hub           *sentry.Hub
	mapper        tracebridge.LevelMapper
	tracingFields bool

	mu    sync.Mutex
	spans map[tracebridge.SpanID]*sentry.Span
}

var _ tracebridge.Sink = &Sink{}

// New creates a Sink reporting through hub. A nil hub means
// sentry.CurrentHub(); sentry.Init must have run by then.
func New(hub *sentry.Hub, opts ...Option) *Sink {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	o := (&Options{Mapper: tracebridge.DefaultLevelMapper}).applyOptions(opts)
	return &Sink{
		hub:           hub,
		mapper:        o.Mapper,
		tracingFields: o.TracingFields,
		spans:         make(map[tracebridge.SpanID]*sentry.Span),
	}
}

// SpanStarted implements tracebridge.Sink.
func (s *Sink) SpanStarted(view tracebridge.SpanView) {
	name := view.Name
	if name == "" {
		name = "<unnamed_span>"
	}

	s.mu.Lock()
	parent := s.spans[view.ParentID]
	s.mu.Unlock()

	var span *sentry.Span
	if parent != nil {
		span = parent.StartChild(name)
	} else {
		ctx := sentry.SetHubOnContext(context.Background(), s.hub)
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}
	span.StartTime = view.StartTime
	if s.tracingFields {
		setData(span, view.Attributes)
	}

	s.mu.Lock()
	s.spans[view.ID] = span
	s.mu.Unlock()
}

// SpanRecorded implements tracebridge.Sink.
func (s *Sink) SpanRecorded(view tracebridge.SpanView, values map[string]tracebridge.Value) {
	if !s.tracingFields {
		return
	}
	s.mu.Lock()
	span := s.spans[view.ID]
	s.mu.Unlock()
	if span != nil {
		setData(span, values)
	}
}

// EventEmitted implements tracebridge.Sink.
func (s *Sink) EventEmitted(view tracebridge.SpanView, ev tracebridge.Event) {
	switch s.mapper(ev.Level) {
	case tracebridge.ActionIgnore:
	case tracebridge.ActionBreadcrumb:
		s.hub.AddBreadcrumb(&sentry.Breadcrumb{
			Category:  view.Name,
			Message:   ev.Message,
			Level:     sentryLevel(ev.Level),
			Timestamp: ev.Time,
		}, nil)
	case tracebridge.ActionEvent:
		event := sentry.NewEvent()
		event.Message = ev.Message
		event.Level = sentryLevel(ev.Level)
		s.hub.CaptureEvent(event)
	case tracebridge.ActionException:
		//nolint:err113
		s.hub.CaptureException(errors.New(ev.Message))
	}
}

// SpanClosed implements tracebridge.Sink.
func (s *Sink) SpanClosed(view tracebridge.SpanView) {
	s.mu.Lock()
	span := s.spans[view.ID]
	delete(s.spans, view.ID)
	s.mu.Unlock()

	if span != nil {
		span.EndTime = view.EndTime
		span.Finish()
	}
}

// Close implements tracebridge.Sink; it flushes the hub's transport.
// Bound the wait with a deadline on ctx, or defaultFlushTimeout is
// used.
func (s *Sink) Close(ctx context.Context) error {
	timeout := defaultFlushTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if client := s.hub.Client(); client != nil {
		if !client.Flush(timeout) {
			return fmt.Errorf("sentry flush timed out after %v", timeout)
		}
	}
	return nil
}

func setData(span *sentry.Span, values map[string]tracebridge.Value) {
	for k, v := range values {
		span.SetData(k, v.AsInterface())
	}
}

func sentryLevel(l tracebridge.Level) sentry.Level {
	switch l {
	case tracebridge.LevelTrace, tracebridge.LevelDebug:
		return sentry.LevelDebug
	case tracebridge.LevelInfo:
		return sentry.LevelInfo
	case tracebridge.LevelWarn:
		return sentry.LevelWarning
	case tracebridge.LevelError:
		return sentry.LevelError
	}
	return sentry.LevelInfo
}
