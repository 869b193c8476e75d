// Package otelsink forwards bridged spans to an OpenTelemetry tracer.
//
// Every span the bridge opens is mirrored as an OTel span with the
// recorded parentage and timestamps preserved; attribute recordings
// become OTel attributes and events become OTel events, with the
// severity-to-action policy deciding whether an event is forwarded,
// recorded, or reported as an error on the span.
//
// The sink never installs exporters of its own: hand it any
// trace.TracerProvider (for example one built by this package's
// ProviderBuilder, or the global provider) and install exporters
// there. Shutting the provider down remains the owner's business.
package otelsink

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/luxas/tracebridge"
)

const tracerName = "github.com/luxas/tracebridge/otelsink"

// Option applies an option to the target Options struct.
type Option interface {
	ApplyToSink(target *Options)
}

// Options store the sink's configuration.
type Options struct {
	// Mapper is the severity-to-action policy applied to events.
	// Defaults to tracebridge.DefaultLevelMapper.
	Mapper tracebridge.LevelMapper
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

type activeSpan struct {
	ctx  context.Context
	span trace.Span
}

// Sink implements tracebridge.Sink over an OpenTelemetry tracer.
type Sink struct {
	provider trace.TracerProvider
	tracer   trace.Tracer
	mapper   tracebridge.LevelMapper

	mu     sync.Mutex
	active map[tracebridge.SpanID]activeSpan
}

var _ tracebridge.Sink = &Sink{}

// New creates a Sink forwarding to tracers from tp.
func New(tp trace.TracerProvider, opts ...Option) *Sink {
	o := (&Options{Mapper: tracebridge.DefaultLevelMapper}).applyOptions(opts)
	return &Sink{
		provider: tp,
		tracer:   tp.Tracer(tracerName),
		mapper:   o.Mapper,
		active:   make(map[tracebridge.SpanID]activeSpan),
	}
}

// SpanStarted implements tracebridge.Sink.
func (s *Sink) SpanStarted(view tracebridge.SpanView) {
	s.mu.Lock()
	parentCtx := context.Background()
	if parent, ok := s.active[view.ParentID]; ok {
		parentCtx = parent.ctx
	}
	s.mu.Unlock()

	name := view.Name
	if name == "" {
		name = "<unnamed_span>"
	}
	ctx, span := s.tracer.Start(parentCtx, name,
		trace.WithTimestamp(view.StartTime),
		trace.WithAttributes(attrsToKVs(view.Attributes)...))

	s.mu.Lock()
	s.active[view.ID] = activeSpan{ctx: ctx, span: span}
	s.mu.Unlock()
}

// SpanRecorded implements tracebridge.Sink.
func (s *Sink) SpanRecorded(view tracebridge.SpanView, values map[string]tracebridge.Value) {
	if span, ok := s.lookup(view.ID); ok {
		span.SetAttributes(attrsToKVs(values)...)
	}
}

// EventEmitted implements tracebridge.Sink.
func (s *Sink) EventEmitted(view tracebridge.SpanView, ev tracebridge.Event) {
	span, ok := s.lookup(view.ID)
	if !ok {
		return
	}
	switch s.mapper(ev.Level) {
	case tracebridge.ActionIgnore:
	case tracebridge.ActionException:
		//nolint:err113
		span.RecordError(errors.New(ev.Message), trace.WithTimestamp(ev.Time))
		span.SetStatus(codes.Error, ev.Message)
	case tracebridge.ActionBreadcrumb, tracebridge.ActionEvent:
		attrs := append(attrsToKVs(ev.Fields), attribute.String("level", ev.Level.String()))
		span.AddEvent(ev.Message, trace.WithTimestamp(ev.Time), trace.WithAttributes(attrs...))
	}
}

// SpanClosed implements tracebridge.Sink.
func (s *Sink) SpanClosed(view tracebridge.SpanView) {
	s.mu.Lock()
	entry, ok := s.active[view.ID]
	delete(s.active, view.ID)
	s.mu.Unlock()

	if ok {
		entry.span.End(trace.WithTimestamp(view.EndTime))
	}
}

// Close implements tracebridge.Sink. It force-flushes the provider if
// the provider supports that (the SDK provider does), but does not
// shut it down; the provider's owner does that.
func (s *Sink) Close(ctx context.Context) error {
	if flushable, ok := s.provider.(interface {
		ForceFlush(ctx context.Context) error
	}); ok {
		return flushable.ForceFlush(ctx)
	}
	return nil
}

func (s *Sink) lookup(id tracebridge.SpanID) (trace.Span, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.active[id]
	return entry.span, ok
}

// attrsToKVs converts the bridge's closed value union into OTel
// attributes, keys in sorted order so exported output is stable.
// Nested maps have no OTel attribute representation and are rendered
// through their diagnostic string form.
func attrsToKVs(attrs map[string]tracebridge.Value) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for _, k := range keys {
		v := attrs[k]
		switch v.Kind() {
		case tracebridge.KindInt64:
			kvs = append(kvs, attribute.Int64(k, v.Int64()))
		case tracebridge.KindFloat64:
			kvs = append(kvs, attribute.Float64(k, v.Float64()))
		case tracebridge.KindString:
			kvs = append(kvs, attribute.String(k, v.Str()))
		case tracebridge.KindBool:
			kvs = append(kvs, attribute.Bool(k, v.Bool()))
		case tracebridge.KindMap, tracebridge.KindInvalid:
			kvs = append(kvs, attribute.String(k, v.String()))
		}
	}
	return kvs
}
