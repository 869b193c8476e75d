package tracebridge

import (
	"context"
	"time"

	"github.com/go-logr/logr"
)

// Observer is the four-callback contract the native instrumentation
// source invokes. Per span the legal sequence is one OnNewSpan, any
// number of OnRecord/OnEvent calls, and exactly one OnClose; the
// native layer serializes the callbacks of a single span's lifecycle
// but no global order across unrelated spans is assumed.
//
// Every callback after OnNewSpan takes back the Token that OnNewSpan
// returned for the span, unchanged.
type Observer interface {
	OnNewSpan(nativeID NativeID, serializedAttrs []byte) (Token, error)
	OnRecord(nativeID NativeID, serializedValues []byte, tok Token) error
	OnEvent(serializedEvent []byte, tok Token) error
	OnClose(nativeID NativeID, tok Token) error
}

// Option applies an option to the target Options struct.
type Option interface {
	ApplyToBridge(target *Options)
}

// Options store the bridge's configuration.
type Options struct {
	// Log receives protocol errors (at error level) and lifecycle
	// chatter (at V-levels). Defaults to logr.Discard().
	Log *logr.Logger
	// Sinks receive span and event data. Zero sinks means NoopSink;
	// several fan out in order.
	Sinks []Sink
	// Registry to correlate spans in. Defaults to a fresh one; supply
	// a shared registry only if several independent bridges must
	// uphold identifier uniqueness together.
	Registry *Registry
}

func (o *Options) applyOptions(opts []Option) *Options {
	for _, opt := range opts {
		opt.ApplyToBridge(o)
	}
	return o
}

type withLogger struct{ log logr.Logger }

func (w withLogger) ApplyToBridge(target *Options) { target.Log = &w.log }

// WithLogger registers the Logger the bridge reports through.
func WithLogger(log logr.Logger) Option { return withLogger{log} }

type withSink struct{ sink Sink }

func (w withSink) ApplyToBridge(target *Options) { target.Sinks = append(target.Sinks, w.sink) }

// WithSink registers a downstream Sink. May be given several times.
func WithSink(sink Sink) Option { return withSink{sink} }

type withRegistry struct{ registry *Registry }

func (w withRegistry) ApplyToBridge(target *Options) { target.Registry = w.registry }

// WithRegistry makes the bridge correlate spans in an existing
// registry instead of a fresh one.
func WithRegistry(registry *Registry) Option { return withRegistry{registry} }

// Bridge implements Observer on top of a Registry, a Timeline and a
// Sink. One Bridge handle serves one tracing timeline; use Fork for
// native sources that run spans on several threads.
type Bridge struct {
	registry *Registry
	timeline *Timeline
	sink     Sink
	log      logr.Logger
}

var _ Observer = &Bridge{}

// New creates a Bridge.
func New(opts ...Option) *Bridge {
	o := (&Options{}).applyOptions(opts)

	log := logr.Discard()
	if o.Log != nil {
		log = *o.Log
	}
	registry := o.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Bridge{
		registry: registry,
		timeline: NewTimeline(),
		sink:     MultiSink(o.Sinks...),
		log:      log,
	}
}

// Fork returns a handle for another logical native thread: it shares
// this bridge's registry, sink and logger, but has an independent
// current-span stack, so each thread keeps its own notion of the
// current span.
func (b *Bridge) Fork() *Bridge {
	return &Bridge{
		registry: b.registry,
		timeline: NewTimeline(),
		sink:     b.sink,
		log:      b.log,
	}
}

// Registry returns the registry this bridge correlates spans in.
func (b *Bridge) Registry() *Registry { return b.registry }

// Timeline returns this handle's current-span stack.
func (b *Bridge) Timeline() *Timeline { return b.timeline }

// Close flushes and closes the downstream sink. The bridge itself
// holds no other resources; any still-live spans are a native-layer
// bug (close is mandatory for every opened span) and are logged.
func (b *Bridge) Close(ctx context.Context) error {
	if leaked := b.registry.Len(); leaked != 0 {
		b.log.Info("closing bridge with live spans still registered", "count", leaked)
	}
	return b.sink.Close(ctx)
}

// OnNewSpan implements Observer. It decodes the attribute document,
// allocates a span whose parent is whatever span is current on this
// timeline, makes the new span current, and returns the Token later
// callbacks identify the span with. The parent is captured before the
// new span becomes current.
func (b *Bridge) OnNewSpan(nativeID NativeID, serializedAttrs []byte) (Token, error) {
	attrs, meta, err := decodeSpanPayload(serializedAttrs)
	if err != nil {
		return Token{}, b.fail(err, "decoding new-span attributes", "nativeID", nativeID)
	}

	parent := b.timeline.Current()
	span, err := b.registry.Allocate(nativeID, meta.name, meta.level, attrs, parent)
	if err != nil {
		return Token{}, b.fail(err, "allocating span", "nativeID", nativeID)
	}
	b.timeline.push(span)

	b.log.V(1).Info("span opened", "span", span.id, "nativeID", nativeID, "name", span.name)
	b.sink.SpanStarted(span.view())
	return Token{span: span, parent: parent}, nil
}

// OnRecord implements Observer. It merges the recorded values into the
// span the token resolves to. The nativeID is the native layer's echo
// and is not reinterpreted.
func (b *Bridge) OnRecord(nativeID NativeID, serializedValues []byte, tok Token) error {
	span, _, err := tok.resolve()
	if err != nil {
		return b.fail(err, "resolving span for record", "nativeID", nativeID)
	}
	values, err := decodeValuesPayload(serializedValues)
	if err != nil {
		return b.fail(err, "decoding recorded values", "span", span.id, "nativeID", nativeID)
	}
	if err := span.record(values); err != nil {
		return b.fail(err, "recording values", "span", span.id, "nativeID", nativeID)
	}
	b.sink.SpanRecorded(span.view(), values)
	return nil
}

// OnEvent implements Observer. It appends the event to the span the
// token resolves to, and forwards it with its severity so the sink's
// severity-to-action policy can be applied.
func (b *Bridge) OnEvent(serializedEvent []byte, tok Token) error {
	span, _, err := tok.resolve()
	if err != nil {
		return b.fail(err, "resolving span for event")
	}
	ev, err := decodeEventPayload(serializedEvent, time.Now())
	if err != nil {
		return b.fail(err, "decoding event", "span", span.id)
	}
	if err := span.appendEvent(ev); err != nil {
		return b.fail(err, "appending event", "span", span.id)
	}
	b.sink.EventEmitted(span.view(), ev)
	return nil
}

// OnClose implements Observer. The span must be the top of this
// timeline's stack; it is released from the registry, latched closed,
// and the stack is restored to its parent.
func (b *Bridge) OnClose(nativeID NativeID, tok Token) error {
	span, parent, err := tok.resolve()
	if err != nil {
		return b.fail(err, "resolving span for close", "nativeID", nativeID)
	}

	if cur := b.timeline.Current(); cur != span {
		var curID SpanID
		if cur != nil {
			curID = cur.id
		}
		return b.fail(ErrNotCurrent(span.id, curID), "closing span", "nativeID", nativeID)
	}

	released, err := b.registry.Release(span.id)
	if err != nil {
		return b.fail(err, "releasing span", "nativeID", nativeID)
	}
	released.close(time.Now())

	if err := b.timeline.popTo(span, parent); err != nil {
		return b.fail(err, "restoring current-span stack", "nativeID", nativeID)
	}

	b.log.V(1).Info("span closed", "span", span.id, "nativeID", nativeID)
	b.sink.SpanClosed(released.view())
	return nil
}

// fail reports a protocol error loudly before handing it back to the
// native layer. These are integration bugs; swallowing them would make
// them unobservable during development.
func (b *Bridge) fail(err error, msg string, keysAndValues ...interface{}) error {
	b.log.Error(err, "tracing bridge: "+msg, keysAndValues...)
	return err
}
