package otelsink

import (
	"context"
	"io"
	"math/rand"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
)

// Provider returns a new *ProviderBuilder instance.
func Provider() *ProviderBuilder {
	return &ProviderBuilder{}
}

// ProviderBuilder is an opinionated builder-pattern constructor for an
// SDK TracerProvider suitable for backing a Sink. It knows how to
// export pretty-printed spans to a writer and how to produce
// deterministic output for unit tests; anything else (OTLP, Jaeger,
// sampling policy) is the caller's business via WithOptions.
type ProviderBuilder struct {
	exporters []tracesdk.SpanExporter
	errs      []error
	tpOpts    []tracesdk.TracerProviderOption
	attrs     []attribute.KeyValue
	sync      bool
}

// WithStdoutExporter exports pretty-formatted telemetry data to os.Stdout, or
// another writer if stdouttrace.WithWriter(w) is supplied as an option.
func (b *ProviderBuilder) WithStdoutExporter(opts ...stdouttrace.Option) *ProviderBuilder {
	defaultOpts := []stdouttrace.Option{
		stdouttrace.WithPrettyPrint(),
	}
	// Make sure to order the defaultOpts first, so opts can override the default ones
	opts = append(defaultOpts, opts...)
	exp, err := stdouttrace.New(opts...)
	b.exporters = append(b.exporters, exp)
	b.errs = append(b.errs, err)
	return b
}

// WithOptions allows configuring the TracerProvider in various ways, for
// example tracesdk.WithSpanProcessor(sp) or tracesdk.WithSampler(s).
func (b *ProviderBuilder) WithOptions(opts ...tracesdk.TracerProviderOption) *ProviderBuilder {
	b.tpOpts = append(b.tpOpts, opts...)
	return b
}

// WithAttributes allows registering more default attributes for traces
// created by this TracerProvider. By default "service.name" => "tracebridge".
func (b *ProviderBuilder) WithAttributes(attrs ...attribute.KeyValue) *ProviderBuilder {
	b.attrs = append(b.attrs, attrs...)
	return b
}

// Synchronous makes the exporters export synchronously, which is useful
// for avoiding flakes in unit tests. The default mode is batching.
// DO NOT use in production.
func (b *ProviderBuilder) Synchronous() *ProviderBuilder {
	b.sync = true
	return b
}

// DeterministicIDs enables deterministic trace and span IDs. Useful for
// unit tests. DO NOT use in production.
func (b *ProviderBuilder) DeterministicIDs(seed int64) *ProviderBuilder {
	return b.WithOptions(tracesdk.WithIDGenerator(deterministicWithSeed(seed)))
}

// Build builds the SDK TracerProvider.
func (b *ProviderBuilder) Build() (*tracesdk.TracerProvider, error) {
	// Default to discard all trace output, if no exporter is configured
	if len(b.exporters) == 0 {
		b = b.WithStdoutExporter(stdouttrace.WithWriter(io.Discard))
	}
	// Combine and filter the errors from the exporter building
	if err := multierr.Combine(b.errs...); err != nil {
		return nil, err
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String("tracebridge"),
	}
	// Make sure to order the default attrs first, so b.attrs can override the default ones
	attrs = append(attrs, b.attrs...)

	tpOpts := []tracesdk.TracerProviderOption{
		tracesdk.WithResource(resource.NewWithAttributes(semconv.SchemaURL, attrs...)),
	}

	for _, exporter := range b.exporters {
		// The syncing mode shall only be used in testing. The batching mode must be used in production.
		if b.sync {
			tpOpts = append(tpOpts, tracesdk.WithSyncer(exporter))
			continue
		}
		tpOpts = append(tpOpts, tracesdk.WithBatcher(exporter))
	}

	// Make sure to order the default tpOpts first, so b.tpOpts can override the default ones
	tpOpts = append(tpOpts, b.tpOpts...)
	return tracesdk.NewTracerProvider(tpOpts...), nil
}

type deterministicIDGenerator struct {
	mu  *sync.Mutex
	rnd *rand.Rand
}

func (g *deterministicIDGenerator) NewSpanID(context.Context, trace.TraceID) trace.SpanID {
	g.mu.Lock()
	defer g.mu.Unlock()
	sid := trace.SpanID{}
	_, _ = g.rnd.Read(sid[:])
	return sid
}

func (g *deterministicIDGenerator) NewIDs(context.Context) (trace.TraceID, trace.SpanID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	tid := trace.TraceID{}
	_, _ = g.rnd.Read(tid[:])
	sid := trace.SpanID{}
	_, _ = g.rnd.Read(sid[:])
	return tid, sid
}

func deterministicWithSeed(seed int64) tracesdk.IDGenerator {
	return &deterministicIDGenerator{
		mu: &sync.Mutex{},
		// Use the "weak" random number generator math/rand, not the more secure
		// crypto/rand because we specifically don't want secure randomness but
		// deterministicness for unit tests.
		//nolint:gosec
		rnd: rand.New(rand.NewSource(seed)),
	}
}
