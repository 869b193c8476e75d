/*
Package tracebridge connects a native instrumentation source emitting
span lifecycle callbacks to an arbitrary host-side sink.

The native layer raises four callbacks per span: one when a span is
created, any number of field recordings and events while it is active,
and exactly one when it closes. Spans are referenced by an opaque
native identifier; the bridge keeps its own Span objects, correlates
them against the native identifiers, tracks the current span per
logical thread of execution, and restores exact parent/child nesting
when spans close.

The moving parts are:

  - Registry: owns all live spans, keyed by host-assigned SpanIDs that
    increase monotonically and are never reused. A secondary index by
    native identifier exists only for initial correlation and to
    reject a double-open of the same native identifier.
  - Span: one unit of traced work, with attributes (a closed value
    union; see Value), an ordered event list, and a parent reference.
  - Timeline: the current-span stack for one logical thread. Pushing a
    new span captures the previous top as its parent; closing a span
    restores that parent, and mismatches are reported rather than
    repaired.
  - Bridge: the callback surface itself, implementing Observer. On
    span creation it hands back an opaque Token; the native layer
    echoes the token on every later callback for the same span, which
    lets the bridge resolve the (parent, span) pair without a registry
    lookup on the hot path.

Payloads arrive as flat JSON documents (see payload.go for the exact
rules, including the reserved "metadata" record carrying the span name
and severity). Decoding failures, unknown or already-closed spans,
duplicate native identifiers, and nesting violations are all protocol
errors between the native layer and the bridge; they are returned and
logged loudly, never swallowed, so integration bugs get caught during
development.

Downstream consumers implement Sink and receive copies of span data,
never ownership. NoopSink satisfies the contract trivially; LogSink
logs lifecycle through logr; the otelsink and sentrysink subpackages
forward to OpenTelemetry and Sentry respectively. Wrap any sink in
Buffered to make forwarding fire-and-forget so that a slow sink can
never block the native layer's instrumentation path.

A Bridge and its default Timeline assume the native layer serializes
the callbacks of a single tracing timeline. When the native source
runs spans on several threads, give each thread its own handle using
Bridge.Fork; forks share the registry and sink but keep independent
current-span stacks.
*/
package tracebridge
