package tracebridge

import (
	"sync"
	"sync/atomic"
	"time"
)

// Registry owns the mapping from host-assigned span identifiers to
// live spans. Identifiers are allocated monotonically from an atomic
// counter and never reused within the process lifetime.
//
// Safe for concurrent use: the registry mutex is held only for the
// duration of a single map operation, never across a callback body, so
// unrelated spans on different threads are not serialized against each
// other.
type Registry struct {
	mu       sync.Mutex
	spans    map[SpanID]*Span
	byNative map[NativeID]SpanID
	nextID   atomic.Uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		spans:    make(map[SpanID]*Span),
		byNative: make(map[NativeID]SpanID),
	}
}

// Allocate generates the next unused SpanID and inserts a new live
// span with the given attributes, linked to parent (the span that was
// current at creation time, or nil for a root).
//
// Each native identifier may map to at most one live span at a time; a
// second allocation for a still-live nativeID is rejected eagerly with
// a *DuplicateNativeIDError.
func (r *Registry) Allocate(nativeID NativeID, name string, level Level, attrs map[string]Value, parent *Span) (*Span, error) {
	id := SpanID(r.nextID.Add(1))
	span := newSpan(id, nativeID, name, level, attrs, parent, time.Now())

	r.mu.Lock()
	defer r.mu.Unlock()

	if live, ok := r.byNative[nativeID]; ok {
		return nil, ErrDuplicateNativeID(nativeID, live)
	}
	r.spans[id] = span
	r.byNative[nativeID] = id
	return span, nil
}

// Record merges values into the target span's attributes, last write
// wins per key. Fails with *UnknownSpanError if id is not live.
func (r *Registry) Record(id SpanID, values map[string]Value) error {
	span, ok := r.Lookup(id)
	if !ok {
		return ErrUnknownSpan(id, "")
	}
	return span.record(values)
}

// AppendEvent appends an event to the target span, preserving arrival
// order. Fails with *UnknownSpanError if id is not live.
func (r *Registry) AppendEvent(id SpanID, ev Event) error {
	span, ok := r.Lookup(id)
	if !ok {
		return ErrUnknownSpan(id, "")
	}
	return span.appendEvent(ev)
}

// Release removes the span from the registry and returns it. Fails
// with *UnknownSpanError if id is not live. The stack-top discipline
// for closing (spans may only close while current) is enforced by the
// Timeline before release; see Bridge.OnClose.
func (r *Registry) Release(id SpanID) (*Span, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	span, ok := r.spans[id]
	if !ok {
		return nil, ErrUnknownSpan(id, "")
	}
	delete(r.spans, id)
	delete(r.byNative, span.nativeID)
	return span, nil
}

// Lookup returns the live span for id, if any.
func (r *Registry) Lookup(id SpanID) (*Span, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span, ok := r.spans[id]
	return span, ok
}

// LookupNative returns the live span correlated to nativeID, if any.
// This index exists for initial correlation and double-open detection
// only; steady-state callbacks resolve spans through their Token.
func (r *Registry) LookupNative(nativeID NativeID) (*Span, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byNative[nativeID]
	if !ok {
		return nil, false
	}
	span, ok := r.spans[id]
	return span, ok
}

// Len returns the number of live spans.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spans)
}
