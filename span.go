package tracebridge

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// SpanID is the host-assigned span identifier: process-unique,
// monotonically increasing, never reused and never mutated. The zero
// value is not a valid identifier.
type SpanID uint64

// NativeID is the opaque identifier the native instrumentation source
// references a span by. The bridge stores and echoes it for
// correlation but never interprets it.
type NativeID string

// Event is one event emitted inside a span, in arrival order.
type Event struct {
	// Message is the human-readable event description.
	Message string
	// Level is the severity the native layer tagged the event with.
	Level Level
	// Time is when the bridge received the event.
	Time time.Time
	// Fields carries any structured values attached to the event
	// besides the message.
	Fields map[string]Value
}

// Span is one unit of traced work. The Registry exclusively owns all
// live Spans; everything handed to sinks is a copy (see SpanView).
//
// A Span's identity (ID, NativeID, Name, Level, Parent, StartTime) is
// immutable. Attribute and event mutation goes through the
// mutex-guarded accessors and becomes impossible once the span closes.
type Span struct {
	id       SpanID
	nativeID NativeID
	name     string
	level    Level
	parent   *Span
	start    time.Time

	mu     sync.Mutex
	attrs  map[string]Value
	events []Event
	end    time.Time
	closed bool
}

func newSpan(id SpanID, nativeID NativeID, name string, level Level, attrs map[string]Value, parent *Span, start time.Time) *Span {
	return &Span{
		id:       id,
		nativeID: nativeID,
		name:     name,
		level:    level,
		parent:   parent,
		start:    start,
		attrs:    copyValues(attrs),
	}
}

// ID returns the host-assigned span identifier.
func (s *Span) ID() SpanID { return s.id }

// NativeID returns the native-side identifier this span correlates to.
func (s *Span) NativeID() NativeID { return s.nativeID }

// Name returns the span name, as declared by the payload metadata.
// May be empty when the native layer declared none.
func (s *Span) Name() string { return s.name }

// Level returns the severity the span itself was created with.
func (s *Span) Level() Level { return s.level }

// Parent returns the span that was current when this span was
// created, or nil for a root span.
func (s *Span) Parent() *Span { return s.parent }

// StartTime returns when the span was created.
func (s *Span) StartTime() time.Time { return s.start }

// EndTime returns when the span closed, or the zero time while it is
// still live.
func (s *Span) EndTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.end
}

// Attributes returns a copy of the span's current attributes.
func (s *Span) Attributes() map[string]Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyValues(s.attrs)
}

// Events returns a copy of the span's events in arrival order.
func (s *Span) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyEvents(s.events)
}

// record merges values into the span's attributes, last write wins per
// key. Recording on a closed span reports the span as unknown; the
// registry mapping is gone by then and the bridge must not make
// post-close calls look like silent no-ops.
func (s *Span) record(values map[string]Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrUnknownSpan(s.id, s.nativeID)
	}
	if s.attrs == nil {
		s.attrs = make(map[string]Value, len(values))
	}
	for k, v := range values {
		s.attrs[k] = v
	}
	return nil
}

// appendEvent appends an event, preserving arrival order.
func (s *Span) appendEvent(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrUnknownSpan(s.id, s.nativeID)
	}
	s.events = append(s.events, ev)
	return nil
}

// close latches the span closed. Safe to call once only; the bridge
// guarantees that by releasing the span from the registry first.
func (s *Span) close(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.end = at
	s.closed = true
}

func (s *Span) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// String renders the span for diagnostics: identifier, event count and
// an attribute snapshot with keys in sorted order.
func (s *Span) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.name
	if name == "" {
		name = "<unnamed>"
	}
	keys := make([]string, 0, len(s.attrs))
	for k := range s.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Span(id=%d, native=%q, name=%s, events=%d", s.id, s.nativeID, name, len(s.events))
	for _, k := range keys {
		fmt.Fprintf(&sb, ", %s=%s", k, s.attrs[k])
	}
	sb.WriteByte(')')
	return sb.String()
}

// view snapshots the span for handing to a sink.
func (s *Span) view() SpanView {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parentID SpanID
	if s.parent != nil {
		parentID = s.parent.id
	}
	return SpanView{
		ID:         s.id,
		NativeID:   s.nativeID,
		Name:       s.name,
		Level:      s.level,
		ParentID:   parentID,
		Attributes: copyValues(s.attrs),
		Events:     copyEvents(s.events),
		StartTime:  s.start,
		EndTime:    s.end,
	}
}

// SpanView is an immutable snapshot of a span, taken whenever data is
// forwarded downstream. Sinks receive views, never the live Span.
type SpanView struct {
	ID         SpanID
	NativeID   NativeID
	Name       string
	Level      Level
	ParentID   SpanID
	Attributes map[string]Value
	Events     []Event
	StartTime  time.Time
	EndTime    time.Time
}

func copyEvents(events []Event) []Event {
	if events == nil {
		return nil
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out
}
