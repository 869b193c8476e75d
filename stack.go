package tracebridge

import (
	"sync"
)

// Timeline tracks the current span for one logical thread of
// execution. Read top-to-bottom through the parent chain of the
// current span, it always equals the stack of entered, not-yet-closed
// spans: discipline is strictly nested, and a span may only close
// while it is the top.
//
// A Timeline assumes one thread of control is active through it at a
// time; the mutex exists so that Current can be read safely from other
// goroutines (sinks, diagnostics), not to make interleaved push/pop
// from several threads meaningful. Multi-threaded native sources get
// one Timeline per thread via Bridge.Fork.
type Timeline struct {
	mu      sync.Mutex
	current *Span
}

// NewTimeline creates a timeline with no current span.
func NewTimeline() *Timeline { return &Timeline{} }

// Current returns the currently-active span, or nil.
func (t *Timeline) Current() *Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// push makes span current and returns the previous top. The caller
// captures the previous top as the new span's parent BEFORE pushing;
// creation and push are coupled that way (see Bridge.OnNewSpan).
func (t *Timeline) push(span *Span) *Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.current
	t.current = span
	return prev
}

// popTo restores parent as the current span when closing span. It
// verifies that the popped element actually is the span being closed;
// a mismatch means the externally-driven callback sequence violated
// the nesting assumption, and is reported as *StackCorruptionError
// rather than repaired.
func (t *Timeline) popTo(closing, parent *Span) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != closing {
		var found SpanID
		if t.current != nil {
			found = t.current.id
		}
		return ErrStackCorruption(closing.id, found)
	}
	t.current = parent
	return nil
}
