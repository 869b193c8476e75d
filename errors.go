package tracebridge

import (
	"fmt"
)

// The error kinds below describe protocol violations between the
// native instrumentation source and the bridge. None of them occur in
// correct operation; the bridge surfaces them without attempting
// repair.
//
// All of them can be matched by kind using errors.Is with an empty
// target, e.g. errors.Is(err, &UnknownSpanError{}).

// ErrUnknownSpan creates a new *UnknownSpanError.
func ErrUnknownSpan(id SpanID, nativeID NativeID) *UnknownSpanError {
	return &UnknownSpanError{ID: id, NativeID: nativeID}
}

// UnknownSpanError describes that a callback referenced a span that is
// not currently live; either it was never created, or it has already
// closed.
type UnknownSpanError struct {
	// ID is the host-assigned identifier the callback referenced.
	// Zero if the callback never resolved to a host span at all.
	ID SpanID
	// NativeID is the native-side identifier, if one was supplied.
	NativeID NativeID
}

func (e *UnknownSpanError) Error() string {
	if e.NativeID != "" {
		return fmt.Sprintf("unknown span: id=%d native=%q", e.ID, e.NativeID)
	}
	return fmt.Sprintf("unknown span: id=%d", e.ID)
}

func (e *UnknownSpanError) Is(target error) bool {
	//nolint:errorlint
	_, ok := target.(*UnknownSpanError)
	return ok
}

// ErrDuplicateNativeID creates a new *DuplicateNativeIDError.
func ErrDuplicateNativeID(nativeID NativeID, live SpanID) *DuplicateNativeIDError {
	return &DuplicateNativeIDError{NativeID: nativeID, Live: live}
}

// DuplicateNativeIDError describes that span creation was attempted
// for a native identifier that already maps to a live span. The
// earlier span is never evicted.
type DuplicateNativeIDError struct {
	// NativeID is the offending native identifier.
	NativeID NativeID
	// Live is the span currently holding the mapping.
	Live SpanID
}

func (e *DuplicateNativeIDError) Error() string {
	return fmt.Sprintf("duplicate native span id %q: already mapped to live span %d", e.NativeID, e.Live)
}

func (e *DuplicateNativeIDError) Is(target error) bool {
	//nolint:errorlint
	_, ok := target.(*DuplicateNativeIDError)
	return ok
}

// ErrNotCurrent creates a new *NotCurrentError.
func ErrNotCurrent(id, current SpanID) *NotCurrentError {
	return &NotCurrentError{ID: id, Current: current}
}

// NotCurrentError describes that a close was attempted on a span that
// is not the top of its timeline's current-span stack. Spans must
// close in strict LIFO order.
type NotCurrentError struct {
	// ID is the span the close was attempted on.
	ID SpanID
	// Current is the span actually at the top of the stack.
	// Zero if the stack was empty.
	Current SpanID
}

func (e *NotCurrentError) Error() string {
	return fmt.Sprintf("span %d is not current: top of stack is %d", e.ID, e.Current)
}

func (e *NotCurrentError) Is(target error) bool {
	//nolint:errorlint
	_, ok := target.(*NotCurrentError)
	return ok
}

// ErrStackCorruption creates a new *StackCorruptionError.
func ErrStackCorruption(expected, found SpanID) *StackCorruptionError {
	return &StackCorruptionError{Expected: expected, Found: found}
}

// StackCorruptionError describes that restoring the current-span stack
// at close time popped a span other than the one being closed. This
// indicates a violated nesting assumption in the callback sequence; in
// a well-behaved native source it never triggers.
type StackCorruptionError struct {
	// Expected is the span that was being closed.
	Expected SpanID
	// Found is the span that was at the top of the stack instead.
	// Zero if the stack was empty.
	Found SpanID
}

func (e *StackCorruptionError) Error() string {
	return fmt.Sprintf("current-span stack corrupted: expected span %d at the top, found %d", e.Expected, e.Found)
}

func (e *StackCorruptionError) Is(target error) bool {
	//nolint:errorlint
	_, ok := target.(*StackCorruptionError)
	return ok
}

// MalformedPayloadError describes that a serialized attribute, value or
// event document from the native layer could not be decoded.
type MalformedPayloadError struct {
	// Underlying carries the decode error cause, if any.
	Underlying error
}

func (e *MalformedPayloadError) Error() string {
	msg := "malformed payload"
	if e.Underlying != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Underlying)
	}
	return msg
}

func (e *MalformedPayloadError) Is(target error) bool {
	//nolint:errorlint
	_, ok := target.(*MalformedPayloadError)
	return ok
}

func (e *MalformedPayloadError) Unwrap() error { return e.Underlying }
