package tracebridge

// Token is the capability the bridge hands back from OnNewSpan. The
// native layer treats it as opaque and echoes it unchanged on every
// later callback for the same span; the bridge resolves it back to the
// (parent, span) pair without touching the registry, which keeps the
// hot record/event path free of map lookups. The native-identifier
// index stays reserved for initial correlation and double-open
// detection.
//
// A Token is only ever minted by the bridge that created the span.
// The zero Token is invalid and resolves to an unknown span.
type Token struct {
	span   *Span
	parent *Span
}

// resolve returns the (parent, span) pair, or *UnknownSpanError if the
// token is zero or its span has already closed. Post-close use must
// fail observably, never degrade to a no-op.
func (tok Token) resolve() (span, parent *Span, err error) {
	if tok.span == nil {
		return nil, nil, ErrUnknownSpan(0, "")
	}
	if tok.span.isClosed() {
		return nil, nil, ErrUnknownSpan(tok.span.id, tok.span.nativeID)
	}
	return tok.span, tok.parent, nil
}
