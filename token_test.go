package tracebridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenResolve(t *testing.T) {
	parent := newSpan(1, "p", "parent", LevelInfo, nil, nil, time.Now())
	span := newSpan(2, "c", "child", LevelInfo, nil, parent, time.Now())

	tok := Token{span: span, parent: parent}
	gotSpan, gotParent, err := tok.resolve()
	assert.Nil(t, err)
	assert.Equal(t, span, gotSpan)
	assert.Equal(t, parent, gotParent)
}

func TestTokenResolveZero(t *testing.T) {
	_, _, err := Token{}.resolve()
	assert.ErrorIs(t, err, &UnknownSpanError{})
}

func TestTokenResolveClosed(t *testing.T) {
	span := newSpan(1, "n", "s", LevelInfo, nil, nil, time.Now())
	tok := Token{span: span}

	span.close(time.Now())

	_, _, err := tok.resolve()
	assert.ErrorIs(t, err, &UnknownSpanError{})

	var unknown *UnknownSpanError
	assert.ErrorAs(t, err, &unknown)
	assert.Equal(t, SpanID(1), unknown.ID)
	assert.Equal(t, NativeID("n"), unknown.NativeID)
}
