package fibdemo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luxas/tracebridge"
	"github.com/luxas/tracebridge/fibdemo"
)

func TestFibonacciValues(t *testing.T) {
	tests := []struct {
		index int
		want  int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{5, 8},
		{10, 89},
	}
	for _, tt := range tests {
		for _, memoized := range []bool{false, true} {
			b := tracebridge.New()
			got, err := fibdemo.New(b).Fibonacci(tt.index, memoized)
			assert.Nil(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 0, b.Registry().Len())
		}
	}
}

func TestFibonacciNaiveLimit(t *testing.T) {
	b := tracebridge.New()

	// The limit itself is fine.
	got, err := fibdemo.New(b).Fibonacci(fibdemo.NaiveLimit, false)
	assert.Nil(t, err)
	assert.Equal(t, 987, got)
	assert.Equal(t, 0, b.Registry().Len())
}

func TestFibonacciNaiveTooHigh(t *testing.T) {
	b := tracebridge.New()

	_, err := fibdemo.New(b).Fibonacci(fibdemo.NaiveLimit+1, false)
	assert.ErrorIs(t, err, fibdemo.ErrIndexTooHigh)

	// The failing call still closed its span; nothing may leak.
	assert.Equal(t, 0, b.Registry().Len())
	assert.Nil(t, b.Timeline().Current())
}

func TestFibonacciMemoizedBeyondLimit(t *testing.T) {
	b := tracebridge.New()

	got, err := fibdemo.New(b).Fibonacci(30, true)
	assert.Nil(t, err)
	assert.Equal(t, 1346269, got)
}

func TestFibonacciNegativeIndex(t *testing.T) {
	b := tracebridge.New()

	_, err := fibdemo.New(b).Fibonacci(-1, true)
	assert.NotNil(t, err)
	assert.Equal(t, 0, b.Registry().Len())
}

func TestFibonacciErrorEvent(t *testing.T) {
	sink := &capturingSink{}
	b := tracebridge.New(tracebridge.WithSink(sink))

	_, err := fibdemo.New(b).Fibonacci(20, false)
	assert.ErrorIs(t, err, fibdemo.ErrIndexTooHigh)

	assert.Len(t, sink.events, 1)
	assert.Equal(t, tracebridge.LevelError, sink.events[0].Level)
	assert.Contains(t, sink.events[0].Message, "too high an index: 20")
	assert.True(t, sink.closedRoot)
}

type capturingSink struct {
	tracebridge.NoopSink
	events     []tracebridge.Event
	closedRoot bool
}

func (c *capturingSink) EventEmitted(view tracebridge.SpanView, ev tracebridge.Event) {
	c.events = append(c.events, ev)
}

func (c *capturingSink) SpanClosed(view tracebridge.SpanView) {
	if view.ParentID == 0 {
		c.closedRoot = true
	}
}
