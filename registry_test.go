package tracebridge

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistryAllocateIDs(t *testing.T) {
	r := NewRegistry()

	var prev SpanID
	for i := 0; i < 10; i++ {
		span, err := r.Allocate(NativeID(fmt.Sprintf("native-%d", i)), "s", LevelInfo, nil, nil)
		assert.Nil(t, err)
		assert.Greater(t, span.ID(), prev)
		prev = span.ID()
	}
	assert.Equal(t, 10, r.Len())
}

func TestRegistryIDsNeverReused(t *testing.T) {
	r := NewRegistry()

	first, err := r.Allocate("a", "s", LevelInfo, nil, nil)
	assert.Nil(t, err)
	_, err = r.Release(first.ID())
	assert.Nil(t, err)

	second, err := r.Allocate("a", "s", LevelInfo, nil, nil)
	assert.Nil(t, err)
	assert.Greater(t, second.ID(), first.ID())
}

func TestRegistryDuplicateNativeID(t *testing.T) {
	r := NewRegistry()

	first, err := r.Allocate("dup", "first", LevelInfo, nil, nil)
	assert.Nil(t, err)

	_, err = r.Allocate("dup", "second", LevelInfo, nil, nil)
	assert.ErrorIs(t, err, &DuplicateNativeIDError{})

	// The original mapping must be untouched.
	got, ok := r.LookupNative("dup")
	assert.True(t, ok)
	assert.Equal(t, first.ID(), got.ID())
	assert.Equal(t, 1, r.Len())
}

func TestRegistryNativeIDReusableAfterRelease(t *testing.T) {
	r := NewRegistry()

	first, err := r.Allocate("reused", "s", LevelInfo, nil, nil)
	assert.Nil(t, err)
	_, err = r.Release(first.ID())
	assert.Nil(t, err)

	second, err := r.Allocate("reused", "s", LevelInfo, nil, nil)
	assert.Nil(t, err)

	got, ok := r.LookupNative("reused")
	assert.True(t, ok)
	assert.Equal(t, second.ID(), got.ID())
}

func TestRegistryRecordMerges(t *testing.T) {
	r := NewRegistry()

	span, err := r.Allocate("n", "s", LevelInfo, map[string]Value{
		"index":   Int64Value(4),
		"version": StringValue("unset"),
	}, nil)
	assert.Nil(t, err)

	assert.Nil(t, r.Record(span.ID(), map[string]Value{
		"version": StringValue("memoized"),
		"extra":   BoolValue(true),
	}))

	assert.Equal(t, map[string]Value{
		"index":   Int64Value(4),
		"version": StringValue("memoized"),
		"extra":   BoolValue(true),
	}, span.Attributes())
}

func TestRegistryAppendEventOrder(t *testing.T) {
	r := NewRegistry()

	span, err := r.Allocate("n", "s", LevelInfo, nil, nil)
	assert.Nil(t, err)

	for i := 0; i < 5; i++ {
		assert.Nil(t, r.AppendEvent(span.ID(), Event{Message: fmt.Sprintf("event %d", i)}))
	}
	events := span.Events()
	assert.Len(t, events, 5)
	for i, ev := range events {
		assert.Equal(t, fmt.Sprintf("event %d", i), ev.Message)
	}
}

func TestRegistryUnknownSpan(t *testing.T) {
	r := NewRegistry()

	assert.ErrorIs(t, r.Record(42, nil), &UnknownSpanError{})
	assert.ErrorIs(t, r.AppendEvent(42, Event{}), &UnknownSpanError{})
	_, err := r.Release(42)
	assert.ErrorIs(t, err, &UnknownSpanError{})

	_, ok := r.Lookup(42)
	assert.False(t, ok)
}

func TestRegistryReleaseRemovesBothIndexes(t *testing.T) {
	r := NewRegistry()

	span, err := r.Allocate("n", "s", LevelInfo, nil, nil)
	assert.Nil(t, err)

	released, err := r.Release(span.ID())
	assert.Nil(t, err)
	assert.Equal(t, span.ID(), released.ID())

	_, ok := r.Lookup(span.ID())
	assert.False(t, ok)
	_, ok = r.LookupNative("n")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryConcurrentAllocate(t *testing.T) {
	r := NewRegistry()

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	ids := make([][]SpanID, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				span, err := r.Allocate(NativeID(fmt.Sprintf("w%d-%d", w, i)), "s", LevelInfo, nil, nil)
				assert.Nil(t, err)
				ids[w] = append(ids[w], span.ID())
			}
		}(w)
	}
	wg.Wait()

	// All identifiers are process-unique.
	seen := map[SpanID]struct{}{}
	for _, workerIDs := range ids {
		for _, id := range workerIDs {
			_, dup := seen[id]
			assert.False(t, dup)
			seen[id] = struct{}{}
		}
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestSpanClosedRejectsMutation(t *testing.T) {
	span := newSpan(1, "n", "s", LevelInfo, nil, nil, time.Now())
	span.close(time.Now())

	assert.ErrorIs(t, span.record(map[string]Value{"a": Int64Value(1)}), &UnknownSpanError{})
	assert.ErrorIs(t, span.appendEvent(Event{Message: "late"}), &UnknownSpanError{})
}
