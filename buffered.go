package tracebridge

import (
	"context"
	"sync/atomic"
)

// DefaultBufferSize is the queue size Buffered uses when none is given.
const DefaultBufferSize = 256

type opKind int8

const (
	opStarted opKind = iota
	opRecorded
	opEvent
	opClosed
)

type sinkOp struct {
	kind   opKind
	view   SpanView
	values map[string]Value
	ev     Event
}

// BufferedSink decorates a Sink with a bounded queue drained by a
// background goroutine, making forwarding fire-and-forget: the
// native caller is never blocked beyond the local enqueue. When the
// queue is full the notification is dropped and counted instead of
// blocking; monitor Dropped to size the queue.
//
// Notifications for all spans share the one queue, so per-span
// ordering is preserved.
type BufferedSink struct {
	sink    Sink
	ops     chan sinkOp
	stopCh  chan struct{}
	done    chan struct{}
	dropped atomic.Uint64
	closed  atomic.Bool
}

var _ Sink = &BufferedSink{}

// Buffered wraps sink with a queue of the given size. A non-positive
// size means DefaultBufferSize.
func Buffered(sink Sink, queueSize int) *BufferedSink {
	if queueSize <= 0 {
		queueSize = DefaultBufferSize
	}
	b := &BufferedSink{
		sink:   sink,
		ops:    make(chan sinkOp, queueSize),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *BufferedSink) run() {
	defer close(b.done)

	for {
		select {
		case <-b.stopCh:
			// Drain what was enqueued before shutdown.
			for {
				select {
				case op := <-b.ops:
					b.dispatch(op)
				default:
					return
				}
			}
		case op := <-b.ops:
			b.dispatch(op)
		}
	}
}

func (b *BufferedSink) dispatch(op sinkOp) {
	switch op.kind {
	case opStarted:
		b.sink.SpanStarted(op.view)
	case opRecorded:
		b.sink.SpanRecorded(op.view, op.values)
	case opEvent:
		b.sink.EventEmitted(op.view, op.ev)
	case opClosed:
		b.sink.SpanClosed(op.view)
	}
}

func (b *BufferedSink) enqueue(op sinkOp) {
	if b.closed.Load() {
		b.dropped.Add(1)
		return
	}
	select {
	case b.ops <- op:
	default:
		// Queue full; dropping beats blocking the instrumented code.
		b.dropped.Add(1)
	}
}

// SpanStarted implements Sink.
func (b *BufferedSink) SpanStarted(view SpanView) {
	b.enqueue(sinkOp{kind: opStarted, view: view})
}

// SpanRecorded implements Sink.
func (b *BufferedSink) SpanRecorded(view SpanView, values map[string]Value) {
	b.enqueue(sinkOp{kind: opRecorded, view: view, values: values})
}

// EventEmitted implements Sink.
func (b *BufferedSink) EventEmitted(view SpanView, ev Event) {
	b.enqueue(sinkOp{kind: opEvent, view: view, ev: ev})
}

// SpanClosed implements Sink.
func (b *BufferedSink) SpanClosed(view SpanView) {
	b.enqueue(sinkOp{kind: opClosed, view: view})
}

// Dropped returns how many notifications were dropped because the
// queue was full or the sink already closed.
func (b *BufferedSink) Dropped() uint64 { return b.dropped.Load() }

// Close drains the queue, stops the background goroutine and closes
// the wrapped sink. Set a deadline on ctx to bound the drain.
func (b *BufferedSink) Close(ctx context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(b.stopCh)
	select {
	case <-b.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return b.sink.Close(ctx)
}
