// Package fibdemo is a stand-in for a native instrumentation source:
// a fibonacci engine whose naive and memoized generators emit the full
// span lifecycle callback stream (spans per call, debug/trace/info/
// warn/error events, a field recorded mid-span) against a
// tracebridge.Observer.
//
// The numeric toy exists only to generate realistic trace activity,
// including an error path: requesting the naive generator beyond
// NaiveLimit fails after emitting an error event, and the span still
// receives its close callback, which is exactly the guarantee the
// bridge is built around.
package fibdemo

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/go-logr/logr"
	jsoniter "github.com/json-iterator/go"

	"github.com/luxas/tracebridge"
)

// NaiveLimit is the largest index the naive generator accepts.
const NaiveLimit = 15

// ErrIndexTooHigh is returned when the naive generator is asked for an
// index above NaiveLimit.
var ErrIndexTooHigh = errors.New("index too high for naive fibonacci generator")

//nolint:gochecknoglobals
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Engine drives the instrumented fibonacci generators against an
// Observer.
type Engine struct {
	obs    tracebridge.Observer
	log    logr.Logger
	nextID atomic.Uint64
}

// New creates an Engine emitting callbacks to obs.
func New(obs tracebridge.Observer) *Engine {
	return &Engine{obs: obs, log: logr.Discard()}
}

// WithLogger makes the engine log callback errors through log.
// Callback errors indicate a bridge integration bug, not a fibonacci
// problem, so they are reported but never fail the computation.
func (e *Engine) WithLogger(log logr.Logger) *Engine {
	e.log = log
	return e
}

// Fibonacci computes the index-th fibonacci number (1-indexed from
// F(0)=F(1)=1), either via the memoized generator or the naive
// recursive one. The naive generator refuses indices above NaiveLimit
// with ErrIndexTooHigh after reporting the problem as an error event.
func (e *Engine) Fibonacci(index int, useMemoized bool) (result int, err error) {
	if index < 0 {
		return 0, fmt.Errorf("negative fibonacci index %d", index)
	}

	tok, nativeID, closeSpan := e.enterSpan("fibonacci", tracebridge.LevelInfo,
		[]string{"index", "use_memoized", "version"},
		map[string]interface{}{"index": index, "use_memoized": useMemoized})
	defer closeSpan()

	switch {
	case useMemoized:
		e.event(tok, tracebridge.LevelInfo, "Using memoized fibonacci generator")
		e.record(tok, nativeID, map[string]interface{}{"version": "memoized"})
		return e.memoized(index), nil
	case index <= NaiveLimit:
		e.event(tok, tracebridge.LevelWarn, "Warning: using the naive fibonacci generator")
		e.record(tok, nativeID, map[string]interface{}{"version": "naive"})
		return e.naive(index), nil
	default:
		e.event(tok, tracebridge.LevelError,
			fmt.Sprintf("Error: using the naive fibonacci generator with too high an index: %d", index))
		return 0, ErrIndexTooHigh
	}
}

func (e *Engine) naive(index int) int {
	tok, _, closeSpan := e.enterSpan("naive_fibonacci", tracebridge.LevelInfo,
		[]string{"index"}, map[string]interface{}{"index": index})
	defer closeSpan()

	e.event(tok, tracebridge.LevelDebug, fmt.Sprintf("Getting the %dth fibonacci number", index))
	if index == 0 || index == 1 {
		e.event(tok, tracebridge.LevelTrace, fmt.Sprintf("Base case: %d", index))
		return 1
	}
	e.event(tok, tracebridge.LevelTrace,
		fmt.Sprintf("Calling recursively to get sum of %d and %d", index-1, index-2))
	return e.naive(index-1) + e.naive(index-2)
}

func (e *Engine) memoized(index int) int {
	tok, _, closeSpan := e.enterSpan("memoized_fibonacci", tracebridge.LevelInfo,
		[]string{"index"}, map[string]interface{}{"index": index})
	defer closeSpan()

	e.event(tok, tracebridge.LevelDebug, fmt.Sprintf("Getting the %dth fibonacci number", index))
	if index == 0 || index == 1 {
		e.event(tok, tracebridge.LevelTrace, fmt.Sprintf("Base case: %d", index))
		return 1
	}
	memo := make([]int, 0, index+1)
	memo = append(memo, 1, 1)
	for i := 2; i <= index; i++ {
		e.event(tok, tracebridge.LevelTrace,
			fmt.Sprintf("Memoizing %d by adding %d and %d", i, i-1, i-2))
		memo = append(memo, memo[i-1]+memo[i-2])
	}
	return memo[index]
}

// enterSpan opens a span and returns its token plus the close function
// the caller must defer; close runs on every exit path, so even a
// failing computation never leaks a span.
func (e *Engine) enterSpan(name string, level tracebridge.Level, declaredFields []string, fields map[string]interface{}) (tracebridge.Token, tracebridge.NativeID, func()) {
	nativeID := tracebridge.NativeID(strconv.FormatUint(e.nextID.Add(1), 10))

	doc := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	doc["metadata"] = map[string]interface{}{
		"name":   name,
		"target": "fibdemo",
		"level":  level.String(),
		"fields": declaredFields,
	}

	tok, err := e.obs.OnNewSpan(nativeID, e.marshal(doc))
	if err != nil {
		e.log.Error(err, "opening span", "name", name, "nativeID", nativeID)
	}
	return tok, nativeID, func() {
		if err := e.obs.OnClose(nativeID, tok); err != nil {
			e.log.Error(err, "closing span", "name", name, "nativeID", nativeID)
		}
	}
}

func (e *Engine) record(tok tracebridge.Token, nativeID tracebridge.NativeID, values map[string]interface{}) {
	if err := e.obs.OnRecord(nativeID, e.marshal(values), tok); err != nil {
		e.log.Error(err, "recording values", "nativeID", nativeID)
	}
}

func (e *Engine) event(tok tracebridge.Token, level tracebridge.Level, message string) {
	doc := map[string]interface{}{
		"message":  message,
		"metadata": map[string]interface{}{"level": level.String(), "target": "fibdemo"},
	}
	if err := e.obs.OnEvent(e.marshal(doc), tok); err != nil {
		e.log.Error(err, "emitting event")
	}
}

func (e *Engine) marshal(doc map[string]interface{}) []byte {
	out, err := jsonAPI.Marshal(doc)
	if err != nil {
		// The documents above are always marshalable.
		panic(err)
	}
	return out
}
