package tracebridge

import (
	"context"
	"sort"

	"github.com/go-logr/logr"
)

const (
	spanIDKey    = "span-id"
	nativeIDKey  = "native-id"
	spanEventKey = "span-event"
	levelKey     = "span-level"
	// SpanAttributePrefix is the prefix used when logging a span
	// attribute.
	SpanAttributePrefix = "span-attr-"
)

// LogSink is a Sink that logs the span lifecycle through logr. It is
// mainly useful for development and for the human-readable demo
// output; pair it with the zaplog builder for a structured backend.
type LogSink struct {
	log logr.Logger
}

var _ Sink = &LogSink{}

// NewLogSink creates a LogSink logging through log.
func NewLogSink(log logr.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) spanLog(view SpanView) logr.Logger {
	log := s.log
	if view.Name != "" {
		log = log.WithName(view.Name)
	}
	return log.WithValues(spanIDKey, uint64(view.ID), nativeIDKey, string(view.NativeID))
}

// SpanStarted implements Sink.
func (s *LogSink) SpanStarted(view SpanView) {
	s.spanLog(view).Info("starting span", attrsToLogKVs(view.Attributes)...)
}

// SpanRecorded implements Sink.
func (s *LogSink) SpanRecorded(view SpanView, values map[string]Value) {
	s.spanLog(view).Info("span attribute change", attrsToLogKVs(values)...)
}

// EventEmitted implements Sink.
func (s *LogSink) EventEmitted(view SpanView, ev Event) {
	s.spanLog(view).Info("span event",
		append([]interface{}{spanEventKey, ev.Message, levelKey, ev.Level.String()},
			attrsToLogKVs(ev.Fields)...)...)
}

// SpanClosed implements Sink.
func (s *LogSink) SpanClosed(view SpanView) {
	s.spanLog(view).Info("ending span", "span-events", len(view.Events))
}

// Close implements Sink.
func (s *LogSink) Close(context.Context) error { return nil }

func attrsToLogKVs(attrs map[string]Value) []interface{} {
	if len(attrs) == 0 {
		return nil
	}
	kvs := make([]interface{}, 0, len(attrs)*2)
	for _, k := range sortedKeys(attrs) {
		kvs = append(kvs, SpanAttributePrefix+k, attrs[k].AsInterface())
	}
	return kvs
}

func sortedKeys(attrs map[string]Value) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
