// Package spanyaml provides a means to unit test a bridged trace flow,
// using a YAML file structure that is representative and as close to
// human-readable as it gets.
//
// It implements the bridge's Sink interface: every span tree is
// gathered into a SpanInfo structure while its spans are live, and the
// moment the root span closes the whole tree is marshalled into YAML
// and written out as one list item. Together with the filetest package
// this gives "golden file" tests over everything a native source
// emitted.
package spanyaml

import (
	"context"
	"io"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/yaml"

	"github.com/luxas/tracebridge"
)

// SpanInfo captures the name, severity, attributes, events and
// children registered to one span, in the order they arrived. JSON
// tags exist so that it can be marshalled to JSON and/or YAML easily;
// map keys come out sorted, which keeps the output deterministic.
type SpanInfo struct {
	Name       string                 `json:"name,omitempty"`
	Level      string                 `json:"level,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Events     []EventInfo            `json:"events,omitempty"`
	Children   []*SpanInfo            `json:"children,omitempty"`
}

// EventInfo represents one event emitted inside a span.
type EventInfo struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

type openSpan struct {
	info *SpanInfo
	root bool
}

// Sink captures bridged span trees and writes each completed tree to w
// as YAML. Writer w can optionally implement the zapcore.WriteSyncer
// interface; if so it'll be used.
type Sink struct {
	ws zapcore.WriteSyncer

	mu   sync.Mutex
	open map[tracebridge.SpanID]openSpan
	errs []error
}

var _ tracebridge.Sink = &Sink{}

// New creates a Sink writing YAML span trees to w.
func New(w io.Writer) *Sink {
	return &Sink{
		ws:   zapcore.Lock(zapcore.AddSync(w)),
		open: make(map[tracebridge.SpanID]openSpan),
	}
}

// SpanStarted implements tracebridge.Sink.
func (s *Sink) SpanStarted(view tracebridge.SpanView) {
	info := &SpanInfo{
		Name:       view.Name,
		Level:      view.Level.String(),
		Attributes: attrsToInterfaces(view.Attributes),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, hasParent := s.open[view.ParentID]
	if hasParent {
		parent.info.Children = append(parent.info.Children, info)
	}
	s.open[view.ID] = openSpan{info: info, root: !hasParent}
}

// SpanRecorded implements tracebridge.Sink.
func (s *Sink) SpanRecorded(view tracebridge.SpanView, values map[string]tracebridge.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.open[view.ID]
	if !ok {
		return
	}
	if entry.info.Attributes == nil {
		entry.info.Attributes = make(map[string]interface{}, len(values))
	}
	for k, v := range values {
		entry.info.Attributes[k] = v.AsInterface()
	}
}

// EventEmitted implements tracebridge.Sink.
func (s *Sink) EventEmitted(view tracebridge.SpanView, ev tracebridge.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.open[view.ID]
	if !ok {
		return
	}
	entry.info.Events = append(entry.info.Events, EventInfo{
		Message: ev.Message,
		Level:   ev.Level.String(),
	})
}

// SpanClosed implements tracebridge.Sink. Closing a root span flushes
// its whole tree as one YAML list item.
func (s *Sink) SpanClosed(view tracebridge.SpanView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.open[view.ID]
	if !ok {
		return
	}
	delete(s.open, view.ID)
	if !entry.root {
		return
	}

	out, err := yaml.Marshal([]*SpanInfo{entry.info})
	if err == nil {
		_, err = s.ws.Write(out)
	}
	if err != nil {
		s.errs = append(s.errs, err)
	}
}

// Close implements tracebridge.Sink; it syncs the writer and reports
// any marshal/write error encountered along the way.
func (s *Sink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return multierr.Append(multierr.Combine(s.errs...), s.ws.Sync())
}

func attrsToInterfaces(attrs map[string]tracebridge.Value) map[string]interface{} {
	if len(attrs) == 0 {
		return nil
	}
	m := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		m[k] = v.AsInterface()
	}
	return m
}
