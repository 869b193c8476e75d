package tracebridge_test

import (
	"bytes"
	stdlog "log"
	"testing"

	"github.com/go-logr/stdr"
	"github.com/stretchr/testify/assert"

	"github.com/luxas/tracebridge"
	"github.com/luxas/tracebridge/zaplog"
)

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	log := zaplog.NewZap().LogTo(&buf).Example().Build()

	b := tracebridge.New(tracebridge.WithSink(tracebridge.NewLogSink(log)))

	tok, err := b.OnNewSpan("1", []byte(`{
		"metadata": {"name": "fibonacci", "level": "INFO", "fields": ["index"]},
		"index": 4
	}`))
	assert.Nil(t, err)
	assert.Nil(t, b.OnEvent([]byte(`{
		"message": "Warning: using the naive fibonacci generator",
		"metadata": {"level": "WARN"}
	}`), tok))
	assert.Nil(t, b.OnRecord("1", []byte(`{"version": "naive"}`), tok))
	assert.Nil(t, b.OnClose("1", tok))

	out := buf.String()
	assert.Contains(t, out, `"msg":"starting span"`)
	assert.Contains(t, out, `"logger":"fibonacci"`)
	assert.Contains(t, out, `"span-id":1`)
	assert.Contains(t, out, `"native-id":"1"`)
	assert.Contains(t, out, `"span-attr-index":4`)
	assert.Contains(t, out, `"msg":"span event"`)
	assert.Contains(t, out, `"span-event":"Warning: using the naive fibonacci generator"`)
	assert.Contains(t, out, `"span-level":"WARN"`)
	assert.Contains(t, out, `"msg":"span attribute change"`)
	assert.Contains(t, out, `"span-attr-version":"naive"`)
	assert.Contains(t, out, `"msg":"ending span"`)
	assert.Contains(t, out, `"span-events":1`)
}

func TestLogSinkUnnamedSpan(t *testing.T) {
	var buf bytes.Buffer
	log := zaplog.NewZap().LogTo(&buf).Example().Build()

	b := tracebridge.New(tracebridge.WithSink(tracebridge.NewLogSink(log)))

	tok, err := b.OnNewSpan("1", []byte(`{}`))
	assert.Nil(t, err)
	assert.Nil(t, b.OnClose("1", tok))

	// No span name means no logger name.
	assert.NotContains(t, buf.String(), `"logger"`)
}

func TestBridgeLogsProtocolErrors(t *testing.T) {
	var buf bytes.Buffer
	log := stdr.New(stdlog.New(&buf, "", 0))

	b := tracebridge.New(tracebridge.WithLogger(log))

	_, err := b.OnNewSpan("dup", []byte(`{}`))
	assert.Nil(t, err)
	_, err = b.OnNewSpan("dup", []byte(`{}`))
	assert.ErrorIs(t, err, &tracebridge.DuplicateNativeIDError{})

	out := buf.String()
	assert.Contains(t, out, "tracing bridge: allocating span")
	assert.Contains(t, out, "duplicate native span id")
}
