package tracebridge_test

import (
	"fmt"

	"github.com/luxas/tracebridge"
	"github.com/luxas/tracebridge/zaplog"
)

func Example() {
	b := tracebridge.New()

	tok, _ := b.OnNewSpan("1", []byte(`{
		"metadata": {"name": "fibonacci", "level": "INFO", "fields": ["index", "version"]},
		"index": 4
	}`))
	fmt.Println("current:", b.Timeline().Current().Name())

	_ = b.OnRecord("1", []byte(`{"version": "naive"}`), tok)
	fmt.Println(b.Timeline().Current())

	_ = b.OnClose("1", tok)
	fmt.Println("live spans:", b.Registry().Len())
	// Output:
	// current: fibonacci
	// Span(id=1, native="1", name=fibonacci, events=0, index=4, version="naive")
	// live spans: 0
}

func ExampleNewLogSink() {
	log := zaplog.NewZap().Example().Build()
	b := tracebridge.New(tracebridge.WithSink(tracebridge.NewLogSink(log)))

	tok, _ := b.OnNewSpan("1", []byte(`{
		"metadata": {"name": "greeter", "level": "INFO"},
		"who": "world"
	}`))
	_ = b.OnEvent([]byte(`{"message": "hello", "metadata": {"level": "INFO"}}`), tok)
	_ = b.OnClose("1", tok)
	// Output:
	// {"level":"info(v=0)","logger":"greeter","msg":"starting span","span-id":1,"native-id":"1","span-attr-who":"world"}
	// {"level":"info(v=0)","logger":"greeter","msg":"span event","span-id":1,"native-id":"1","span-event":"hello","span-level":"INFO"}
	// {"level":"info(v=0)","logger":"greeter","msg":"ending span","span-id":1,"native-id":"1","span-events":1}
}
