package tracebridge

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecodeSpanPayload(t *testing.T) {
	attrs, meta, err := decodeSpanPayload([]byte(`{
		"metadata": {
			"name": "fibonacci",
			"target": "fibdemo",
			"level": "INFO",
			"fields": ["index", "use_memoized", "version"]
		},
		"index": 4,
		"use_memoized": false
	}`))
	assert.Nil(t, err)
	assert.Equal(t, "fibonacci", meta.name)
	assert.Equal(t, "fibdemo", meta.target)
	assert.Equal(t, LevelInfo, meta.level)
	assert.Equal(t, []string{"index", "use_memoized", "version"}, meta.fields)
	assert.Equal(t, map[string]Value{
		"index":        Int64Value(4),
		"use_memoized": BoolValue(false),
	}, attrs)
}

func TestDecodeSpanPayloadFiltersUndeclaredFields(t *testing.T) {
	attrs, _, err := decodeSpanPayload([]byte(`{
		"metadata": {"name": "s", "fields": ["kept"]},
		"kept": "yes",
		"stray": "no"
	}`))
	assert.Nil(t, err)
	assert.Equal(t, map[string]Value{"kept": StringValue("yes")}, attrs)
}

func TestDecodeSpanPayloadDefaults(t *testing.T) {
	// No metadata at all: unnamed span at the default level.
	attrs, meta, err := decodeSpanPayload([]byte(`{"x": 1}`))
	assert.Nil(t, err)
	assert.Equal(t, "", meta.name)
	assert.Equal(t, LevelInfo, meta.level)
	assert.Equal(t, map[string]Value{"x": Int64Value(1)}, attrs)
}

func TestDecodeValueNumbers(t *testing.T) {
	// Integers must not round-trip through float64; this value is not
	// representable there.
	attrs, err := decodeValuesPayload([]byte(`{"big": 1000000000000000001, "pi": 3.5}`))
	assert.Nil(t, err)
	assert.Equal(t, Int64Value(1000000000000000001), attrs["big"])
	assert.Equal(t, Float64Value(3.5), attrs["pi"])
}

func TestDecodeNestedMap(t *testing.T) {
	attrs, err := decodeValuesPayload([]byte(`{"outer": {"inner": true}}`))
	assert.Nil(t, err)
	assert.Equal(t, MapValue(map[string]Value{"inner": BoolValue(true)}), attrs["outer"])
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid json", `{`},
		{"non-object", `[1, 2]`},
		{"array value", `{"a": [1, 2]}`},
		{"null value", `{"a": null}`},
		{"bad metadata", `{"metadata": "not a record"}`},
		{"bad metadata level", `{"metadata": {"level": "LOUD"}}`},
		{"bad metadata fields", `{"metadata": {"fields": [1]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeValuesPayload([]byte(tt.data))
			assert.ErrorIs(t, err, &MalformedPayloadError{})
		})
	}
}

func TestMalformedPayloadUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := &MalformedPayloadError{Underlying: cause}
	assert.ErrorIs(t, err, cause)
}

func TestDecodeEventPayload(t *testing.T) {
	at := time.Now()
	ev, err := decodeEventPayload([]byte(`{
		"message": "Base case: 1",
		"metadata": {"level": "TRACE", "target": "fibdemo"},
		"extra": 7
	}`), at)
	assert.Nil(t, err)
	assert.Equal(t, "Base case: 1", ev.Message)
	assert.Equal(t, LevelTrace, ev.Level)
	assert.Equal(t, at, ev.Time)
	assert.Equal(t, map[string]Value{"extra": Int64Value(7)}, ev.Fields)
}

func TestDecodeEventPayloadNoMetadata(t *testing.T) {
	ev, err := decodeEventPayload([]byte(`{"message": "hello"}`), time.Now())
	assert.Nil(t, err)
	assert.Equal(t, "hello", ev.Message)
	assert.Equal(t, LevelInfo, ev.Level)
	assert.Nil(t, ev.Fields)
}
