package tracebridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueKinds(t *testing.T) {
	assert.Equal(t, KindInvalid, Value{}.Kind())
	assert.Equal(t, KindInt64, Int64Value(42).Kind())
	assert.Equal(t, KindFloat64, Float64Value(1.5).Kind())
	assert.Equal(t, KindString, StringValue("foo").Kind())
	assert.Equal(t, KindBool, BoolValue(true).Kind())
	assert.Equal(t, KindMap, MapValue(nil).Kind())
}

func TestValueAsInterface(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want interface{}
	}{
		{"invalid", Value{}, nil},
		{"int", Int64Value(-7), int64(-7)},
		{"float", Float64Value(2.25), 2.25},
		{"string", StringValue("bar"), "bar"},
		{"bool", BoolValue(false), false},
		{"map", MapValue(map[string]Value{"a": Int64Value(1)}), map[string]interface{}{"a": int64(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.AsInterface())
		})
	}
}

func TestValueString(t *testing.T) {
	v := MapValue(map[string]Value{
		"b": BoolValue(true),
		"a": StringValue("x"),
		"c": Int64Value(3),
	})
	// Keys must come out sorted.
	assert.Equal(t, `{a="x", b=true, c=3}`, v.String())
	assert.Equal(t, "<invalid>", Value{}.String())
}

func TestValueMapCopies(t *testing.T) {
	inner := map[string]Value{"a": Int64Value(1)}
	v := MapValue(inner)

	got := v.Map()
	got["b"] = Int64Value(2)
	assert.Len(t, v.Map(), 1)
}
