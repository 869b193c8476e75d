package tracebridge

import (
	"fmt"
	"sort"
	"strings"
)

// Kind describes which member of the Value union is set.
type Kind int8

const (
	// KindInvalid is the zero Kind; no member is set.
	KindInvalid Kind = iota
	// KindInt64 is an integer number.
	KindInt64
	// KindFloat64 is a floating-point number.
	KindFloat64
	// KindString is a string.
	KindString
	// KindBool is a boolean.
	KindBool
	// KindMap is a nested string-keyed mapping.
	KindMap
)

// Value is a closed tagged union over the types an attribute value can
// take: number (integer or floating-point), string, boolean, or a
// nested map. Keeping the union closed keeps deserialization and
// last-write-wins merge semantics well-defined regardless of what the
// native layer records.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	m    map[string]Value
}

// Int64Value returns a Value holding an integer number.
func Int64Value(v int64) Value { return Value{kind: KindInt64, i: v} }

// Float64Value returns a Value holding a floating-point number.
func Float64Value(v float64) Value { return Value{kind: KindFloat64, f: v} }

// StringValue returns a Value holding a string.
func StringValue(v string) Value { return Value{kind: KindString, s: v} }

// BoolValue returns a Value holding a boolean.
func BoolValue(v bool) Value { return Value{kind: KindBool, b: v} }

// MapValue returns a Value holding a nested map. The map is stored
// as-is; callers hand over ownership.
func MapValue(v map[string]Value) Value { return Value{kind: KindMap, m: v} }

// Kind returns which member of the union is set.
func (v Value) Kind() Kind { return v.kind }

// Int64 returns the integer member. Only valid for KindInt64.
func (v Value) Int64() int64 { return v.i }

// Float64 returns the floating-point member. Only valid for KindFloat64.
func (v Value) Float64() float64 { return v.f }

// Str returns the string member. Only valid for KindString.
func (v Value) Str() string { return v.s }

// Bool returns the boolean member. Only valid for KindBool.
func (v Value) Bool() bool { return v.b }

// Map returns a copy of the nested map member. Only valid for KindMap.
func (v Value) Map() map[string]Value {
	if v.m == nil {
		return nil
	}
	m := make(map[string]Value, len(v.m))
	for k, val := range v.m {
		m[k] = val
	}
	return m
}

// AsInterface unpacks the union into the corresponding plain Go value:
// int64, float64, string, bool, or map[string]interface{}. Useful for
// logging and serialization.
func (v Value) AsInterface() interface{} {
	switch v.kind {
	case KindInt64:
		return v.i
	case KindFloat64:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindMap:
		m := make(map[string]interface{}, len(v.m))
		for k, val := range v.m {
			m[k] = val.AsInterface()
		}
		return m
	}
	return nil
}

// String renders the value for diagnostics. Map keys are rendered in
// sorted order so the output is deterministic.
func (v Value) String() string {
	switch v.kind {
	case KindInt64:
		return fmt.Sprintf("%d", v.i)
	case KindFloat64:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range keys {
			if i != 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%s", k, v.m[k])
		}
		sb.WriteByte('}')
		return sb.String()
	}
	return "<invalid>"
}

func copyValues(values map[string]Value) map[string]Value {
	if values == nil {
		return nil
	}
	m := make(map[string]Value, len(values))
	for k, v := range values {
		m[k] = v
	}
	return m
}
