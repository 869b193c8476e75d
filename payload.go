package tracebridge

import (
	"encoding/json"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// The native layer serializes span attributes, recorded values and
// events as flat JSON documents. One key is reserved: "metadata" may
// hold a record describing the span or event itself, with the shape
//
//	{"name": ..., "target": ..., "level": "INFO", "fields": [...]}
//
// The bridge uses metadata.name as the span name, metadata.level as
// the severity, and metadata.fields (when declared) to filter which
// top-level keys are span fields. Everything else at the top level
// decodes into the attribute mapping.
//
// Value decoding keeps the closed union closed: numbers are parsed as
// int64 first so integers round-trip without float precision loss, and
// only fall back to float64; strings, booleans and nested maps map
// directly. Anything else (arrays, nulls) has no member in the union
// and fails decoding. All failures are *MalformedPayloadError.

//nolint:gochecknoglobals
var jsonAPI = jsoniter.Config{UseNumber: true}.Froze()

const metadataKey = "metadata"

type payloadMetadata struct {
	name   string
	target string
	level  Level
	fields []string
}

func errMalformed(format string, args ...interface{}) error {
	return &MalformedPayloadError{Underlying: fmt.Errorf(format, args...)}
}

func decodeDocument(data []byte) (map[string]interface{}, error) {
	doc := map[string]interface{}{}
	if err := jsonAPI.Unmarshal(data, &doc); err != nil {
		return nil, &MalformedPayloadError{Underlying: err}
	}
	return doc, nil
}

func decodeValue(v interface{}) (Value, error) {
	switch tv := v.(type) {
	case json.Number:
		if i, err := tv.Int64(); err == nil {
			return Int64Value(i), nil
		}
		f, err := tv.Float64()
		if err != nil {
			return Value{}, errMalformed("unparseable number %q", tv.String())
		}
		return Float64Value(f), nil
	case string:
		return StringValue(tv), nil
	case bool:
		return BoolValue(tv), nil
	case map[string]interface{}:
		m := make(map[string]Value, len(tv))
		for k, nested := range tv {
			val, err := decodeValue(nested)
			if err != nil {
				return Value{}, err
			}
			m[k] = val
		}
		return MapValue(m), nil
	}
	return Value{}, errMalformed("value of type %T has no representation in the attribute value union", v)
}

func decodeFields(doc map[string]interface{}) (map[string]Value, error) {
	if len(doc) == 0 {
		return nil, nil
	}
	attrs := make(map[string]Value, len(doc))
	for k, v := range doc {
		val, err := decodeValue(v)
		if err != nil {
			return nil, err
		}
		attrs[k] = val
	}
	return attrs, nil
}

func decodeMetadata(doc map[string]interface{}) (payloadMetadata, error) {
	meta := payloadMetadata{level: LevelInfo}
	raw, ok := doc[metadataKey]
	if !ok {
		return meta, nil
	}
	delete(doc, metadataKey)

	m, ok := raw.(map[string]interface{})
	if !ok {
		return meta, errMalformed("metadata must be a record, got %T", raw)
	}
	if name, ok := m["name"].(string); ok {
		meta.name = name
	}
	if target, ok := m["target"].(string); ok {
		meta.target = target
	}
	if levelStr, ok := m["level"].(string); ok {
		level, err := ParseLevel(levelStr)
		if err != nil {
			return meta, &MalformedPayloadError{Underlying: err}
		}
		meta.level = level
	}
	if rawFields, ok := m["fields"].([]interface{}); ok {
		for _, f := range rawFields {
			name, ok := f.(string)
			if !ok {
				return meta, errMalformed("metadata field names must be strings, got %T", f)
			}
			meta.fields = append(meta.fields, name)
		}
	}
	return meta, nil
}

// decodeSpanPayload parses an on-new-span attribute document: the
// metadata record plus the span's initial fields. When metadata
// declares a field list, only declared keys are kept as fields.
func decodeSpanPayload(data []byte) (map[string]Value, payloadMetadata, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, payloadMetadata{}, err
	}
	meta, err := decodeMetadata(doc)
	if err != nil {
		return nil, payloadMetadata{}, err
	}
	if len(meta.fields) != 0 {
		declared := make(map[string]struct{}, len(meta.fields))
		for _, f := range meta.fields {
			declared[f] = struct{}{}
		}
		for k := range doc {
			if _, ok := declared[k]; !ok {
				delete(doc, k)
			}
		}
	}
	attrs, err := decodeFields(doc)
	if err != nil {
		return nil, payloadMetadata{}, err
	}
	return attrs, meta, nil
}

// decodeValuesPayload parses an on-record values document: a flat
// record of recorded field values.
func decodeValuesPayload(data []byte) (map[string]Value, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	// A metadata record is tolerated but carries nothing for records.
	if _, err := decodeMetadata(doc); err != nil {
		return nil, err
	}
	return decodeFields(doc)
}

// decodeEventPayload parses an event document: the message, the
// severity from metadata, and any remaining structured fields.
func decodeEventPayload(data []byte, at time.Time) (Event, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return Event{}, err
	}
	ev := Event{Time: at}
	meta, err := decodeMetadata(doc)
	if err != nil {
		return Event{}, err
	}
	ev.Level = meta.level
	if message, ok := doc["message"].(string); ok {
		ev.Message = message
		delete(doc, "message")
	}
	fields, err := decodeFields(doc)
	if err != nil {
		return Event{}, err
	}
	ev.Fields = fields
	return ev, nil
}
