// Package orderedjson encodes ordered maps as JSON objects in insertion order
// without HTML escaping. Ordered maps nested directly as values are encoded
// the same way; the map's own MarshalJSON escapes "<", ">" and "&".
package orderedjson

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Marshal encodes m as a JSON object. A nil map encodes as null.
func Marshal[V any](m *orderedmap.OrderedMap[string, V]) ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		if pair != m.Oldest() {
			buf.WriteByte(',')
		}
		if err := encode(enc, &buf, pair.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if nested, ok := any(pair.Value).(*orderedmap.OrderedMap[string, any]); ok {
			b, err := Marshal(nested)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
			continue
		}
		if err := encode(enc, &buf, pair.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// encode writes v through enc and drops the newline Encode appends.
func encode(enc *json.Encoder, buf *bytes.Buffer, v any) error {
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}
