package annotator

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/phrazzld/dsh-elg/internal/orderedjson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Offset field names every record must carry.
const (
	FieldStart = "start"
	FieldEnd   = "end"
)

// Record is one annotation produced by an engine: integer start/end offsets
// plus an open set of named features, in the order the engine emitted them.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, any]()}
}

// NewSpan creates a record with the given offsets.
func NewSpan(start, end int) *Record {
	return NewRecord().Set(FieldStart, start).Set(FieldEnd, end)
}

// Set adds or replaces a field and returns the record for chaining.
// Replacing a field keeps its original position.
func (r *Record) Set(name string, value any) *Record {
	r.init()
	r.fields.Set(name, value)
	return r
}

// Get returns the value of a field.
func (r *Record) Get(name string) (any, bool) {
	if r == nil || r.fields == nil {
		return nil, false
	}
	return r.fields.Get(name)
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil || r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Each calls fn for every field in order.
func (r *Record) Each(fn func(name string, value any)) {
	if r == nil || r.fields == nil {
		return
	}
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Fields is an ordered set of named values that encodes as a JSON object
// in insertion order.
type Fields struct {
	*orderedmap.OrderedMap[string, any]
}

// MarshalJSON encodes the fields in order without HTML escaping.
func (f *Fields) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	return orderedjson.Marshal(f.OrderedMap)
}

// Features returns every field except the offsets, in record order.
func (r *Record) Features() *Fields {
	features := orderedmap.New[string, any]()
	r.Each(func(name string, value any) {
		if name != FieldStart && name != FieldEnd {
			features.Set(name, value)
		}
	})
	return &Fields{OrderedMap: features}
}

// Offsets returns the record's start and end offsets. Both must be
// non-negative integers with start <= end.
func (r *Record) Offsets() (start, end int, err error) {
	if start, err = r.intField(FieldStart); err != nil {
		return 0, 0, err
	}
	if end, err = r.intField(FieldEnd); err != nil {
		return 0, 0, err
	}
	if start < 0 || start > end {
		return 0, 0, fmt.Errorf("%w: invalid span [%d, %d)", ErrMalformedRecord, start, end)
	}
	return start, end, nil
}

func (r *Record) intField(name string) (int, error) {
	v, ok := r.Get(name)
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrMalformedRecord, name)
	}

	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %q is not an integer: %v", ErrMalformedRecord, name, n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer: %s", ErrMalformedRecord, name, n)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("%w: %q has type %T", ErrMalformedRecord, name, v)
	}
}

// MarshalJSON encodes the record as a JSON object in field order. String
// values are written verbatim, without HTML escaping.
func (r *Record) MarshalJSON() ([]byte, error) {
	r.init()
	return orderedjson.Marshal(r.fields)
}

// UnmarshalJSON decodes a JSON object, keeping its key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	r.fields = orderedmap.New[string, any]()
	return r.fields.UnmarshalJSON(data)
}

func (r *Record) init() {
	if r.fields == nil {
		r.fields = orderedmap.New[string, any]()
	}
}
