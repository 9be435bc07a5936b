package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnsupportedFieldValue is returned when a field value has a Go type the
// field codec cannot persist.
var ErrUnsupportedFieldValue = errors.New("unsupported field value")

// Fields is a candidate or stored key-value set of a record.
//
// Values are limited to nil, string, bool, int64 (and smaller ints), float64,
// time.Time, Ref, []Ref, []any and map[string]any. A json.Number is stored as
// int64 when integral and float64 otherwise. Fields marshals every value
// with a one-letter type tag so the Go type survives a round trip through
// storage: a time stays a time.Time and a related record stays a Ref.
type Fields map[string]any

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Has reports whether key is present, even if its value is nil.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

type taggedValue struct {
	S  *string                 `json:"s,omitempty"`
	B  *bool                   `json:"b,omitempty"`
	I  *int64                  `json:"i,omitempty"`
	F  *float64                `json:"f,omitempty"`
	T  *string                 `json:"t,omitempty"`
	R  *Ref                    `json:"r,omitempty"`
	RS []Ref                   `json:"rs,omitempty"`
	A  []*taggedValue          `json:"a,omitempty"`
	O  map[string]*taggedValue `json:"o,omitempty"`

	// E marks an empty array or object, which omitempty would otherwise drop.
	E string `json:"e,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (f Fields) MarshalJSON() ([]byte, error) {
	out := make(map[string]*taggedValue, len(f))
	for k, v := range f {
		tv, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = tv
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Fields) UnmarshalJSON(b []byte) error {
	var raw map[string]*taggedValue
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out := make(Fields, len(raw))
	for k, tv := range raw {
		v, err := decodeValue(tv)
		if err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = v
	}
	*f = out
	return nil
}

func encodeValue(v any) (*taggedValue, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return &taggedValue{S: &val}, nil
	case bool:
		return &taggedValue{B: &val}, nil
	case int:
		i := int64(val)
		return &taggedValue{I: &i}, nil
	case int32:
		i := int64(val)
		return &taggedValue{I: &i}, nil
	case int64:
		return &taggedValue{I: &val}, nil
	case float32:
		f := float64(val)
		return &taggedValue{F: &f}, nil
	case float64:
		return &taggedValue{F: &val}, nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return &taggedValue{I: &i}, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: number %s", ErrUnsupportedFieldValue, val)
		}
		return &taggedValue{F: &f}, nil
	case time.Time:
		s := val.UTC().Format(time.RFC3339Nano)
		return &taggedValue{T: &s}, nil
	case Ref:
		return &taggedValue{R: &val}, nil
	case []Ref:
		if len(val) == 0 {
			return &taggedValue{E: "rs"}, nil
		}
		return &taggedValue{RS: val}, nil
	case []any:
		if len(val) == 0 {
			return &taggedValue{E: "a"}, nil
		}
		items := make([]*taggedValue, 0, len(val))
		for _, item := range val {
			tv, err := encodeValue(item)
			if err != nil {
				return nil, err
			}
			items = append(items, tv)
		}
		return &taggedValue{A: items}, nil
	case map[string]any:
		if len(val) == 0 {
			return &taggedValue{E: "o"}, nil
		}
		obj := make(map[string]*taggedValue, len(val))
		for k, item := range val {
			tv, err := encodeValue(item)
			if err != nil {
				return nil, err
			}
			obj[k] = tv
		}
		return &taggedValue{O: obj}, nil
	}

	return nil, fmt.Errorf("%w: %T", ErrUnsupportedFieldValue, v)
}

func decodeValue(tv *taggedValue) (any, error) {
	switch {
	case tv == nil:
		return nil, nil
	case tv.S != nil:
		return *tv.S, nil
	case tv.B != nil:
		return *tv.B, nil
	case tv.I != nil:
		return *tv.I, nil
	case tv.F != nil:
		return *tv.F, nil
	case tv.T != nil:
		t, err := time.Parse(time.RFC3339Nano, *tv.T)
		if err != nil {
			return nil, err
		}
		return t, nil
	case tv.R != nil:
		return *tv.R, nil
	case tv.RS != nil:
		return tv.RS, nil
	case tv.A != nil:
		items := make([]any, 0, len(tv.A))
		for _, item := range tv.A {
			v, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case tv.O != nil:
		obj := make(map[string]any, len(tv.O))
		for k, item := range tv.O {
			v, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			obj[k] = v
		}
		return obj, nil
	}

	switch tv.E {
	case "rs":
		return []Ref{}, nil
	case "a":
		return []any{}, nil
	case "o":
		return map[string]any{}, nil
	}

	return nil, nil
}
