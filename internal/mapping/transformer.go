package mapping

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/go-record-sync/models"
)

// Resolver reconciles nested JSON into related local records. It is bound to
// the write transaction of the payload being mapped.
type Resolver interface {
	// ResolveObject reconciles obj as a record of typeName.
	ResolveObject(typeName string, obj map[string]any) (*models.Record, error)

	// ResolveIdentifier looks up a record of typeName by server id, creating
	// a stub record when none exists.
	ResolveIdentifier(typeName, serverID string) (*models.Record, error)
}

// ForwardFunc converts a raw non-null JSON value. A nil result means the field
// is omitted from the candidate set.
type ForwardFunc func(r Resolver, raw any) any

// ReverseFunc converts a stored value back to its JSON form. ok is false when
// the value cannot be converted.
type ReverseFunc func(v any) (raw any, ok bool)

// ValueTransformer converts field values between their JSON and local forms.
// A transformer without a reverse function is one-way.
type ValueTransformer struct {
	name    string
	forward ForwardFunc
	reverse ReverseFunc
}

// NewValueTransformer builds a transformer. reverse may be nil.
func NewValueTransformer(name string, forward ForwardFunc, reverse ReverseFunc) *ValueTransformer {
	return &ValueTransformer{name: name, forward: forward, reverse: reverse}
}

// Name returns the name the transformer was registered under.
func (t *ValueTransformer) Name() string {
	return t.name
}

// Forward converts raw. r may be nil for transformers that do not resolve
// related records.
func (t *ValueTransformer) Forward(r Resolver, raw any) any {
	if t == nil || t.forward == nil {
		return raw
	}
	return t.forward(r, raw)
}

// Reverse converts v back to JSON. One-way transformers always fail.
func (t *ValueTransformer) Reverse(v any) (any, bool) {
	if t == nil || t.reverse == nil {
		return nil, false
	}
	return t.reverse(v)
}

// IsReversible reports whether Reverse can succeed.
func (t *ValueTransformer) IsReversible() bool {
	return t != nil && t.reverse != nil
}

// TimeRFC3339 parses RFC 3339 strings into time.Time.
func TimeRFC3339() *ValueTransformer {
	return NewValueTransformer("time",
		func(_ Resolver, raw any) any {
			s, ok := raw.(string)
			if !ok {
				return nil
			}
			for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", time.DateOnly} {
				if t, err := time.Parse(layout, s); err == nil {
					return t.UTC()
				}
			}
			return nil
		},
		func(v any) (any, bool) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, false
			}
			return t.UTC().Format(time.RFC3339Nano), true
		},
	)
}

// UnixTime converts unix seconds into time.Time.
func UnixTime() *ValueTransformer {
	return NewValueTransformer("unix",
		func(_ Resolver, raw any) any {
			f, ok := toFloat(raw)
			if !ok {
				return nil
			}
			sec, frac := math.Modf(f)
			return time.Unix(int64(sec), int64(frac*1e9)).UTC()
		},
		func(v any) (any, bool) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, false
			}
			return t.Unix(), true
		},
	)
}

// StringValue converts scalars into strings.
func StringValue() *ValueTransformer {
	return NewValueTransformer("string",
		func(_ Resolver, raw any) any {
			switch v := raw.(type) {
			case string:
				return v
			case bool:
				return strconv.FormatBool(v)
			case float64:
				return strconv.FormatFloat(v, 'f', -1, 64)
			case int64:
				return strconv.FormatInt(v, 10)
			case json.Number:
				return v.String()
			}
			return nil
		},
		identity,
	)
}

// IntValue converts numbers and numeric strings into int64.
func IntValue() *ValueTransformer {
	return NewValueTransformer("int",
		func(_ Resolver, raw any) any {
			if i, ok := toInt(raw); ok {
				return i
			}
			f, ok := toFloat(raw)
			if !ok || f != math.Trunc(f) {
				return nil
			}
			return int64(f)
		},
		identity,
	)
}

// FloatValue converts numbers and numeric strings into float64.
func FloatValue() *ValueTransformer {
	return NewValueTransformer("float",
		func(_ Resolver, raw any) any {
			f, ok := toFloat(raw)
			if !ok {
				return nil
			}
			return f
		},
		identity,
	)
}

// BoolValue converts booleans, "true"/"false" strings and 0/1 numbers.
func BoolValue() *ValueTransformer {
	return NewValueTransformer("bool",
		func(_ Resolver, raw any) any {
			switch v := raw.(type) {
			case bool:
				return v
			case string:
				b, err := strconv.ParseBool(v)
				if err != nil {
					return nil
				}
				return b
			case float64:
				if v == 0 || v == 1 {
					return v == 1
				}
			case json.Number:
				if v == "0" || v == "1" {
					return v == "1"
				}
			}
			return nil
		},
		identity,
	)
}

// Object reconciles a nested JSON object as a record of relatedType and
// returns a Ref to it. Anything else, or a failed reconciliation, omits the
// field.
func Object(relatedType string) *ValueTransformer {
	return NewValueTransformer("object:"+relatedType,
		func(r Resolver, raw any) any {
			obj, ok := raw.(map[string]any)
			if !ok || r == nil {
				return nil
			}
			rec, err := r.ResolveObject(relatedType, obj)
			if err != nil || rec == nil {
				return nil
			}
			return rec.Ref()
		},
		nil,
	)
}

// Collection converts an array of JSON objects, or an array of server id
// strings, into an ordered []models.Ref of relatedType records. Identifiers
// without a local record get a stub record. Items that fail to resolve are
// skipped.
func Collection(relatedType string) *ValueTransformer {
	return NewValueTransformer("collection:"+relatedType,
		func(r Resolver, raw any) any {
			items, ok := raw.([]any)
			if !ok || r == nil {
				return nil
			}

			refs := make([]models.Ref, 0, len(items))
			for _, item := range items {
				var (
					rec *models.Record
					err error
				)
				switch v := item.(type) {
				case map[string]any:
					rec, err = r.ResolveObject(relatedType, v)
				case string:
					rec, err = r.ResolveIdentifier(relatedType, v)
				case json.Number:
					rec, err = r.ResolveIdentifier(relatedType, v.String())
				case float64:
					rec, err = r.ResolveIdentifier(relatedType, strconv.FormatFloat(v, 'f', -1, 64))
				default:
					continue
				}
				if err != nil || rec == nil {
					continue
				}
				refs = append(refs, rec.Ref())
			}
			return refs
		},
		nil,
	)
}

// ParseTransformer resolves a transformer by name: time, unix, string, int,
// float, bool, object:<type> or collection:<type>.
func ParseTransformer(name string) (*ValueTransformer, error) {
	kind, arg, hasArg := strings.Cut(strings.TrimSpace(name), ":")
	switch {
	case kind == "object" && hasArg && arg != "":
		return Object(arg), nil
	case kind == "collection" && hasArg && arg != "":
		return Collection(arg), nil
	case hasArg:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransformer, name)
	}

	switch kind {
	case "time":
		return TimeRFC3339(), nil
	case "unix":
		return UnixTime(), nil
	case "string":
		return StringValue(), nil
	case "int":
		return IntValue(), nil
	case "float":
		return FloatValue(), nil
	case "bool":
		return BoolValue(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTransformer, name)
}

func identity(v any) (any, bool) {
	return v, true
}

func toInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}
