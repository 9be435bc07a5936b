package reconcile

import (
	"encoding/json"
	"reflect"
	"slices"
	"time"

	"github.com/MKhiriev/go-record-sync/models"
)

// Diff returns the entries of candidate whose value differs from the stored
// value of rec. The local id is never part of the result.
func Diff(rec *models.Record, candidate models.Fields) models.Fields {
	diff := make(models.Fields)
	for key, v := range candidate {
		if key == models.FieldLocalID {
			continue
		}
		current, ok := rec.Value(key)
		if ok && valuesEqual(current, v) {
			continue
		}
		if !ok && v == nil {
			continue
		}
		diff[key] = v
	}
	return diff
}

// valuesEqual compares a stored value with a candidate value: exact match for
// strings, numbers, booleans and dates, identity for related records, and
// element-wise for nested arrays and objects.
func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case models.Ref:
		y, ok := b.(models.Ref)
		return ok && x == y
	case []models.Ref:
		y, ok := b.([]models.Ref)
		return ok && slices.Equal(x, y)
	case models.SyncStatus:
		return string(x) == stringOf(b)
	case string:
		y, ok := b.(string)
		if !ok {
			if s, isStatus := b.(models.SyncStatus); isStatus {
				return x == string(s)
			}
		}
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		return ok && slices.EqualFunc(x, y, valuesEqual)
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, present := y[k]
			if !present || !valuesEqual(xv, yv) {
				return false
			}
		}
		return true
	}

	if x, ok := integer(a); ok {
		if y, ok := integer(b); ok {
			return x == y
		}
	}
	if x, ok := number(a); ok {
		y, ok := number(b)
		return ok && x == y
	}

	return reflect.DeepEqual(a, b)
}

func stringOf(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case models.SyncStatus:
		return string(s)
	}
	return ""
}

func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
