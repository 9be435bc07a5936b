package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields_JSONKeepsGoTypes(t *testing.T) {
	due := time.Date(2026, 3, 1, 10, 0, 0, 123, time.UTC)
	in := Fields{
		"title":   "hello",
		"empty":   "",
		"pinned":  false,
		"count":   int64(3),
		"small":   7,
		"ratio":   0.5,
		"dueAt":   due,
		"owner":   Ref{Type: "user", LocalID: "u1"},
		"tags":    []Ref{{Type: "tag", LocalID: "t1"}},
		"noTags":  []Ref{},
		"nothing": nil,
		"list":    []any{"a", 1.0, nil},
		"nested":  map[string]any{"deep": map[string]any{"x": true}, "none": map[string]any{}},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out Fields
	require.NoError(t, json.Unmarshal(raw, &out))

	assert.Equal(t, "hello", out["title"])
	assert.Equal(t, "", out["empty"])
	assert.Equal(t, false, out["pinned"])
	assert.Equal(t, int64(3), out["count"])
	assert.Equal(t, int64(7), out["small"])
	assert.Equal(t, 0.5, out["ratio"])
	assert.True(t, due.Equal(out["dueAt"].(time.Time)))
	assert.Equal(t, Ref{Type: "user", LocalID: "u1"}, out["owner"])
	assert.Equal(t, []Ref{{Type: "tag", LocalID: "t1"}}, out["tags"])
	assert.Equal(t, []Ref{}, out["noTags"])
	assert.True(t, out.Has("nothing"))
	assert.Nil(t, out["nothing"])
	assert.Equal(t, []any{"a", 1.0, nil}, out["list"])
	assert.Equal(t, map[string]any{"deep": map[string]any{"x": true}, "none": map[string]any{}}, out["nested"])
}

func TestFields_JSONNumbers(t *testing.T) {
	raw, err := json.Marshal(Fields{
		"big":   json.Number("9007199254740993"),
		"ratio": json.Number("0.25"),
	})
	require.NoError(t, err)

	var out Fields
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, int64(9007199254740993), out["big"])
	assert.Equal(t, 0.25, out["ratio"])

	_, err = json.Marshal(Fields{"bad": json.Number("x")})
	assert.ErrorIs(t, err, ErrUnsupportedFieldValue)
}

func TestFields_UnsupportedValue(t *testing.T) {
	_, err := json.Marshal(Fields{"ch": make(chan int)})
	assert.ErrorIs(t, err, ErrUnsupportedFieldValue)
}

func TestFields_CloneIsShallowCopy(t *testing.T) {
	f := Fields{"a": 1}
	c := f.Clone()
	c["b"] = 2

	assert.False(t, f.Has("b"))
	assert.True(t, c.Has("a"))
}
