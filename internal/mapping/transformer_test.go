package mapping

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarTransformers_Forward(t *testing.T) {
	tests := []struct {
		name string
		tr   *ValueTransformer
		raw  any
		want any
	}{
		{name: "time rfc3339", tr: TimeRFC3339(), raw: "2026-01-02T03:04:05Z", want: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{name: "time date only", tr: TimeRFC3339(), raw: "2026-01-02", want: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		{name: "time not a string", tr: TimeRFC3339(), raw: 12.0, want: nil},
		{name: "unix seconds", tr: UnixTime(), raw: 1700000000.0, want: time.Unix(1700000000, 0).UTC()},
		{name: "unix numeric string", tr: UnixTime(), raw: "1700000000", want: time.Unix(1700000000, 0).UTC()},
		{name: "string from number", tr: StringValue(), raw: 42.0, want: "42"},
		{name: "string from bool", tr: StringValue(), raw: true, want: "true"},
		{name: "string from object", tr: StringValue(), raw: map[string]any{}, want: nil},
		{name: "int from float", tr: IntValue(), raw: 7.0, want: int64(7)},
		{name: "int from fraction", tr: IntValue(), raw: 7.5, want: nil},
		{name: "int from string", tr: IntValue(), raw: "12", want: int64(12)},
		{name: "float from string", tr: FloatValue(), raw: "1.5", want: 1.5},
		{name: "bool from string", tr: BoolValue(), raw: "true", want: true},
		{name: "bool from one", tr: BoolValue(), raw: 1.0, want: true},
		{name: "bool from two", tr: BoolValue(), raw: 2.0, want: nil},
		{name: "string from json number", tr: StringValue(), raw: json.Number("9007199254740993"), want: "9007199254740993"},
		{name: "int from json number above 2^53", tr: IntValue(), raw: json.Number("9007199254740993"), want: int64(9007199254740993)},
		{name: "int from json number fraction", tr: IntValue(), raw: json.Number("7.5"), want: nil},
		{name: "float from json number", tr: FloatValue(), raw: json.Number("1.5"), want: 1.5},
		{name: "bool from json number", tr: BoolValue(), raw: json.Number("0"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tr.Forward(nil, tt.raw))
		})
	}
}

func TestTimeRFC3339_Reverse(t *testing.T) {
	raw, ok := TimeRFC3339().Reverse(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, "2026-01-02T03:04:05Z", raw)

	_, ok = TimeRFC3339().Reverse("nope")
	assert.False(t, ok)
}

func TestUnixTime_Reverse(t *testing.T) {
	raw, ok := UnixTime().Reverse(time.Unix(1700000000, 0))
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), raw)
}

func TestRelatedTransformers_AreOneWay(t *testing.T) {
	assert.False(t, Object("user").IsReversible())
	assert.False(t, Collection("tag").IsReversible())

	_, ok := Object("user").Reverse("anything")
	assert.False(t, ok)
}

func TestRelatedTransformers_WithoutResolver(t *testing.T) {
	assert.Nil(t, Object("user").Forward(nil, map[string]any{"id": "1"}))
	assert.Nil(t, Collection("user").Forward(nil, []any{"1"}))
}

func TestCollection_NumericIdentifiers(t *testing.T) {
	resolver := newStubResolver()
	got := Collection("tag").Forward(resolver, []any{3.0, true, json.Number("9007199254740993")})
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"3", "9007199254740993"}, resolver.created)
}

func TestParseTransformer(t *testing.T) {
	for _, name := range []string{"time", "unix", "string", "int", "float", "bool", "object:user", "collection:tag"} {
		t.Run(name, func(t *testing.T) {
			tr, err := ParseTransformer(name)
			require.NoError(t, err)
			assert.Equal(t, name, tr.Name())
		})
	}

	for _, name := range []string{"", "uuid", "object:", "time:utc"} {
		t.Run("invalid "+name, func(t *testing.T) {
			_, err := ParseTransformer(name)
			assert.ErrorIs(t, err, ErrUnknownTransformer)
		})
	}
}

func TestNilTransformer_PassesThrough(t *testing.T) {
	var tr *ValueTransformer
	assert.Equal(t, "raw", tr.Forward(nil, "raw"))
	assert.False(t, tr.IsReversible())
}
