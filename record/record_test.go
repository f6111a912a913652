package record

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// FLATTEN TESTS
// ============================================================================

var evalRun = map[string]any{
	"id":        "run-17",
	"createdAt": time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC),
	"score":     0.82,
	"passed":    true,
	"notes":     nil,
	"metadata": map[string]any{
		"model":      "gpt-x",
		"run id":     "abc",
		"it's":       "quoted",
		"tags":       []any{"smoke", "nightly"},
		"thresholds": map[string]any{"p50": int64(120)},
	},
	"samples": []any{
		map[string]any{"input": "2+2", "ok": true},
		map[string]any{"input": "3+3", "ok": false},
	},
}

func TestFlattenPaths(t *testing.T) {
	flat := Flatten(evalRun)

	assert.Equal(t, StringValue("run-17"), flat.Get("$.id"))
	assert.Equal(t, NumberValue(0.82), flat.Get("$.score"))
	assert.Equal(t, BoolValue(true), flat.Get("$.passed"))
	assert.Equal(t, NullValue(), flat.Get("$.notes"))
	assert.Equal(t, StringValue("gpt-x"), flat.Get("$.metadata.model"))
	assert.Equal(t, StringValue("abc"), flat.Get("$.metadata['run id']"))
	assert.Equal(t, StringValue("quoted"), flat.Get(`$.metadata['it\'s']`))
	assert.Equal(t, StringValue("nightly"), flat.Get("$.metadata.tags[1]"))
	assert.Equal(t, NumberValue(120), flat.Get("$.metadata.thresholds.p50"))
	assert.Equal(t, BoolValue(false), flat.Get("$.samples[1].ok"))
}

func TestFlattenKeepsDatesAsLeaves(t *testing.T) {
	flat := Flatten(evalRun)

	v := flat.Get("$.createdAt")
	require.Equal(t, Time, v.Kind())
	got, ok := v.Time()
	require.True(t, ok)
	assert.True(t, got.Equal(time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)))
}

func TestFlattenLeafCount(t *testing.T) {
	flat := Flatten(evalRun)
	// 5 top-level leaves, 6 under metadata, 4 under samples
	assert.Len(t, flat, 15)
	for _, k := range flat.Keys() {
		assert.NotEqual(t, Undefined, flat[k].Kind(), "key %s", k)
	}
}

func TestFlattenDeterministic(t *testing.T) {
	first := Flatten(evalRun)
	second := Flatten(evalRun)
	assert.Equal(t, first.Keys(), second.Keys())
	assert.Equal(t, first, second)
}

func TestFlattenScalarRoot(t *testing.T) {
	assert.Equal(t, Flat{"$": NumberValue(3)}, Flatten(3))
	assert.Equal(t, Flat{"doc": StringValue("x")}, FlattenAt("x", "doc"))
	assert.Empty(t, Flatten(map[string]any{}))
	assert.Empty(t, Flatten([]any{}))
}

func TestFlattenTypedContainers(t *testing.T) {
	type label string
	flat := Flatten(map[string]any{
		"tags":   []bool{true, false},
		"m":      map[string]int{"b": 2, "a": 1},
		"ids":    [2]int64{7, 8},
		"labels": map[label][]float32{"x y": {0.5}},
		"raw":    []byte("hi"),
		"byID":   map[int]string{1: "one"},
	})

	assert.Len(t, flat, 9)
	assert.Equal(t, BoolValue(false), flat.Get("$.tags[1]"))
	assert.Equal(t, NumberValue(1), flat.Get("$.m.a"))
	assert.Equal(t, NumberValue(2), flat.Get("$.m.b"))
	assert.Equal(t, NumberValue(8), flat.Get("$.ids[1]"))
	assert.Equal(t, NumberValue(0.5), flat.Get("$.labels['x y'][0]"))
	assert.Equal(t, StringValue("hi"), flat.Get("$.raw"))
	assert.Equal(t, String, flat.Get("$.byID").Kind(), "non-string map keys stay a leaf")
}

func TestFlattenUnsupportedTypesNeverPanic(t *testing.T) {
	fn := func() {}
	ch := make(chan int)
	flat := Flatten(map[string]any{"fn": fn, "ch": ch, "pt": struct{ X int }{1}})

	assert.Equal(t, String, flat.Get("$.fn").Kind())
	assert.Equal(t, String, flat.Get("$.ch").Kind())
	assert.Equal(t, "{1}", flat.Get("$.pt").String())
}

func TestPathKeySegments(t *testing.T) {
	assert.Equal(t, "$.model", PathKey("$", "model"))
	assert.Equal(t, "$._x$1", PathKey("$", "_x$1"))
	assert.Equal(t, "$['1st']", PathKey("$", "1st"))
	assert.Equal(t, "$['a.b']", PathKey("$", "a.b"))
	assert.Equal(t, `$['don\'t']`, PathKey("$", "don't"))
	assert.Equal(t, "$.list[4]", IndexKey("$.list", 4))
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "model", LastSegment("$.metadata.model"))
	assert.Equal(t, "run id", LastSegment("$.metadata['run id']"))
	assert.Equal(t, "it's", LastSegment(`$['it\'s']`))
	assert.Equal(t, "2", LastSegment("$.tags[2]"))
	assert.Equal(t, "$", LastSegment("$"))
}

func TestLookupInvertsFlatten(t *testing.T) {
	doc := map[string]any{
		"metadata": map[string]any{"model": "gpt-x", "run id": "abc"},
		"tags":     []any{"a", "b"},
		"$ref":     3,
		"$defs":    map[string]any{"$id": "x", "y]": true},
		"_x$1":     []any{map[string]any{"it's": 1}},
	}
	for key, leaf := range Flatten(doc) {
		got, ok := Lookup(doc, key)
		require.True(t, ok, key)
		assert.Equal(t, leaf, Of(got), key)
	}

	_, ok := Lookup(doc, "$.missing")
	assert.False(t, ok)
	_, ok = Lookup(doc, "$.tags[9]")
	assert.False(t, ok)
	_, ok = Lookup(doc, "metadata.model")
	assert.False(t, ok, "path-keys start at $")
	_, ok = Lookup(doc, "$['unterminated")
	assert.False(t, ok)

	got, ok := Lookup(doc, "$")
	require.True(t, ok)
	assert.Equal(t, doc, got)
}

// ============================================================================
// COERCION TESTS
// ============================================================================

func TestValueString(t *testing.T) {
	cases := []struct {
		in   Value
		want string
	}{
		{Value{}, "undefined"},
		{NullValue(), "null"},
		{NumberValue(120), "120"},
		{NumberValue(0.5), "0.5"},
		{NumberValue(-0.0), "0"},
		{NumberValue(1e-7), "1e-7"},
		{NumberValue(-1.5e-7), "-1.5e-7"},
		{NumberValue(0.000001), "0.000001"},
		{NumberValue(1e21), "1e+21"},
		{NumberValue(2.5e100), "2.5e+100"},
		{NumberValue(math.NaN()), "NaN"},
		{NumberValue(math.Inf(1)), "Infinity"},
		{BoolValue(true), "true"},
		{StringValue("East"), "East"},
		{TimeValue(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)), "2026-02-01T00:00:00Z"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.in.String())
	}
	assert.Equal(t, "", Value{}.Text())
	assert.Equal(t, "", NullValue().Text())
}

func TestValueNumber(t *testing.T) {
	cases := []struct {
		in     Value
		want   float64
		wantOK bool
	}{
		{NumberValue(10), 10, true},
		{StringValue("10"), 10, true},
		{StringValue(" 2.5 "), 2.5, true},
		{StringValue("1e3"), 1000, true},
		{StringValue("not-a-number"), 0, false},
		{StringValue(""), 0, false},
		{StringValue("Infinity"), 0, false},
		{StringValue("NaN"), 0, false},
		{NumberValue(math.Inf(-1)), 0, false},
		{BoolValue(true), 0, false},
		{NullValue(), 0, false},
		{Value{}, 0, false},
	}
	for _, c := range cases {
		got, ok := c.in.Number()
		assert.Equal(t, c.wantOK, ok, c.in.String())
		assert.Equal(t, c.want, got, c.in.String())
	}
}

func TestValueTime(t *testing.T) {
	got, ok := StringValue("2026-01-15").Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), got)

	got, ok = StringValue("2026-01-15T10:00:00+02:00").Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC), got.UTC())

	got, ok = NumberValue(0).Time()
	require.True(t, ok)
	assert.Equal(t, int64(0), got.UnixMilli())

	_, ok = StringValue("yesterday").Time()
	assert.False(t, ok)
	_, ok = BoolValue(true).Time()
	assert.False(t, ok)
}

func TestValueMarshalJSON(t *testing.T) {
	b, err := NumberValue(3).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "3", string(b))

	b, err = Value{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	b, err = NumberValue(math.NaN()).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"NaN"`, string(b))
}
