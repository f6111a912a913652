package record

import (
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// FLATTEN — Nested document → single-level path-key map
// ============================================================================
// Path keys start at "$" and grow one segment per nesting step:
//   .name        identifier-safe object key
//   ['a b']      any other object key, single quotes escaped as \'
//   [3]          array index
// Object keys are visited in sorted order so output is deterministic.
// ============================================================================

// Root is the path-key of the document itself.
const Root = "$"

// Flat is a flattened record: path-key → leaf.
type Flat map[string]Value

// Get returns the leaf at key, or the Undefined value.
func (f Flat) Get(key string) Value {
	return f[key]
}

// Keys returns the record's path-keys in ascending order.
func (f Flat) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flatten flattens input under the "$" root.
func Flatten(input any) Flat {
	return FlattenAt(input, Root)
}

// FlattenAt flattens input under an arbitrary root key.
func FlattenAt(input any, root string) Flat {
	out := make(Flat)
	flattenInto(out, root, input)
	return out
}

func flattenInto(out Flat, key string, v any) {
	switch t := v.(type) {
	case map[string]any:
		for _, k := range sortedKeys(t) {
			flattenInto(out, PathKey(key, k), t[k])
		}
	case map[string]string:
		for k, s := range t {
			out[PathKey(key, k)] = StringValue(s)
		}
	case []byte:
		out[key] = StringValue(string(t))
	case []any:
		for i, e := range t {
			flattenInto(out, IndexKey(key, i), e)
		}
	case []map[string]any:
		for i, e := range t {
			flattenInto(out, IndexKey(key, i), e)
		}
	case []string:
		for i, e := range t {
			out[IndexKey(key, i)] = StringValue(e)
		}
	case []float64:
		for i, e := range t {
			out[IndexKey(key, i)] = NumberValue(e)
		}
	case []int:
		for i, e := range t {
			out[IndexKey(key, i)] = NumberValue(float64(e))
		}
	case Flat:
		// already flat: re-root its keys
		for k, leaf := range t {
			out[key+strings.TrimPrefix(k, Root)] = leaf
		}
	case time.Time:
		out[key] = TimeValue(t)
	default:
		if !flattenReflect(out, key, v) {
			out[key] = Of(v)
		}
	}
}

// flattenReflect descends typed slices, arrays and string-keyed maps that
// the type switch does not name, e.g. []bool or map[string]int.
func flattenReflect(out Flat, key string, v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			out[key] = StringValue(string(rv.Bytes()))
			return true
		}
		for i := 0; i < rv.Len(); i++ {
			flattenInto(out, IndexKey(key, i), rv.Index(i).Interface())
		}
		return true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return false
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			flattenInto(out, PathKey(key, k.String()), rv.MapIndex(k).Interface())
		}
		return true
	}
	return false
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// PathKey appends an object-key segment to parent.
func PathKey(parent, key string) string {
	if identifierPattern.MatchString(key) {
		return parent + "." + key
	}
	return parent + "['" + strings.ReplaceAll(key, "'", `\'`) + "']"
}

// IndexKey appends an array-index segment to parent.
func IndexKey(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}

// LastSegment returns the final segment of a path-key without its
// punctuation: "$.meta['run id']" → "run id", "$.scores[2]" → "2".
func LastSegment(key string) string {
	if strings.HasSuffix(key, "']") {
		if i := strings.LastIndex(key, "['"); i >= 0 {
			return strings.ReplaceAll(key[i+2:len(key)-2], `\'`, "'")
		}
	}
	if strings.HasSuffix(key, "]") {
		if i := strings.LastIndex(key, "["); i >= 0 {
			return key[i+1 : len(key)-1]
		}
	}
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i+1:]
	}
	return key
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
