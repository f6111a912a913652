package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// ============================================================================
// VALUE — Tagged leaf value of a flattened record
// ============================================================================
// A flat record only ever holds leaves. Value is a closed set of kinds so the
// filter and pivot layers can coerce without reflection.
// The zero Value is Undefined: what Flat.Get returns for a missing key.
// ============================================================================

// Kind identifies which field of a Value is meaningful.
type Kind uint8

const (
	Undefined Kind = iota
	Null
	String
	Number
	Bool
	Time
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case Time:
		return "time"
	default:
		return "unknown"
	}
}

// Value is a single leaf.
type Value struct {
	kind Kind
	str  string
	num  float64
	flag bool
	at   time.Time
}

// NullValue returns the null leaf.
func NullValue() Value { return Value{kind: Null} }

// StringValue wraps a string leaf.
func StringValue(s string) Value { return Value{kind: String, str: s} }

// NumberValue wraps a numeric leaf.
func NumberValue(n float64) Value { return Value{kind: Number, num: n} }

// BoolValue wraps a boolean leaf.
func BoolValue(b bool) Value { return Value{kind: Bool, flag: b} }

// TimeValue wraps a date leaf.
func TimeValue(t time.Time) Value { return Value{kind: Time, at: t} }

// Of converts a Go scalar into a Value. Types outside the closed set are
// rendered with fmt and kept as strings.
func Of(v any) Value {
	switch t := v.(type) {
	case nil:
		return NullValue()
	case Value:
		return t
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case float64:
		return NumberValue(t)
	case float32:
		return NumberValue(float64(t))
	case int:
		return NumberValue(float64(t))
	case int8:
		return NumberValue(float64(t))
	case int16:
		return NumberValue(float64(t))
	case int32:
		return NumberValue(float64(t))
	case int64:
		return NumberValue(float64(t))
	case uint:
		return NumberValue(float64(t))
	case uint8:
		return NumberValue(float64(t))
	case uint16:
		return NumberValue(float64(t))
	case uint32:
		return NumberValue(float64(t))
	case uint64:
		return NumberValue(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return NumberValue(f)
		}
		return StringValue(t.String())
	case time.Time:
		return TimeValue(t)
	case *time.Time:
		if t == nil {
			return NullValue()
		}
		return TimeValue(*t)
	default:
		return StringValue(fmt.Sprint(v))
	}
}

// Kind reports the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsDefined is false only for Undefined.
func (v Value) IsDefined() bool { return v.kind != Undefined }

// Raw returns the underlying Go value: nil, string, float64, bool or time.Time.
func (v Value) Raw() any {
	switch v.kind {
	case String:
		return v.str
	case Number:
		return v.num
	case Bool:
		return v.flag
	case Time:
		return v.at
	default:
		return nil
	}
}

// String renders the value the way composite keys and text filters see it.
func (v Value) String() string {
	switch v.kind {
	case Null:
		return "null"
	case String:
		return v.str
	case Number:
		return formatNumber(v.num)
	case Bool:
		return strconv.FormatBool(v.flag)
	case Time:
		return v.at.UTC().Format(time.RFC3339Nano)
	default:
		return "undefined"
	}
}

// Text is String except that absent and null values read as "".
func (v Value) Text() string {
	if v.kind == Undefined || v.kind == Null {
		return ""
	}
	return v.String()
}

// Number converts tolerantly: finite numbers pass, numeric-looking strings
// are parsed, everything else is rejected.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case Number:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return 0, false
		}
		return v.num, true
	case String:
		return ParseNumber(v.str)
	default:
		return 0, false
	}
}

// Time interprets the value as an instant. Numbers are Unix milliseconds.
func (v Value) Time() (time.Time, bool) {
	switch v.kind {
	case Time:
		return v.at, true
	case String:
		return ParseTime(v.str)
	case Number:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(v.num)).UTC(), true
	default:
		return time.Time{}, false
	}
}

// MarshalJSON emits the raw value; undefined and null both become null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == Number && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return json.Marshal(formatNumber(v.num))
	}
	return json.Marshal(v.Raw())
}

// ParseNumber parses a trimmed decimal string. Empty, non-numeric and
// non-finite inputs are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	d, _, err := apd.NewFromString(s)
	if err != nil || d.Form != apd.Finite {
		return 0, false
	}
	f, err := d.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
}

// ParseTime tries the supported layouts in order. Zone-less layouts are UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		// JS exponents carry no leading zero: 1e-7, not 1e-07.
		s := strconv.FormatFloat(n, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
