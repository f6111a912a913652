package engine

import (
	"strings"
	"time"

	"github.com/spektr-org/evalpivot/record"
)

// ============================================================================
// FILTERS — Predicate trees over flat records
// ============================================================================
// Conditions combine inside a group with AND or OR; groups always AND.
// Evaluation fails open: half-configured conditions, unparseable dates and
// unknown operators all pass.
// ============================================================================

// Operator is a filter comparison.
type Operator string

const (
	OpEq          Operator = "=="
	OpNeq         Operator = "!="
	OpGt          Operator = ">"
	OpLt          Operator = "<"
	OpGte         Operator = ">="
	OpLte         Operator = "<="
	OpContains    Operator = "contains"
	OpNotContains Operator = "!contains"
	OpBetween     Operator = "between"
)

// Operators lists every supported operator.
var Operators = []Operator{OpEq, OpNeq, OpGt, OpLt, OpGte, OpLte, OpContains, OpNotContains, OpBetween}

// Logic joins the conditions of one group.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// ConditionKind selects how a condition compares values.
type ConditionKind string

const (
	KindText ConditionKind = "text"
	KindDate ConditionKind = "date"
)

// FilterCondition is one field/operator/value test.
type FilterCondition struct {
	Field    string        `json:"field" yaml:"field"`
	Operator Operator      `json:"operator" yaml:"operator"`
	Value    string        `json:"value" yaml:"value"`
	Value2   string        `json:"value2,omitempty" yaml:"value2,omitempty"`
	Kind     ConditionKind `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// FilterGroup is a set of conditions joined by one Logic.
type FilterGroup struct {
	Logic      Logic             `json:"logic" yaml:"logic"`
	Conditions []FilterCondition `json:"conditions" yaml:"conditions"`
}

// Predicate reports whether a record passes.
type Predicate func(record.Flat) bool

// BuildPredicate composes filter groups into one predicate.
// Returns nil when there are no groups: callers treat nil as "keep all".
func BuildPredicate(groups []FilterGroup) Predicate {
	if len(groups) == 0 {
		return nil
	}
	// groups are plain data owned by the caller
	snapshot := make([]FilterGroup, len(groups))
	for i, g := range groups {
		snapshot[i] = FilterGroup{
			Logic:      g.Logic,
			Conditions: append([]FilterCondition(nil), g.Conditions...),
		}
	}
	return func(r record.Flat) bool {
		for _, g := range snapshot {
			if !g.Matches(r) {
				return false
			}
		}
		return true
	}
}

// Matches evaluates the group against a record.
func (g FilterGroup) Matches(r record.Flat) bool {
	if len(g.Conditions) == 0 {
		return true
	}
	if g.Logic == LogicOr {
		for _, c := range g.Conditions {
			if c.Matches(r) {
				return true
			}
		}
		return false
	}
	for _, c := range g.Conditions {
		if !c.Matches(r) {
			return false
		}
	}
	return true
}

// Matches evaluates one condition. Empty field or value always matches.
func (c FilterCondition) Matches(r record.Flat) bool {
	if c.Field == "" || c.Value == "" {
		return true
	}
	field := r.Get(c.Field)
	if c.Kind == KindDate {
		return matchDate(c, field)
	}
	return matchText(c, field)
}

// ApplyFilter returns a view of records accepted by p, in order.
// A nil predicate returns the original view.
func ApplyFilter(view RecordView, p Predicate) RecordView {
	if p == nil {
		return view
	}
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if p(view.Record(i)) {
			indices = append(indices, i)
		}
	}
	return newSubView(view, indices)
}

// ============================================================================
// TEXT / NUMERIC CONDITIONS
// ============================================================================

func matchText(c FilterCondition, field record.Value) bool {
	text := field.Text()
	switch c.Operator {
	case OpEq:
		return text == c.Value
	case OpNeq:
		return text != c.Value
	case OpGt, OpLt, OpGte, OpLte:
		return compareNumbers(c.Operator, numberOrNaN(field), numberOrNaN(record.StringValue(c.Value)))
	case OpContains:
		return strings.Contains(strings.ToLower(text), strings.ToLower(c.Value))
	case OpNotContains:
		return !strings.Contains(strings.ToLower(text), strings.ToLower(c.Value))
	default:
		return true
	}
}

// compareNumbers follows IEEE semantics: anything against NaN is false.
func compareNumbers(op Operator, a, b float64) bool {
	switch op {
	case OpGt:
		return a > b
	case OpLt:
		return a < b
	case OpGte:
		return a >= b
	case OpLte:
		return a <= b
	}
	return true
}

func numberOrNaN(v record.Value) float64 {
	if n, ok := v.Number(); ok {
		return n
	}
	return nan
}

// ============================================================================
// DATE CONDITIONS
// ============================================================================

func matchDate(c FilterCondition, field record.Value) bool {
	got, ok := field.Time()
	if !ok {
		return true
	}
	want, ok := record.ParseTime(c.Value)
	if !ok {
		return true
	}
	switch c.Operator {
	case OpEq:
		return sameDay(got, want)
	case OpNeq:
		return !sameDay(got, want)
	case OpGte:
		return !got.Before(want)
	case OpLte:
		return !got.After(want)
	case OpBetween:
		upper, ok := record.ParseTime(c.Value2)
		if !ok {
			return true
		}
		return !got.Before(want) && !got.After(upper)
	default:
		return true
	}
}

// sameDay compares UTC calendar days, ignoring time of day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
