package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/spektr-org/evalpivot/record"
)

// ============================================================================
// AGGREGATORS — Reduction strategies for pivot cells and totals
// ============================================================================
// An Aggregator is a closed variant: Count, Sum, Avg, Min, Max, or Custom.
// Every built-in reports 0 for an empty input, never NaN or ±Inf.
// ============================================================================

var nan = math.NaN()

// AggregateFunc reduces the numeric values and raw records of a cell.
type AggregateFunc func(values []float64, records []record.Flat) float64

type aggregatorKind uint8

const (
	aggCount aggregatorKind = iota
	aggSum
	aggAvg
	aggMin
	aggMax
	aggCustom
)

// Aggregator selects a reduction. The zero value is Count.
type Aggregator struct {
	kind aggregatorKind
	name string
	fn   AggregateFunc
}

var (
	Count = Aggregator{kind: aggCount}
	Sum   = Aggregator{kind: aggSum}
	Avg   = Aggregator{kind: aggAvg}
	Min   = Aggregator{kind: aggMin}
	Max   = Aggregator{kind: aggMax}
)

// Custom wraps a user reduction. The engine does not sanity-check its result.
func Custom(name string, fn AggregateFunc) Aggregator {
	if name == "" {
		name = "custom"
	}
	return Aggregator{kind: aggCustom, name: name, fn: fn}
}

// ParseAggregator resolves a built-in by name. Empty means count.
func ParseAggregator(name string) (Aggregator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "count":
		return Count, nil
	case "sum":
		return Sum, nil
	case "avg", "average", "mean":
		return Avg, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	default:
		return Aggregator{}, fmt.Errorf("unknown aggregation %q", name)
	}
}

// String returns the aggregator's name.
func (a Aggregator) String() string {
	switch a.kind {
	case aggCount:
		return "count"
	case aggSum:
		return "sum"
	case aggAvg:
		return "avg"
	case aggMin:
		return "min"
	case aggMax:
		return "max"
	default:
		return a.name
	}
}

// NeedsValues is false for Count, which only looks at record counts.
func (a Aggregator) NeedsValues() bool {
	return a.kind != aggCount
}

// Apply reduces one group.
func (a Aggregator) Apply(values []float64, records []record.Flat) float64 {
	switch a.kind {
	case aggCount:
		return float64(len(records))
	case aggSum:
		var acc accumulator
		for _, v := range values {
			acc.add(v)
		}
		return acc.sum()
	case aggAvg:
		var acc accumulator
		for _, v := range values {
			acc.add(v)
		}
		return acc.mean()
	case aggMin:
		return extremum(values, func(a, b float64) bool { return a < b })
	case aggMax:
		return extremum(values, func(a, b float64) bool { return a > b })
	case aggCustom:
		if a.fn == nil {
			return 0
		}
		return a.fn(values, records)
	}
	return 0
}

func extremum(values []float64, better func(a, b float64) bool) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if better(v, m) {
			m = v
		}
	}
	return m
}

// ============================================================================
// LABELS
// ============================================================================

// LabelForAggregation returns a human-readable label for an aggregator.
func LabelForAggregation(a Aggregator) string {
	switch a.kind {
	case aggCount:
		return "Count"
	case aggSum:
		return "Sum"
	case aggAvg:
		return "Average"
	case aggMax:
		return "Maximum"
	case aggMin:
		return "Minimum"
	default:
		return LabelForField(a.name)
	}
}

// LabelForField returns a display label for a path-key: its last segment,
// capitalized.
func LabelForField(key string) string {
	seg := record.LastSegment(key)
	if seg == "" {
		return ""
	}
	return strings.ToUpper(seg[:1]) + seg[1:]
}

// FormatValue renders an aggregate: whole numbers without decimals,
// fractional values with two.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 0):
		return fmt.Sprintf("%v", v)
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return fmt.Sprintf("%d", int64(v))
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
