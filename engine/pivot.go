package engine

import (
	"sort"
	"strings"

	"github.com/spektr-org/evalpivot/record"
)

// ============================================================================
// PIVOT — Row × column aggregation with consistent totals
// ============================================================================
// Pipeline:
//   1. Filter (order-preserving)
//   2. Drop records with an undefined row field (and column field, unless
//      WithLegacyColumns)
//   3. Bucket by composite row/column keys, sorted ascending
//   4. Aggregate each cell
//   5. Totals re-run the aggregator over every member of the row, column,
//      or dataset; they are never sums of cell values, so avg/min/max stay
//      correct at every level.
// ============================================================================

// KeySeparator joins tuple elements into a composite key.
const KeySeparator = "||"

// Tuple is the ordered raw field values identifying a row or column bucket.
type Tuple []record.Value

// Key returns the tuple's composite key.
func (t Tuple) Key() string {
	return CompositeKey(t)
}

// Strings returns each element in string form.
func (t Tuple) Strings() []string {
	out := make([]string, len(t))
	for i, v := range t {
		out[i] = v.String()
	}
	return out
}

// CompositeKey joins the string forms of a tuple with KeySeparator.
func CompositeKey(t Tuple) string {
	return strings.Join(t.Strings(), KeySeparator)
}

// PivotSpec configures one pivot computation.
type PivotSpec struct {
	Data         []record.Flat
	RowFields    []string
	ColumnFields []string
	ValueField   string // optional; Count ignores it
	Aggregator   Aggregator
	Filter       Predicate // optional
}

// Cell is one row × column intersection.
type Cell struct {
	Value   float64       `json:"value"`
	Records []record.Flat `json:"records"`
}

// PivotResult is the full pivot table.
type PivotResult struct {
	RowKeys    []Tuple                     `json:"rowKeys"`
	ColKeys    []Tuple                     `json:"colKeys"`
	Cells      map[string]map[string]*Cell `json:"cells"`
	RowTotals  map[string]float64          `json:"rowTotals"`
	ColTotals  map[string]float64          `json:"colTotals"`
	GrandTotal float64                     `json:"grandTotal"`
}

// Cell looks up the cell at composite keys row and col.
func (r *PivotResult) Cell(row, col string) (*Cell, bool) {
	cols, ok := r.Cells[row]
	if !ok {
		return nil, false
	}
	c, ok := cols[col]
	return c, ok
}

// RecordCount is the number of records that reached a bucket.
func (r *PivotResult) RecordCount() int {
	n := 0
	for _, cols := range r.Cells {
		for _, c := range cols {
			n += len(c.Records)
		}
	}
	return n
}

// ComputePivot runs the pivot over spec.Data.
func ComputePivot(spec PivotSpec, opts ...Option) *PivotResult {
	return ComputePivotView(NewSliceView(spec.Data), spec, opts...)
}

// ComputePivotView runs the pivot over any RecordView. spec.Data is ignored.
func ComputePivotView(view RecordView, spec PivotSpec, opts ...Option) *PivotResult {
	cfg := applyOptions(opts)

	// 1. Filter
	view = ApplyFilter(view, spec.Filter)

	// 2–3. Bucket
	type bucket struct {
		tuple   Tuple
		members []int // positions in view
	}
	rows := make(map[string]*bucket)
	cols := make(map[string]*bucket)
	cellMembers := make(map[string]map[string][]int)
	var kept []int

	for i := 0; i < view.Len(); i++ {
		rowTuple, ok := tupleFor(view, i, spec.RowFields)
		if !ok {
			continue
		}
		colTuple, ok := tupleFor(view, i, spec.ColumnFields)
		if !ok && !cfg.LegacyColumns {
			continue
		}
		rk, ck := rowTuple.Key(), colTuple.Key()

		if rows[rk] == nil {
			rows[rk] = &bucket{tuple: rowTuple}
		}
		rows[rk].members = append(rows[rk].members, i)
		if cols[ck] == nil {
			cols[ck] = &bucket{tuple: colTuple}
		}
		cols[ck].members = append(cols[ck].members, i)
		if cellMembers[rk] == nil {
			cellMembers[rk] = make(map[string][]int)
		}
		cellMembers[rk][ck] = append(cellMembers[rk][ck], i)
		kept = append(kept, i)
	}

	rowKeys := sortedBucketKeys(rows)
	colKeys := sortedBucketKeys(cols)

	result := &PivotResult{
		RowKeys:   make([]Tuple, len(rowKeys)),
		ColKeys:   make([]Tuple, len(colKeys)),
		Cells:     make(map[string]map[string]*Cell, len(rowKeys)),
		RowTotals: make(map[string]float64, len(rowKeys)),
		ColTotals: make(map[string]float64, len(colKeys)),
	}
	for i, k := range rowKeys {
		result.RowKeys[i] = rows[k].tuple
	}
	for i, k := range colKeys {
		result.ColKeys[i] = cols[k].tuple
	}

	reduce := func(members []int) (float64, []record.Flat) {
		values, recs := gather(view, members, spec.ValueField, spec.Aggregator)
		return spec.Aggregator.Apply(values, recs), recs
	}

	// 4. Cells
	for rk, byCol := range cellMembers {
		result.Cells[rk] = make(map[string]*Cell, len(byCol))
		for ck, members := range byCol {
			value, recs := reduce(members)
			result.Cells[rk][ck] = &Cell{Value: value, Records: recs}
		}
	}

	// 5. Totals
	for rk, b := range rows {
		result.RowTotals[rk], _ = reduce(b.members)
	}
	for ck, b := range cols {
		result.ColTotals[ck], _ = reduce(b.members)
	}
	result.GrandTotal, _ = reduce(kept)

	return result
}

// tupleFor reads fields in order. ok is false when any value is undefined;
// the tuple is still returned so legacy column bucketing can use it.
func tupleFor(view RecordView, i int, fields []string) (Tuple, bool) {
	t := make(Tuple, len(fields))
	ok := true
	for j, f := range fields {
		t[j] = view.Value(i, f)
		if !t[j].IsDefined() {
			ok = false
		}
	}
	return t, ok
}

// gather collects the finite numeric values of field and the raw records
// for a member list. Values are skipped entirely for Count.
func gather(view RecordView, members []int, field string, agg Aggregator) ([]float64, []record.Flat) {
	recs := make([]record.Flat, len(members))
	var values []float64
	collect := field != "" && agg.NeedsValues()
	if collect {
		values = make([]float64, 0, len(members))
	}
	for j, i := range members {
		recs[j] = view.Record(i)
		if !collect {
			continue
		}
		if n, ok := view.Value(i, field).Number(); ok {
			values = append(values, n)
		}
	}
	if values == nil {
		values = []float64{}
	}
	return values, recs
}

func sortedBucketKeys[B any](m map[string]B) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
