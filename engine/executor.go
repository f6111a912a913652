package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// EXECUTOR — Query → Pivot → Render-ready Result
// ============================================================================
// Entry point: Execute(query, view, opts...)
//
// Pipeline:
//   1. Normalize the query
//   2. Resolve the aggregation name (built-in or WithAggregator)
//   3. Compose the filter groups into a predicate
//   4. Compute the pivot
//   5. Dispatch to builder (table / chart)
//   6. Write a one-line summary
//
// Execute never mutates the view or the query it is given.
// ============================================================================

// Execute runs a Query against a RecordView.
// The only error is an aggregation name that resolves to nothing.
func Execute(q Query, view RecordView, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)

	q = NormalizeQuery(q)
	agg, err := cfg.resolveAggregator(q.Aggregation)
	if err != nil {
		return nil, fmt.Errorf("execute %q: %w", q.Title, err)
	}

	result := &Result{
		Success:      true,
		Type:         "table",
		Title:        q.Title,
		Aggregation:  agg.String(),
		TotalRecords: view.Len(),
		Query:        &q,
	}
	if q.Visualize == "chart" {
		result.Type = "chart"
	}

	if view.Len() == 0 {
		result.Summary = "No records loaded."
		result.Pivot = emptyPivot()
		result.TableData = BuildTable(q, agg, result.Pivot)
		return result, nil
	}

	cfg.Logger.Printf("🔧 evalpivot: %d records, rows=%v cols=%v value=%s aggregation=%s filters=%d",
		view.Len(), q.RowFields, q.ColumnFields, q.ValueField, agg, len(q.Filters))

	pivot := ComputePivotView(view, PivotSpec{
		RowFields:    q.RowFields,
		ColumnFields: q.ColumnFields,
		ValueField:   q.ValueField,
		Aggregator:   agg,
		Filter:       BuildPredicate(q.Filters),
	}, opts...)

	result.Pivot = pivot
	result.MatchedRecords = pivot.RecordCount()
	cfg.Logger.Printf("📊 evalpivot: %d/%d records bucketed into %d×%d cells",
		result.MatchedRecords, view.Len(), len(pivot.RowKeys), len(pivot.ColKeys))

	switch result.Type {
	case "chart":
		result.ChartConfig = BuildChart(q, agg, pivot)
		if result.ChartConfig == nil {
			result.Type = "table"
			result.TableData = BuildTable(q, agg, pivot)
		}
	default:
		result.TableData = BuildTable(q, agg, pivot)
	}

	result.Summary = BuildSummary(q, agg, pivot, view.Len())
	return result, nil
}

// ============================================================================
// QUERY NORMALIZATION
// ============================================================================

// NormalizeQuery applies deterministic rules to fix inconsistent queries.
// The input is not modified.
func NormalizeQuery(q Query) Query {
	q.RowFields = compactFields(q.RowFields)
	q.ColumnFields = compactFields(q.ColumnFields)
	q.Aggregation = strings.ToLower(strings.TrimSpace(q.Aggregation))
	q.Visualize = strings.ToLower(strings.TrimSpace(q.Visualize))

	// Rule 1: no aggregation → count
	if q.Aggregation == "" {
		q.Aggregation = "count"
	}

	// Rule 2: value aggregations need a value field
	if q.ValueField == "" {
		switch q.Aggregation {
		case "sum", "avg", "average", "mean", "min", "max":
			q.Aggregation = "count"
		}
	}

	// Rule 3: charts need row fields to label points
	if q.Visualize == "chart" && len(q.RowFields) == 0 {
		q.Visualize = "table"
	}
	if q.Visualize == "" {
		q.Visualize = "table"
	}

	return q
}

// compactFields drops blank entries, returning a fresh slice.
func compactFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func emptyPivot() *PivotResult {
	return &PivotResult{
		RowKeys:   []Tuple{},
		ColKeys:   []Tuple{},
		Cells:     map[string]map[string]*Cell{},
		RowTotals: map[string]float64{},
		ColTotals: map[string]float64{},
	}
}
