package engine

import (
	"strings"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from a PivotResult
// ============================================================================
// Layout:
//   row-field columns | one column per column key | Total
//   one row per row key, then a Summary holding column and grand totals
// ============================================================================

// Column keys live in separate namespaces so a row field, a column value and
// the total column can never share a key.
const (
	totalKey     = "__total"
	rowKeyPrefix = "row:"
	colKeyPrefix = "col:"
)

func valueColumnKey(t Tuple) string { return colKeyPrefix + t.Key() }

// BuildTable lays out a pivot as a grid.
func BuildTable(q Query, agg Aggregator, result *PivotResult) *TableData {
	table := &TableData{
		Title:   q.Title,
		Columns: []Column{},
		Rows:    [][]string{},
	}
	if result == nil {
		return table
	}

	rowFields := q.RowFields
	if len(rowFields) == 0 {
		table.Columns = append(table.Columns, Column{Key: "row", Label: "All", Type: "text", Align: "left"})
	}
	for _, f := range rowFields {
		table.Columns = append(table.Columns, Column{
			Key:   rowKeyPrefix + f,
			Label: LabelForField(f),
			Type:  "text",
			Align: "left",
		})
	}
	for _, ct := range result.ColKeys {
		table.Columns = append(table.Columns, Column{
			Key:   valueColumnKey(ct),
			Label: columnLabel(ct, agg),
			Type:  "number",
			Align: "right",
		})
	}
	table.Columns = append(table.Columns, Column{Key: totalKey, Label: "Total", Type: "number", Align: "right"})

	for _, rt := range result.RowKeys {
		rk := rt.Key()
		row := make([]string, 0, len(table.Columns))
		if len(rowFields) == 0 {
			row = append(row, "All")
		}
		row = append(row, rt.Strings()...)
		for _, ct := range result.ColKeys {
			if cell, ok := result.Cell(rk, ct.Key()); ok {
				row = append(row, FormatValue(cell.Value))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, FormatValue(result.RowTotals[rk]))
		table.Rows = append(table.Rows, row)
	}

	values := make(map[string]string, len(result.ColKeys)+1)
	for _, ct := range result.ColKeys {
		values[valueColumnKey(ct)] = FormatValue(result.ColTotals[ct.Key()])
	}
	values[totalKey] = FormatValue(result.GrandTotal)
	table.Summary = &Summary{Label: "Total", Values: values}

	return table
}

// Grid returns header, body and totals rows together, ready for CSV or a
// terminal table.
func (t *TableData) Grid() [][]string {
	grid := make([][]string, 0, len(t.Rows)+2)
	grid = append(grid, t.Headers())
	grid = append(grid, t.Rows...)
	if t.Summary == nil {
		return grid
	}
	totals := make([]string, len(t.Columns))
	labelled := false
	for i, c := range t.Columns {
		if v, ok := t.Summary.Values[c.Key]; ok {
			totals[i] = v
		} else if !labelled {
			totals[i] = t.Summary.Label
			labelled = true
		}
	}
	return append(grid, totals)
}

// columnLabel names a column key; with no column fields the only column is
// the aggregate itself.
func columnLabel(t Tuple, agg Aggregator) string {
	if len(t) == 0 {
		return LabelForAggregation(agg)
	}
	return strings.Join(t.Strings(), " / ")
}
