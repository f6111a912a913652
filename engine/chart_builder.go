package engine

import (
	"strings"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from a PivotResult
// ============================================================================
// One series per column key, one point per row key. A pivot with no column
// fields yields a single series named after the aggregation.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart produces chart data from a pivot. nil when there are no rows.
func BuildChart(q Query, agg Aggregator, result *PivotResult) *ChartConfig {
	if result == nil || len(result.RowKeys) == 0 {
		return nil
	}

	chartType := "bar"
	if len(result.ColKeys) > 1 {
		chartType = "stacked_bar"
	}

	config := &ChartConfig{
		ChartType:  chartType,
		Title:      q.Title,
		YAxis:      LabelForAggregation(agg),
		ShowLegend: len(result.ColKeys) > 1,
		ShowGrid:   true,
	}
	labels := make([]string, len(q.RowFields))
	for i, f := range q.RowFields {
		labels[i] = LabelForField(f)
	}
	config.XAxis = strings.Join(labels, " / ")

	config.Series = make([]ChartSeries, 0, len(result.ColKeys))
	for i, ct := range result.ColKeys {
		ck := ct.Key()
		points := make([]ChartPoint, 0, len(result.RowKeys))
		for _, rt := range result.RowKeys {
			var value float64
			if cell, ok := result.Cell(rt.Key(), ck); ok {
				value = cell.Value
			}
			points = append(points, ChartPoint{
				Label: strings.Join(rt.Strings(), " / "),
				Value: RoundTo2(value),
			})
		}
		config.Series = append(config.Series, ChartSeries{
			Name:  columnLabel(ct, agg),
			Data:  points,
			Color: defaultColors[i%len(defaultColors)],
		})
	}

	config.Colors = assignColors(len(config.Series))
	return config
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
