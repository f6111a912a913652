package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// TEXT BUILDER — One-line summary of a pivot
// ============================================================================

// BuildSummary describes a pivot in one sentence, e.g.
// "4 of 5 records · 2 rows × 2 columns · Average of Score = 105".
func BuildSummary(q Query, agg Aggregator, result *PivotResult, total int) string {
	if result == nil || total == 0 {
		return "No records loaded."
	}
	matched := result.RecordCount()
	if matched == 0 {
		return fmt.Sprintf("No records match (0 of %d).", total)
	}

	measure := LabelForAggregation(agg)
	if agg.NeedsValues() && q.ValueField != "" {
		measure = fmt.Sprintf("%s of %s", measure, LabelForField(q.ValueField))
	}

	parts := []string{
		fmt.Sprintf("%d of %d records", matched, total),
		fmt.Sprintf("%d %s × %d %s",
			len(result.RowKeys), plural(len(result.RowKeys), "row", "rows"),
			len(result.ColKeys), plural(len(result.ColKeys), "column", "columns")),
		fmt.Sprintf("%s = %s", measure, FormatValue(result.GrandTotal)),
	}
	return strings.Join(parts, " · ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
