// Package evalpivot provides pivot tables over evaluation-run JSON.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/evalpivot/engine"
//	    "github.com/spektr-org/evalpivot/helpers"
//	)
//
//	records, err := helpers.LoadRecords(ctx, "runs.jsonl")
//	result, err := engine.Execute(engine.Query{
//	    RowFields:   []string{"$.model"},
//	    ValueField:  "$.score",
//	    Aggregation: "avg",
//	}, engine.NewSliceView(records))
//
// Documents are flattened into path-keyed records ("$.metadata['run id']"),
// filtered by AND/OR condition groups, and bucketed by row and column
// fields. Results come back as a pivot, table data or chart data.
//
// The store package holds a deduplicated record set for long-running
// dashboards; config persists a dashboard as YAML.
package evalpivot
