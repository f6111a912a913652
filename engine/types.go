package engine

// ============================================================================
// EVALPIVOT ENGINE TYPES
// ============================================================================
// Query is the serializable contract between the dashboard configuration and
// the engine. Result is render-ready output.
//
// Dependency: engine depends only on record and apd.
// ============================================================================

// ============================================================================
// QUERY — What the dashboard asks for
// ============================================================================

// Query describes one pivot view as plain data.
type Query struct {
	Title        string        `json:"title,omitempty" yaml:"title,omitempty"`
	RowFields    []string      `json:"rowFields" yaml:"rowFields"`
	ColumnFields []string      `json:"columnFields,omitempty" yaml:"columnFields,omitempty"`
	ValueField   string        `json:"valueField,omitempty" yaml:"valueField,omitempty"`
	Aggregation  string        `json:"aggregation" yaml:"aggregation"` // "count", "sum", "avg", "min", "max" or a registered custom name
	Filters      []FilterGroup `json:"filters,omitempty" yaml:"filters,omitempty"`
	Visualize    string        `json:"visualize,omitempty" yaml:"visualize,omitempty"` // "table" (default), "chart"
}

// ============================================================================
// RESULT — Render-ready output
// ============================================================================

// Result is the engine's render-ready output.
type Result struct {
	Success bool   `json:"success"`
	Type    string `json:"type"` // "table", "chart"
	Title   string `json:"title"`
	Summary string `json:"summary"`

	Pivot       *PivotResult `json:"pivot,omitempty"`
	TableData   *TableData   `json:"tableData,omitempty"`
	ChartConfig *ChartConfig `json:"chartConfig,omitempty"`

	// Metadata
	Aggregation    string `json:"aggregation"`
	TotalRecords   int    `json:"totalRecords"`
	MatchedRecords int    `json:"matchedRecords"` // after filter and row/column validity
	Query          *Query `json:"query,omitempty"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig describes chart data. Rendering is left to the consumer.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData is a pivot laid out as a grid of strings.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

// Summary is the totals row.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// Headers returns column labels in order.
func (t *TableData) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Label
	}
	return out
}
