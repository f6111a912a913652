package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/evalpivot/config"
	"github.com/spektr-org/evalpivot/engine"
)

const runsJSONL = `{"model":"alpha","suite":"math","score":0.5,"createdAt":"2026-01-05T10:00:00Z","results":[{"case":"a","ok":true}]}
{"model":"alpha","suite":"code","score":0.75,"createdAt":"2026-01-20T10:00:00Z"}
{"model":"beta","suite":"math","score":1,"createdAt":"2026-02-03T10:00:00Z"}
{"model":"alpha","suite":"math","score":0.5,"createdAt":"2026-01-05T10:00:00Z","results":[{"case":"a","ok":true}]}
`

func writeRuns(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(runsJSONL), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// ============================================================================
// FILTER FLAG TESTS
// ============================================================================

func TestParseFilter(t *testing.T) {
	c, err := parseFilter("$.model:contains:alp", engine.KindText)
	require.NoError(t, err)
	assert.Equal(t, engine.FilterCondition{Field: "$.model", Operator: engine.OpContains, Value: "alp", Kind: engine.KindText}, c)

	c, err = parseFilter("$.createdAt:>=:2026-01-01T00:00:00Z", engine.KindDate)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01T00:00:00Z", c.Value, "value keeps its colons")

	c, err = parseFilter("$.createdAt:between:2026-01-01..2026-02-01", engine.KindDate)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", c.Value)
	assert.Equal(t, "2026-02-01", c.Value2)

	for _, bad := range []string{"$.model", ":==:x", "$.model:~:x", "$.d:between:2026-01-01"} {
		_, err := parseFilter(bad, engine.KindText)
		assert.Error(t, err, bad)
	}
}

// ============================================================================
// COMMAND TESTS
// ============================================================================

func TestPivotCSV(t *testing.T) {
	out, err := runCLI(t, "pivot", "-f", writeRuns(t),
		"--rows", "$.model", "--cols", "$.suite", "--value", "$.score", "--agg", "sum", "-o", "csv")
	require.NoError(t, err)
	assert.Equal(t,
		"Model,code,math,Total\n"+
			"alpha,0.75,0.50,1.25\n"+
			"beta,,1,1\n"+
			"Total,0.75,1.50,2.25\n",
		out, "duplicate run is dropped")
}

func TestPivotFiltersAndTable(t *testing.T) {
	out, err := runCLI(t, "pivot", "-f", writeRuns(t), "--rows", "$.model",
		"--date-filter", "$.createdAt:between:2026-01-01..2026-01-31", "--filter", "$.suite:==:math")
	require.NoError(t, err)
	assert.Contains(t, out, "alpha")
	assert.NotContains(t, out, "beta")
	assert.Contains(t, out, "1 of 3 records")
}

func TestPivotJSON(t *testing.T) {
	out, err := runCLI(t, "pivot", "-f", writeRuns(t), "--rows", "$.suite", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"aggregation": "count"`)
	assert.Contains(t, out, `"matchedRecords": 3`)
}

func TestPivotChart(t *testing.T) {
	out, err := runCLI(t, "pivot", "-f", writeRuns(t), "--rows", "$.model", "-o", "chart")
	require.NoError(t, err)
	assert.Contains(t, out, "Count by Model")
	assert.Contains(t, out, strings.Repeat("█", barWidth)+" 2")
}

func TestPivotErrors(t *testing.T) {
	_, err := runCLI(t, "pivot")
	assert.ErrorContains(t, err, "--file")

	_, err = runCLI(t, "pivot", "-f", writeRuns(t), "--agg", "median")
	assert.ErrorContains(t, err, "median")

	_, err = runCLI(t, "pivot", "-f", writeRuns(t), "--save")
	assert.ErrorContains(t, err, "--config")
}

func TestPivotSaveAndReuseConfig(t *testing.T) {
	runs := writeRuns(t)
	cfgPath := filepath.Join(t.TempDir(), "dashboard.yaml")

	_, err := runCLI(t, "pivot", "-f", runs, "-c", cfgPath, "--rows", "$.model", "--value", "$.score", "--agg", "max", "--save")
	require.NoError(t, err)

	d, err := config.Load(context.Background(), cfgPath)
	require.NoError(t, err)
	assert.Equal(t, runs, d.Source)
	assert.Equal(t, []string{"$.model"}, d.Query.RowFields)
	assert.Equal(t, "max", d.Query.Aggregation)

	out, err := runCLI(t, "pivot", "-c", cfgPath, "-o", "csv")
	require.NoError(t, err)
	assert.Equal(t, "Model,Maximum,Total\nalpha,0.75,0.75\nbeta,1,1\nTotal,1,1\n", out)
}

func TestFlatten(t *testing.T) {
	out, err := runCLI(t, "flatten", "-f", writeRuns(t))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"$.results[0].case":"a"`)

	out, err = runCLI(t, "flatten", "-f", writeRuns(t), "--select", "$.results")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"$.results[0].case":"a","$.results[0].ok":true}`, lines[0])
}

func TestFields(t *testing.T) {
	out, err := runCLI(t, "fields", "-f", writeRuns(t))
	require.NoError(t, err)
	assert.Contains(t, out, "$.score")
	assert.Contains(t, out, "number")
	assert.Contains(t, out, "fields across 3 records")

	out, err = runCLI(t, "fields", "-f", writeRuns(t), "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"recordCount": 3`)
}

// ============================================================================
// OUTPUT TESTS
// ============================================================================

func TestWriteChartCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeChartCSV(&buf, &engine.ChartConfig{
		XAxis: "Model",
		Series: []engine.ChartSeries{
			{Name: "math", Data: []engine.ChartPoint{{Label: "alpha", Value: 1}, {Label: "beta", Value: 2.5}}},
			{Name: "code", Data: []engine.ChartPoint{{Label: "alpha", Value: 3}}},
		},
	}))
	assert.Equal(t, "Model,math,code\nalpha,1,3\nbeta,2.50,\n", buf.String())
}
