package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/spektr-org/evalpivot/engine"
	"github.com/spektr-org/evalpivot/helpers"
	"github.com/spektr-org/evalpivot/record"
	"github.com/spektr-org/evalpivot/schema"
)

// ============================================================================
// RESULT OUTPUT
// ============================================================================

// writeResult renders res in format: table (default), csv, json or chart.
func writeResult(w io.Writer, res *engine.Result, format string) error {
	switch format {
	case "json":
		return writeJSON(w, res)
	case "csv":
		if res.ChartConfig != nil {
			return writeChartCSV(w, res.ChartConfig)
		}
		return helpers.WriteTableCSV(w, res.TableData)
	case "chart":
		if res.ChartConfig != nil {
			if err := writeBars(w, res.ChartConfig); err != nil {
				return err
			}
			_, err := fmt.Fprintln(w, res.Summary)
			return err
		}
	}

	if err := writeTable(w, res.TableData); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, res.Summary)
	return err
}

// writeTable prints an aligned text table.
func writeTable(w io.Writer, t *engine.TableData) error {
	if t == nil {
		return nil
	}
	if t.Title != "" {
		fmt.Fprintf(w, "%s\n\n", t.Title)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, line := range t.Grid() {
		fmt.Fprintln(tw, strings.Join(line, "\t")+"\t")
	}
	return tw.Flush()
}

// ============================================================================
// CHART OUTPUT
// ============================================================================

// barWidth is the length of the largest bar.
const barWidth = 40

// writeBars prints one horizontal bar per point, grouped by series.
func writeBars(w io.Writer, chart *engine.ChartConfig) error {
	peak := 0.0
	labelWidth := 0
	for _, s := range chart.Series {
		for _, p := range s.Data {
			peak = math.Max(peak, math.Abs(p.Value))
			labelWidth = max(labelWidth, len(p.Label))
		}
	}

	if chart.Title != "" {
		fmt.Fprintf(w, "%s\n", chart.Title)
	}
	fmt.Fprintf(w, "%s by %s\n", chart.YAxis, chart.XAxis)
	for _, s := range chart.Series {
		fmt.Fprintf(w, "\n%s\n", s.Name)
		for _, p := range s.Data {
			n := 0
			if peak > 0 && !math.IsNaN(p.Value) {
				n = int(math.Round(math.Abs(p.Value) / peak * barWidth))
			}
			if _, err := fmt.Fprintf(w, "  %-*s %s %s\n", labelWidth, p.Label, strings.Repeat("█", n), engine.FormatValue(p.Value)); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// writeChartCSV writes label + one column per series.
func writeChartCSV(w io.Writer, chart *engine.ChartConfig) error {
	cw := csv.NewWriter(w)

	xLabel := chart.XAxis
	if xLabel == "" {
		xLabel = "Label"
	}
	headers := []string{xLabel}
	for _, s := range chart.Series {
		headers = append(headers, s.Name)
	}
	cw.Write(headers)

	if len(chart.Series) > 0 {
		for i, d := range chart.Series[0].Data {
			row := []string{d.Label}
			for _, s := range chart.Series {
				if i < len(s.Data) {
					row = append(row, engine.FormatValue(s.Data[i].Value))
				} else {
					row = append(row, "")
				}
			}
			cw.Write(row)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ============================================================================
// RECORD / FIELD OUTPUT
// ============================================================================

// writeFlat prints each document as one flat JSON object per line. With
// selectKey, only the sub-document at that path-key is flattened, keeping
// its keys rooted at selectKey.
func writeFlat(w io.Writer, docs []any, selectKey string) error {
	enc := json.NewEncoder(w)
	for _, doc := range docs {
		flat := record.Flatten(doc)
		if selectKey != "" {
			sub, ok := record.Lookup(doc, selectKey)
			if !ok {
				continue
			}
			flat = record.FlattenAt(sub, selectKey)
		}
		if err := enc.Encode(flat); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}
	return nil
}

// writeFields prints discovered fields as an aligned table.
func writeFields(w io.Writer, cfg *schema.Config) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tKIND\tCOVERAGE\tDISTINCT\tSAMPLES")
	for _, f := range cfg.Fields {
		samples := f.SampleValues
		if len(samples) > 3 {
			samples = append(samples[:3:3], "…")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%d\t%s\n",
			f.Key, f.DisplayName, f.Kind, f.Coverage*100, f.Distinct, strings.Join(samples, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d fields across %d records\n", len(cfg.Fields), cfg.RecordCount)
	return err
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
