package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/evalpivot/config"
	"github.com/spektr-org/evalpivot/engine"
	"github.com/spektr-org/evalpivot/internal/ui"
)

// pivotFlags are the query overrides shared by pivot and browse.
type pivotFlags struct {
	title       string
	rows        []string
	cols        []string
	value       string
	agg         string
	filters     []string
	dateFilters []string
	anyFilter   bool
	format      string
	save        bool
}

func (f *pivotFlags) register(cmd *cobra.Command, withFormat bool) {
	fl := cmd.Flags()
	fl.StringVar(&f.title, "title", "", "table title")
	fl.StringSliceVar(&f.rows, "rows", nil, "row path-keys, e.g. $.model")
	fl.StringSliceVar(&f.cols, "cols", nil, "column path-keys")
	fl.StringVar(&f.value, "value", "", "value path-key for sum/avg/min/max")
	fl.StringVar(&f.agg, "agg", "", "aggregation: count, sum, avg, min, max")
	fl.StringArrayVar(&f.filters, "filter", nil, "text filter field:op:value (repeatable; between takes low..high)")
	fl.StringArrayVar(&f.dateFilters, "date-filter", nil, "date filter field:op:value (repeatable)")
	fl.BoolVar(&f.anyFilter, "any", false, "match any --filter instead of all")
	fl.BoolVar(&f.save, "save", false, "write the effective dashboard back to --config")
	if withFormat {
		fl.StringVarP(&f.format, "format", "o", "", "output: table, csv, json, chart")
	}
}

// apply overrides d with every flag the user set.
func (f *pivotFlags) apply(cmd *cobra.Command, d *config.Dashboard) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		d.Query.Title = f.title
	}
	if changed("rows") {
		d.Query.RowFields = f.rows
	}
	if changed("cols") {
		d.Query.ColumnFields = f.cols
	}
	if changed("value") {
		d.Query.ValueField = f.value
	}
	if changed("agg") {
		d.Query.Aggregation = f.agg
	}
	if changed("format") {
		d.Format = f.format
	}

	var conds []engine.FilterCondition
	for _, raw := range f.filters {
		c, err := parseFilter(raw, engine.KindText)
		if err != nil {
			return err
		}
		conds = append(conds, c)
	}
	for _, raw := range f.dateFilters {
		c, err := parseFilter(raw, engine.KindDate)
		if err != nil {
			return err
		}
		conds = append(conds, c)
	}
	if len(conds) > 0 {
		logic := engine.LogicAnd
		if f.anyFilter {
			logic = engine.LogicOr
		}
		d.Query.Filters = append(d.Query.Filters, engine.FilterGroup{Logic: logic, Conditions: conds})
	}

	switch d.Format {
	case "chart":
		d.Query.Visualize = "chart"
	case "table", "csv":
		d.Query.Visualize = "table"
	}
	return d.Validate()
}

// parseFilter reads "field:op:value". Between takes "low..high" as value.
func parseFilter(raw string, kind engine.ConditionKind) (engine.FilterCondition, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 3 || parts[0] == "" {
		return engine.FilterCondition{}, fmt.Errorf("invalid filter %q: want field:op:value", raw)
	}
	c := engine.FilterCondition{
		Field:    strings.TrimSpace(parts[0]),
		Operator: engine.Operator(strings.TrimSpace(parts[1])),
		Value:    parts[2],
		Kind:     kind,
	}
	if !slices.Contains(engine.Operators, c.Operator) {
		return engine.FilterCondition{}, fmt.Errorf("invalid filter %q: unknown operator %q", raw, c.Operator)
	}
	if c.Operator == engine.OpBetween {
		lo, hi, ok := strings.Cut(c.Value, "..")
		if !ok {
			return engine.FilterCondition{}, fmt.Errorf("invalid filter %q: between wants low..high", raw)
		}
		c.Value, c.Value2 = lo, hi
	}
	return c, nil
}

// ============================================================================
// PIVOT / BROWSE
// ============================================================================

func newPivotCmd(opts *options) *cobra.Command {
	flags := &pivotFlags{}
	cmd := &cobra.Command{
		Use:   "pivot",
		Short: "Group, filter and aggregate records into a pivot table",
		Example: `  evalpivot pivot -f runs.jsonl --rows '$.model' --cols '$.metadata.suite' --value '$.score' --agg avg
  evalpivot pivot -f runs.jsonl --rows '$.model' --filter '$.status:==:passed' -o csv
  evalpivot pivot -c dashboard.yaml --date-filter '$.createdAt:between:2026-01-01..2026-02-01' --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.dashboard(cmd)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, d); err != nil {
				return err
			}
			if err := opts.saveIfRequested(cmd, flags, d); err != nil {
				return err
			}

			s, err := opts.load(cmd, d)
			if err != nil {
				return err
			}
			res, err := s.Execute(d.Query, engine.WithLogger(opts.logger))
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), res, d.Format)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newBrowseCmd(opts *options) *cobra.Command {
	flags := &pivotFlags{}
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Explore the pivot in an interactive terminal table",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := opts.dashboard(cmd)
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, d); err != nil {
				return err
			}
			s, err := opts.load(cmd, d)
			if err != nil {
				return err
			}

			ui.SetupTheme()
			browser, err := ui.NewBrowser(d.Query, func(q engine.Query) (*engine.Result, error) {
				return s.Execute(q, engine.WithLogger(opts.logger))
			})
			if err != nil {
				return err
			}
			if err := browser.Run(); err != nil {
				return err
			}

			d.Query = browser.Query()
			return opts.saveIfRequested(cmd, flags, d)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func (o *options) saveIfRequested(cmd *cobra.Command, f *pivotFlags, d *config.Dashboard) error {
	if !f.save {
		return nil
	}
	if o.configPath == "" {
		return fmt.Errorf("--save needs --config")
	}
	if err := config.Save(cmd.Context(), o.configPath, d); err != nil {
		return err
	}
	o.logger.Printf("💾 Saved dashboard to %s", o.configPath)
	return nil
}
