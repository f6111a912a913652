package ui

import (
	"fmt"
	"log"
	"slices"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/spektr-org/evalpivot/engine"
)

// ============================================================================
// BROWSER — Interactive pivot table
// ============================================================================
// Keys:
//   a  cycle aggregation (count → sum → avg → min → max)
//   t  swap row and column fields
//   q  quit
// ============================================================================

// aggregationCycle is the order the a key walks through.
var aggregationCycle = []string{"count", "sum", "avg", "min", "max"}

// RunFunc executes a query against the browser's data.
type RunFunc func(engine.Query) (*engine.Result, error)

// Browser is a tview application showing one pivot.
type Browser struct {
	App    *tview.Application
	table  *tview.Table
	status *tview.TextView
	query  engine.Query
	run    RunFunc
}

// NewBrowser builds the layout and renders q once.
func NewBrowser(q engine.Query, run RunFunc) (*Browser, error) {
	b := &Browser{
		App:    tview.NewApplication(),
		table:  tview.NewTable().SetBorders(false).SetSelectable(true, false),
		status: tview.NewTextView().SetDynamicColors(true),
		query:  q,
		run:    run,
	}
	b.table.SetBorder(true)
	b.status.SetBorder(true).SetTitle(" evalpivot ")

	if err := b.Render(); err != nil {
		return nil, err
	}

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.table, 0, 1, true).
		AddItem(b.status, 4, 0, false)
	b.App.SetRoot(layout, true)
	b.setupKeyBindings()
	return b, nil
}

// Run starts the event loop.
func (b *Browser) Run() error {
	return b.App.Run()
}

// Query returns the query currently displayed.
func (b *Browser) Query() engine.Query { return b.query }

// Render executes the current query and redraws table and status.
func (b *Browser) Render() error {
	q := b.query
	q.Visualize = "table"
	res, err := b.run(q)
	if err != nil {
		return err
	}
	PopulateTable(b.table, res.TableData)
	b.status.SetText(fmt.Sprintf("%s\n[::d]a[::-] aggregation  [::d]t[::-] transpose  [::d]q[::-] quit",
		tview.Escape(res.Summary)))
	return nil
}

func (b *Browser) setupKeyBindings() {
	b.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q':
			b.App.Stop()
			return nil
		case 'a':
			b.query = CycleAggregation(b.query)
		case 't':
			b.query = Transpose(b.query)
		default:
			return event
		}
		if err := b.Render(); err != nil {
			log.Printf("❌ browse: %v", err)
		}
		return nil
	})
}

// CycleAggregation advances to the next built-in aggregation. Value
// aggregations are skipped when the query has no value field.
func CycleAggregation(q engine.Query) engine.Query {
	i := slices.Index(aggregationCycle, q.Aggregation)
	for step := 1; step <= len(aggregationCycle); step++ {
		next := aggregationCycle[(i+step)%len(aggregationCycle)]
		if next == "count" || q.ValueField != "" {
			q.Aggregation = next
			return q
		}
	}
	return q
}

// Transpose swaps row and column fields.
func Transpose(q engine.Query) engine.Query {
	q.RowFields, q.ColumnFields = q.ColumnFields, q.RowFields
	return q
}
