package ui

import (
	"github.com/rivo/tview"

	"github.com/spektr-org/evalpivot/engine"
)

// PopulateTable fills table with a pivot grid: header row, one row per row
// key, totals row. Header and totals are fixed and not selectable.
func PopulateTable(table *tview.Table, data *engine.TableData) {
	if table == nil {
		return
	}
	table.Clear()

	if data == nil || len(data.Rows) == 0 {
		table.SetCell(0, 0, tview.NewTableCell("No data available").
			SetAlign(tview.AlignCenter).
			SetSelectable(false))
		return
	}
	if data.Title != "" {
		table.SetTitle(" " + data.Title + " ")
	}

	grid := data.Grid()
	last := len(grid) - 1
	for row, line := range grid {
		header := row == 0
		totals := data.Summary != nil && row == last
		for col, text := range line {
			align := tview.AlignLeft
			if col < len(data.Columns) && data.Columns[col].Align == "right" {
				align = tview.AlignRight
			}
			switch {
			case header:
				text = "[yellow::b]" + tview.Escape(text) + "[-::-]"
				align = tview.AlignCenter
			case totals:
				text = "[::b]" + tview.Escape(text) + "[::-]"
			default:
				text = tview.Escape(text)
			}
			table.SetCell(row, col, tview.NewTableCell(text).
				SetAlign(align).
				SetSelectable(!header && !totals))
		}
	}
	table.SetFixed(1, 0)
}
