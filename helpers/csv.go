package helpers

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/spektr-org/evalpivot/engine"
)

// ============================================================================
// CSV HELPER — Writes a pivot table as CSV
// ============================================================================
// Output is the table's Grid(): header, one line per row key, totals line.
// ============================================================================

// WriteTableCSV writes t to w. A nil table writes nothing.
func WriteTableCSV(w io.Writer, t *engine.TableData) error {
	if t == nil {
		return nil
	}
	writer := csv.NewWriter(w)
	for i, line := range t.Grid() {
		if err := writer.Write(line); err != nil {
			return fmt.Errorf("failed to write CSV line %d: %w", i+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
