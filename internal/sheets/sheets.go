// Package sheets provides the tabular-data collaborator contract and its
// Google Sheets implementation. The reconciliation core only ever sees the
// Fetcher interface and a two-dimensional grid of cell values.
package sheets

import "context"

// Fetcher fetches a named range from a spreadsheet as a grid of cell values.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	FetchRange(ctx context.Context, spreadsheetID string, rangeName string) ([][]string, error)
}

// Transpose converts rows to columns. The column count is taken from the
// first row; cells missing from shorter rows become empty strings.
func Transpose(rows [][]string) [][]string {
	if len(rows) == 0 {
		return nil
	}

	cols := make([][]string, len(rows[0]))
	for c := range cols {
		col := make([]string, len(rows))
		for r, row := range rows {
			if c < len(row) {
				col[r] = row[c]
			}
		}
		cols[c] = col
	}
	return cols
}
