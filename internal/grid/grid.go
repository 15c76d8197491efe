// Package grid holds spreadsheet contents as trimmed strings addressed with
// 1-based (row, col) coordinates, the shape every heuristic in this module
// operates on.
package grid

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// View is a read-only rectangular block of cells. Coordinates are 1-based;
// cells outside the block read as "".
type View interface {
	Rows() int
	Cols() int
	Cell(row, col int) string
}

// Store is a View whose cells can be overwritten with numeric values.
// Structural edits (inserting rows, resizing) are not part of the contract.
type Store interface {
	View
	SetNumber(row, col int, v float64) error
}

// Grid is an in-memory View and Store.
type Grid struct {
	cells [][]string
	cols  int
}

// New copies rows into a Grid, trimming every cell. Ragged rows are padded
// to the widest row.
func New(rows [][]string) *Grid {
	g := &Grid{cells: make([][]string, len(rows))}
	for _, row := range rows {
		if len(row) > g.cols {
			g.cols = len(row)
		}
	}
	for i, row := range rows {
		out := make([]string, g.cols)
		for j, v := range row {
			out[j] = strings.TrimSpace(v)
		}
		g.cells[i] = out
	}
	return g
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return len(g.cells) }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Cell returns the trimmed contents of (row, col), or "" when out of range.
func (g *Grid) Cell(row, col int) string {
	if row < 1 || row > len(g.cells) || col < 1 || col > g.cols {
		return ""
	}
	return g.cells[row-1][col-1]
}

// SetNumber writes v into (row, col) in its shortest decimal form.
func (g *Grid) SetNumber(row, col int, v float64) error {
	if row < 1 || row > len(g.cells) || col < 1 || col > g.cols {
		return eris.Errorf("grid: cell (%d,%d) outside %dx%d", row, col, len(g.cells), g.cols)
	}
	g.cells[row-1][col-1] = strconv.FormatFloat(v, 'f', -1, 64)
	return nil
}

// Bound returns a copy of the top-left maxRows x maxCols block of g.
func (g *Grid) Bound(maxRows, maxCols int) *Grid {
	rows := min(maxRows, len(g.cells))
	cols := min(maxCols, g.cols)
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	out := &Grid{cells: make([][]string, rows), cols: cols}
	for i := range rows {
		out.cells[i] = append([]string(nil), g.cells[i][:cols]...)
	}
	return out
}

// Row returns row r of v as a slice of v.Cols() cells.
func Row(v View, r int) []string {
	out := make([]string, v.Cols())
	for c := range out {
		out[c] = v.Cell(r, c+1)
	}
	return out
}
