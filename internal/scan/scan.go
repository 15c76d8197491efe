// Package scan recovers (label, value) pairs from free-form spreadsheet rows.
//
// A row may hold any number of pairs laid out left to right, with blanks or
// stray cells between a label and its value:
//
//	Revenue | | 1,000 | Cost | 500
//
// Each label takes the nearest numeric cell within a bounded window to its
// right. A consumed value is never reused, and rows without any numeric cell
// (section headers) yield nothing.
package scan

import (
	"github.com/sells-group/dashboard-fill/internal/cell"
	"github.com/sells-group/dashboard-fill/internal/grid"
)

// Pair is one label and the value found to its right. Label is the raw cell
// text, not yet case-folded.
type Pair struct {
	Label string
	Value float64
}

// Row scans one row of cells. lookRightMax bounds how many cells to the right
// of a label are searched for its value.
func Row(cells []string, lookRightMax int) []Pair {
	classes := make([]cell.Value, len(cells))
	hasNumber := false
	for i, s := range cells {
		classes[i] = cell.Classify(s)
		if classes[i].Kind == cell.Numeric {
			hasNumber = true
		}
	}
	if !hasNumber {
		return nil
	}

	var pairs []Pair
	c := 0
	for c < len(classes) {
		if classes[c].Kind != cell.Label {
			c++
			continue
		}
		at := -1
		for k := 1; k <= lookRightMax && c+k < len(classes); k++ {
			if classes[c+k].Kind == cell.Numeric {
				at = c + k
				break
			}
		}
		if at < 0 {
			c++
			continue
		}
		pairs = append(pairs, Pair{Label: classes[c].Text, Value: classes[at].Number})
		c = at + 1
	}
	return pairs
}

// Grid scans every row of v top to bottom and concatenates the pairs.
func Grid(v grid.View, lookRightMax int) []Pair {
	var pairs []Pair
	for r := 1; r <= v.Rows(); r++ {
		pairs = append(pairs, Row(grid.Row(v, r), lookRightMax)...)
	}
	return pairs
}
