// Package locate infers, in a destination sheet with no fixed layout, which
// row carries the firm headers, which columns belong to which firm, and which
// column and rows carry the metric labels.
//
// Each inference scores every candidate and keeps the first maximum, so the
// result is deterministic when candidates tie.
package locate

import (
	"errors"
	"strings"

	"github.com/sells-group/dashboard-fill/internal/cell"
	"github.com/sells-group/dashboard-fill/internal/grid"
	"github.com/sells-group/dashboard-fill/internal/model"
)

// Inference failures, one per step.
var (
	ErrNoHeaderRow     = errors.New("locate: no firm header row found")
	ErrNoEntityColumns = errors.New("locate: no firm columns on header row")
	ErrNoMetricColumn  = errors.New("locate: could not determine metric column")
	ErrNoMetricLabels  = errors.New("locate: no metric labels in metric column")
)

// Layout is everything the writer needs to address a destination sheet.
type Layout struct {
	HeaderRow  int
	EntityCols map[string]int // "FIRM A" -> column
	MetricCol  int
	MetricRows map[string]int // folded metric label -> first row
}

// Locate runs all four inferences over v.
func Locate(v grid.View, prefix string) (*Layout, error) {
	header, err := HeaderRow(v, prefix)
	if err != nil {
		return nil, err
	}
	entities, err := EntityColumns(v, header, prefix)
	if err != nil {
		return nil, err
	}
	metricCol, err := MetricColumn(v, header, entities, prefix)
	if err != nil {
		return nil, err
	}
	metrics, err := MetricRows(v, metricCol)
	if err != nil {
		return nil, err
	}
	return &Layout{
		HeaderRow:  header,
		EntityCols: entities,
		MetricCol:  metricCol,
		MetricRows: metrics,
	}, nil
}

// HeaderRow returns the row with the most cells starting with prefix
// (case-insensitive). The topmost row wins a tie.
func HeaderRow(v grid.View, prefix string) (int, error) {
	best, bestCount := 0, 0
	for r := 1; r <= v.Rows(); r++ {
		count := 0
		for c := 1; c <= v.Cols(); c++ {
			if hasPrefix(v.Cell(r, c), prefix) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = r, count
		}
	}
	if bestCount == 0 {
		return 0, ErrNoHeaderRow
	}
	return best, nil
}

// EntityColumns maps each firm label on the header row to its column. Only
// the first contiguous run of prefixed cells counts: the first non-prefixed
// cell after the run ends the scan, so repeated header blocks further right
// are ignored.
func EntityColumns(v grid.View, headerRow int, prefix string) (map[string]int, error) {
	cols := make(map[string]int)
	started := false
	for c := 1; c <= v.Cols(); c++ {
		s := v.Cell(headerRow, c)
		if !hasPrefix(s, prefix) {
			if started {
				break
			}
			continue
		}
		started = true
		name := model.EntityKey(s)
		if _, ok := cols[name]; !ok {
			cols[name] = c
		}
	}
	if len(cols) == 0 {
		return nil, ErrNoEntityColumns
	}
	return cols, nil
}

// MetricColumn returns the non-firm column holding the most text labels,
// ignoring the header row, firm-prefixed cells and anything numeric-looking.
// The leftmost column wins a tie.
func MetricColumn(v grid.View, headerRow int, entityCols map[string]int, prefix string) (int, error) {
	skip := make(map[int]bool, len(entityCols))
	for _, c := range entityCols {
		skip[c] = true
	}

	best, bestScore := 0, 0
	for c := 1; c <= v.Cols(); c++ {
		if skip[c] {
			continue
		}
		score := 0
		for r := 1; r <= v.Rows(); r++ {
			if r == headerRow {
				continue
			}
			s := v.Cell(r, c)
			if s == "" || hasPrefix(s, prefix) || cell.LooksNumeric(s) {
				continue
			}
			score++
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	if bestScore == 0 {
		return 0, ErrNoMetricColumn
	}
	return best, nil
}

// MetricRows maps every folded label in the metric column to the first row it
// appears on. Later repeats do not overwrite.
func MetricRows(v grid.View, metricCol int) (map[string]int, error) {
	rows := make(map[string]int)
	for r := 1; r <= v.Rows(); r++ {
		key := model.MetricKey(v.Cell(r, metricCol))
		if key == "" {
			continue
		}
		if _, ok := rows[key]; !ok {
			rows[key] = r
		}
	}
	if len(rows) == 0 {
		return nil, ErrNoMetricLabels
	}
	return rows, nil
}

// hasPrefix folds both sides the same way entity labels are keyed. The prefix
// keeps its separator, so "FIRM " does not match "FIRMA".
func hasPrefix(s, prefix string) bool {
	return strings.HasPrefix(model.EntityKey(s), model.EntityPrefixKey(prefix))
}
