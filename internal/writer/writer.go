// Package writer places long-form records into the cells of a located
// destination sheet.
package writer

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/dashboard-fill/internal/grid"
	"github.com/sells-group/dashboard-fill/internal/locate"
	"github.com/sells-group/dashboard-fill/internal/model"
)

// Result counts what happened to the records of one write.
type Result struct {
	Written    int
	Unresolved int // metric or firm missing from the layout
}

// Write stores each record whose metric and firm both resolve in layout,
// overwriting the cell. Records that do not resolve are counted and skipped.
// Writing the same records twice leaves the same cells.
func Write(dst grid.Store, layout *locate.Layout, records []model.Record) (Result, error) {
	var res Result
	for _, rec := range records {
		row, ok := layout.MetricRows[model.MetricKey(rec.Metric)]
		if !ok {
			res.Unresolved++
			continue
		}
		col, ok := layout.EntityCols[model.EntityKey(rec.Firm)]
		if !ok {
			res.Unresolved++
			continue
		}
		if err := dst.SetNumber(row, col, rec.Value); err != nil {
			return res, eris.Wrapf(err, "writer: %s/%s", rec.Metric, rec.Firm)
		}
		res.Written++
	}
	return res, nil
}
