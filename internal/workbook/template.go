package workbook

import (
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/sells-group/dashboard-fill/internal/grid"
)

// Template is the dashboard workbook values are written into. excelize keeps
// the template's styles, formulas and charts intact on save.
type Template struct {
	f *excelize.File
}

// OpenTemplate opens the dashboard template.
func OpenTemplate(path string) (*Template, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "workbook: open template %s", path)
	}
	return &Template{f: f}, nil
}

// HasSheet reports whether the template contains the named sheet.
func (t *Template) HasSheet(name string) bool {
	idx, err := t.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Sheet loads the named sheet as a writable grid.
func (t *Template) Sheet(name string) (*Sheet, error) {
	if !t.HasSheet(name) {
		return nil, eris.Errorf("workbook: template has no sheet %q", name)
	}
	rows, err := t.f.GetRows(name)
	if err != nil {
		return nil, eris.Wrapf(err, "workbook: read sheet %q", name)
	}
	return &Sheet{f: t.f, name: name, Grid: grid.New(rows)}, nil
}

// SaveAs writes the workbook, including every value set through its sheets,
// to path.
func (t *Template) SaveAs(path string) error {
	return eris.Wrapf(t.f.SaveAs(path), "workbook: save %s", path)
}

// Close releases the workbook.
func (t *Template) Close() error {
	return t.f.Close()
}

// Sheet is one template sheet. Reads come from the snapshot taken when the
// sheet was loaded; writes go to both the workbook and the snapshot.
type Sheet struct {
	f    *excelize.File
	name string
	*grid.Grid
}

// SetNumber writes v as a numeric cell value.
func (s *Sheet) SetNumber(row, col int, v float64) error {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return eris.Wrapf(err, "workbook: cell (%d,%d)", row, col)
	}
	if err := s.f.SetCellValue(s.name, ref, v); err != nil {
		return eris.Wrapf(err, "workbook: set %s!%s", s.name, ref)
	}
	return s.Grid.SetNumber(row, col, v)
}
