package workbook

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/dashboard-fill/internal/grid"
)

// Source is an opened round workbook holding one sheet per firm.
type Source struct {
	f *xlsx.File
}

// OpenSource opens a round workbook for reading.
func OpenSource(path string) (*Source, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "workbook: open source %s", path)
	}
	return &Source{f: f}, nil
}

// SheetNames lists the sheets in workbook order.
func (s *Source) SheetNames() []string {
	names := make([]string, 0, len(s.f.Sheets))
	for _, sh := range s.f.Sheets {
		names = append(names, sh.Name)
	}
	return names
}

// Grid returns the contents of the named sheet as formatted, trimmed
// strings. The second result is false when the sheet does not exist.
func (s *Source) Grid(name string) (*grid.Grid, bool) {
	sheet, ok := s.f.Sheet[name]
	if !ok {
		return nil, false
	}
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rows = append(rows, rowToStrings(row))
	}
	return grid.New(rows), true
}

func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		cells[j] = cellText(cell)
	}
	return cells
}

// cellText returns the stored value of numeric cells, so number formats such
// as "0" or "0.0%" never round or rescale what gets copied. Dates and text
// keep their formatted form.
func cellText(c *xlsx.Cell) string {
	if c.Type() == xlsx.CellTypeNumeric && !c.IsTime() {
		if v, err := c.Float(); err == nil {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return c.Value
	}
	s, err := c.FormattedValue()
	if err != nil {
		return c.Value
	}
	return s
}
