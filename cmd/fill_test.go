package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"github.com/xuri/excelize/v2"

	"github.com/sells-group/dashboard-fill/internal/config"
	"github.com/sells-group/dashboard-fill/internal/model"
	"github.com/sells-group/dashboard-fill/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		DashboardTemplateName: "Dashboard.xlsx",
		OutputDashboardName:   "Dashboard_UPDATED.xlsx",
		InputPrefix:           "Competition - Financial Summary - Year ",
		FinancialSheetPrefix:  "Financial Details for ",
		Firms:                 []string{"A", "B"},
		YearSheetPrefix:       "Year ",
		FirmPrefix:            "FIRM ",
		ScanMaxRows:           250,
		ScanMaxCols:           30,
		LookRightMax:          4,
		MetricAliasesPath:     "metric_aliases.json",
		Concurrency:           2,
	}
}

func writeRound(t *testing.T, dir string, round string, sheets map[string][][]string) {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, v := range rowData {
				row.AddCell().SetString(v)
			}
		}
	}
	require.NoError(t, f.Save(filepath.Join(dir, "Competition - Financial Summary - Year "+round+".xlsx")))
}

func writeDashboard(t *testing.T, dir string, sheets ...string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck
	for _, name := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(name, "B3", "FIRM A"))
		require.NoError(t, f.SetCellValue(name, "C3", "FIRM B"))
		require.NoError(t, f.SetCellValue(name, "A5", "Revenue"))
		require.NoError(t, f.SetCellValue(name, "A6", "Beg. Inventory"))
	}
	require.NoError(t, f.SaveAs(filepath.Join(dir, "Dashboard.xlsx")))
}

// simDir lays out two rounds, a dashboard with only "Year 1", and an alias file.
func simDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeRound(t, dir, "1", map[string][][]string{
		"Financial Details for A": {{"Income Statement"}, {"Revenue", "$1,200"}, {"Starting Inventory", "(50)"}},
		"Financial Details for B": {{"Revenue", "900", "", "Starting Inventory", "10"}},
	})
	writeRound(t, dir, "2", map[string][][]string{
		"Financial Details for A": {{"Revenue", "1"}},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metric_aliases.json"),
		[]byte(`{"Starting Inventory": "Beg. Inventory"}`), 0o644))
	writeDashboard(t, dir, "Year 1")
	return dir
}

func cellValue(t *testing.T, path, sheet, ref string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	v, err := f.GetCellValue(sheet, ref)
	require.NoError(t, err)
	return v
}

func TestRunFill_WritesDashboard(t *testing.T) {
	dir := simDir(t)

	report, err := runFill(context.Background(), testConfig(), dir, false, nil)
	require.NoError(t, err)

	assert.True(t, report.Saved)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, model.RunStatusComplete, report.Status)
	require.Len(t, report.Periods, 2)
	assert.Equal(t, model.PeriodStatusFilled, report.Periods[0].Status)
	assert.Equal(t, 4, report.Periods[0].Written)
	assert.Equal(t, model.PeriodStatusSkipped, report.Periods[1].Status)

	out := filepath.Join(dir, "Dashboard_UPDATED.xlsx")
	assert.Equal(t, "1200", cellValue(t, out, "Year 1", "B5"))
	assert.Equal(t, "900", cellValue(t, out, "Year 1", "C5"))
	assert.Equal(t, "-50", cellValue(t, out, "Year 1", "B6"))
	assert.Equal(t, "10", cellValue(t, out, "Year 1", "C6"))

	// The template itself is never modified.
	assert.Equal(t, "", cellValue(t, filepath.Join(dir, "Dashboard.xlsx"), "Year 1", "B5"))

	var buf bytes.Buffer
	formatFillReport(&buf, report)
	assert.Contains(t, buf.String(), "Year 1")
	assert.Contains(t, buf.String(), "no year sheet in template")
	assert.Contains(t, buf.String(), "saved")
}

func TestRunFill_DryRunDoesNotSave(t *testing.T) {
	dir := simDir(t)

	report, err := runFill(context.Background(), testConfig(), dir, true, nil)
	require.NoError(t, err)
	assert.False(t, report.Saved)
	assert.Equal(t, 4, report.Periods[0].Written)

	_, err = os.Stat(filepath.Join(dir, "Dashboard_UPDATED.xlsx"))
	assert.True(t, os.IsNotExist(err))

	var buf bytes.Buffer
	formatFillReport(&buf, report)
	assert.Contains(t, buf.String(), "dry run")
}

func TestRunFill_NoRoundFiles(t *testing.T) {
	dir := t.TempDir()
	writeDashboard(t, dir, "Year 1")

	_, err := runFill(context.Background(), testConfig(), dir, false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no round files")
}

func TestRunFill_MissingTemplate(t *testing.T) {
	dir := t.TempDir()
	writeRound(t, dir, "1", map[string][][]string{
		"Financial Details for A": {{"Revenue", "1"}},
	})

	_, err := runFill(context.Background(), testConfig(), dir, false, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open template")
}

func TestRunFill_AllPeriodsFailedSkipsSave(t *testing.T) {
	dir := t.TempDir()
	writeRound(t, dir, "1", map[string][][]string{
		"Financial Details for A": {{"Revenue", "1"}},
	})
	f := excelize.NewFile()
	_, err := f.NewSheet("Year 1")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Year 1", "A1", "no firm headers"))
	require.NoError(t, f.SaveAs(filepath.Join(dir, "Dashboard.xlsx")))
	require.NoError(t, f.Close())

	report, err := runFill(context.Background(), testConfig(), dir, false, nil)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, report.Status)
	assert.False(t, report.Saved)
	assert.Contains(t, report.Periods[0].Error, "header row")
}

func TestRunFill_RecordsHistory(t *testing.T) {
	dir := simDir(t)
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	report, err := runFill(ctx, testConfig(), dir, false, st)
	require.NoError(t, err)

	run, err := st.GetRun(ctx, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, filepath.Join(dir, "Dashboard_UPDATED.xlsx"), run.Output)
	require.Len(t, run.Periods, 2)
	assert.Equal(t, model.PeriodStatusSkipped, run.Periods[1].Status)

	recs, err := st.ListRecords(ctx, report.RunID, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.Record{
		{Metric: "revenue", Firm: "FIRM A", Value: 1200},
		{Metric: "beg. inventory", Firm: "FIRM A", Value: -50},
		{Metric: "revenue", Firm: "FIRM B", Value: 900},
		{Metric: "beg. inventory", Firm: "FIRM B", Value: 10},
	}, recs)
}
