package writer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dashboard-fill/internal/aggregate"
	"github.com/sells-group/dashboard-fill/internal/grid"
	"github.com/sells-group/dashboard-fill/internal/locate"
	"github.com/sells-group/dashboard-fill/internal/model"
)

func destination() *grid.Grid {
	rows := make([][]string, 11)
	for i := range rows {
		rows[i] = make([]string, 4)
	}
	rows[1] = []string{"", "", "FIRM A", "FIRM B"}
	rows[9][0] = "revenue"
	rows[10][0] = "cogs"
	rows[10][3] = "keep"
	return grid.New(rows)
}

func TestWrite_EndToEnd(t *testing.T) {
	sources := func(entity string) (*grid.Grid, bool, error) {
		switch entity {
		case "A":
			return grid.New([][]string{{"Revenue", "1,000"}, {"COGS", "(400)"}}), true, nil
		case "B":
			return grid.New([][]string{{"Revenue", "2,000"}}), true, nil
		}
		return nil, false, nil
	}
	params := aggregate.Params{
		Entities:     []string{"A", "B"},
		EntityPrefix: "FIRM ",
		MaxRows:      250,
		MaxCols:      30,
		LookRightMax: 4,
	}
	agg, err := aggregate.Aggregate(params, sources, model.Aliases{})
	require.NoError(t, err)

	dst := destination()
	layout, err := locate.Locate(dst, "FIRM ")
	require.NoError(t, err)

	res, err := Write(dst, layout, agg.Records)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Written)
	assert.Zero(t, res.Unresolved)
	assert.Equal(t, "1000", dst.Cell(10, 3))
	assert.Equal(t, "2000", dst.Cell(10, 4))
	assert.Equal(t, "-400", dst.Cell(11, 3))
	assert.Equal(t, "keep", dst.Cell(11, 4))
}

func TestWrite_Idempotent(t *testing.T) {
	records := []model.Record{
		{Metric: "revenue", Firm: "FIRM A", Value: 10},
		{Metric: "cogs", Firm: "FIRM B", Value: -3},
	}
	dst := destination()
	layout, err := locate.Locate(dst, "FIRM ")
	require.NoError(t, err)

	_, err = Write(dst, layout, records)
	require.NoError(t, err)
	first := snapshot(dst)

	res, err := Write(dst, layout, records)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Written)
	assert.Equal(t, first, snapshot(dst))
}

func TestWrite_UnresolvedSkipped(t *testing.T) {
	records := []model.Record{
		{Metric: "headcount", Firm: "FIRM A", Value: 7},
		{Metric: "revenue", Firm: "FIRM Z", Value: 8},
		{Metric: "Revenue", Firm: "firm a", Value: 9},
	}
	dst := destination()
	layout, err := locate.Locate(dst, "FIRM ")
	require.NoError(t, err)

	res, err := Write(dst, layout, records)
	require.NoError(t, err)
	assert.Equal(t, Result{Written: 1, Unresolved: 2}, res)
	assert.Equal(t, "9", dst.Cell(10, 3))
}

type failingStore struct{ *grid.Grid }

func (failingStore) SetNumber(int, int, float64) error { return errors.New("read-only") }

func TestWrite_StoreError(t *testing.T) {
	dst := destination()
	layout, err := locate.Locate(dst, "FIRM ")
	require.NoError(t, err)

	_, err = Write(failingStore{dst}, layout, []model.Record{{Metric: "revenue", Firm: "FIRM A", Value: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revenue/FIRM A")
}

func snapshot(g *grid.Grid) [][]string {
	out := make([][]string, g.Rows())
	for r := range out {
		out[r] = grid.Row(g, r+1)
	}
	return out
}
