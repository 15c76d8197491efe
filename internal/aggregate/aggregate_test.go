package aggregate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dashboard-fill/internal/grid"
	"github.com/sells-group/dashboard-fill/internal/model"
)

func testParams(entities ...string) Params {
	return Params{
		Entities:     entities,
		EntityPrefix: "FIRM ",
		MaxRows:      250,
		MaxCols:      30,
		LookRightMax: 4,
	}
}

func sourcesOf(grids map[string][][]string) SourceFunc {
	return func(entity string) (*grid.Grid, bool, error) {
		rows, ok := grids[entity]
		if !ok {
			return nil, false, nil
		}
		return grid.New(rows), true, nil
	}
}

func TestAggregate_LongDataset(t *testing.T) {
	sources := sourcesOf(map[string][][]string{
		"A": {{"Revenue", "1,000"}, {"COGS", "(400)"}},
		"B": {{"Revenue", "2,000"}},
	})

	res, err := Aggregate(testParams("A", "B"), sources, model.Aliases{})
	require.NoError(t, err)

	assert.Equal(t, []model.Record{
		{Metric: "revenue", Firm: "FIRM A", Value: 1000},
		{Metric: "cogs", Firm: "FIRM A", Value: -400},
		{Metric: "revenue", Firm: "FIRM B", Value: 2000},
	}, res.Records)
	assert.Zero(t, res.Duplicates)
	assert.Empty(t, res.Empty)
	assert.Empty(t, res.Missing)
}

func TestAggregate_AppliesAliases(t *testing.T) {
	sources := sourcesOf(map[string][][]string{
		"A": {{"Starting Inventory", "75"}},
	})
	aliases := model.Aliases{"starting inventory": "beg. inventory"}

	res, err := Aggregate(testParams("A"), sources, aliases)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "beg. inventory", res.Records[0].Metric)
}

func TestAggregate_EmptyAndMissingAreNotFatal(t *testing.T) {
	sources := sourcesOf(map[string][][]string{
		"A": {{"Summary", "Details"}},
		"C": {{"Revenue", "5"}},
	})

	res, err := Aggregate(testParams("A", "B", "C"), sources, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"FIRM A"}, res.Empty)
	assert.Equal(t, []string{"FIRM B"}, res.Missing)
	assert.Equal(t, []model.Record{{Metric: "revenue", Firm: "FIRM C", Value: 5}}, res.Records)
}

func TestAggregate_ScanBounds(t *testing.T) {
	sources := sourcesOf(map[string][][]string{
		"A": {
			{"Revenue", "10", "Hidden", "99"},
			{"COGS", "4"},
			{"Below", "1"},
		},
	})
	p := testParams("A")
	p.MaxRows = 2
	p.MaxCols = 2

	res, err := Aggregate(p, sources, nil)
	require.NoError(t, err)
	assert.Equal(t, []model.Record{
		{Metric: "revenue", Firm: "FIRM A", Value: 10},
		{Metric: "cogs", Firm: "FIRM A", Value: 4},
	}, res.Records)
}

func TestAggregate_DuplicateLastWins(t *testing.T) {
	sources := sourcesOf(map[string][][]string{
		"A": {{"Revenue", "1"}, {"Units", "3"}, {"revenue", "2"}},
	})

	res, err := Aggregate(testParams("A"), sources, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, []model.Record{
		{Metric: "revenue", Firm: "FIRM A", Value: 2},
		{Metric: "units", Firm: "FIRM A", Value: 3},
	}, res.Records)
}

func TestAggregate_SourceError(t *testing.T) {
	sources := func(string) (*grid.Grid, bool, error) {
		return nil, false, errors.New("corrupt sheet")
	}

	_, err := Aggregate(testParams("A"), sources, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIRM A")
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, testParams("A").Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
		want   string
	}{
		{"no entities", func(p *Params) { p.Entities = nil }, "no entities"},
		{"blank entity", func(p *Params) { p.Entities = []string{"A", " "} }, "entity 1"},
		{"blank prefix", func(p *Params) { p.EntityPrefix = " " }, "prefix"},
		{"zero rows", func(p *Params) { p.MaxRows = 0 }, "scan bounds"},
		{"negative cols", func(p *Params) { p.MaxCols = -1 }, "scan bounds"},
		{"zero window", func(p *Params) { p.LookRightMax = 0 }, "look-right"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams("A")
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAggregate_InvalidParamsFailClosed(t *testing.T) {
	_, err := Aggregate(testParams(), sourcesOf(nil), nil)
	require.Error(t, err)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "FIRM A", testParams().Label("a"))
	assert.Equal(t, "FIRM G", testParams().Label(" G "))
}

func TestDedupe(t *testing.T) {
	in := []model.Record{
		{Metric: "revenue", Firm: "FIRM A", Value: 1},
		{Metric: "revenue", Firm: "FIRM B", Value: 5},
		{Metric: "revenue", Firm: "FIRM A", Value: 2},
		{Metric: "revenue", Firm: "FIRM A", Value: 3},
	}

	out, dropped := Dedupe(in)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, []model.Record{
		{Metric: "revenue", Firm: "FIRM A", Value: 3},
		{Metric: "revenue", Firm: "FIRM B", Value: 5},
	}, out)

	out, dropped = Dedupe(nil)
	assert.Empty(t, out)
	assert.Zero(t, dropped)
}
