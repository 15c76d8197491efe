// Package aggregate turns per-firm source grids into the long-form
// (metric, firm, value) dataset.
package aggregate

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dashboard-fill/internal/grid"
	"github.com/sells-group/dashboard-fill/internal/model"
	"github.com/sells-group/dashboard-fill/internal/scan"
)

// Params are the scan settings for one aggregation.
type Params struct {
	Entities     []string // identifiers such as "A", "B"
	EntityPrefix string   // prepended to an identifier to form its label, e.g. "FIRM "
	MaxRows      int
	MaxCols      int
	LookRightMax int
}

// Validate rejects settings the scanner cannot run with.
func (p Params) Validate() error {
	if len(p.Entities) == 0 {
		return eris.New("aggregate: no entities configured")
	}
	for i, e := range p.Entities {
		if strings.TrimSpace(e) == "" {
			return eris.Errorf("aggregate: entity %d is empty", i)
		}
	}
	if strings.TrimSpace(p.EntityPrefix) == "" {
		return eris.New("aggregate: entity prefix is empty")
	}
	if p.MaxRows <= 0 || p.MaxCols <= 0 {
		return eris.Errorf("aggregate: scan bounds must be positive (rows=%d cols=%d)", p.MaxRows, p.MaxCols)
	}
	if p.LookRightMax <= 0 {
		return eris.Errorf("aggregate: look-right window must be positive (got %d)", p.LookRightMax)
	}
	return nil
}

// Label returns the entity label for an identifier: "A" -> "FIRM A".
func (p Params) Label(entity string) string {
	return model.EntityKey(p.EntityPrefix + strings.TrimSpace(entity))
}

// SourceFunc returns the source grid for an entity identifier, or false when
// the entity has no grid in this period.
type SourceFunc func(entity string) (*grid.Grid, bool, error)

// Result is the aggregated dataset of one period.
type Result struct {
	Records    []model.Record
	Duplicates int      // records collapsed by the last-wins rule
	Empty      []string // entity labels whose grid produced no pairs
	Missing    []string // entity labels with no grid at all
}

// Aggregate scans the source grid of every entity in order and returns the
// deduplicated long-form dataset. Entities without a grid or without pairs are
// reported in the result and do not stop aggregation.
func Aggregate(p Params, sources SourceFunc, aliases model.Aliases) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	var records []model.Record
	for _, entity := range p.Entities {
		label := p.Label(entity)

		g, ok, err := sources(entity)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: load source for %s", label)
		}
		if !ok {
			zap.L().Debug("aggregate: no source grid", zap.String("firm", label))
			res.Missing = append(res.Missing, label)
			continue
		}

		pairs := scan.Grid(g.Bound(p.MaxRows, p.MaxCols), p.LookRightMax)
		if len(pairs) == 0 {
			zap.L().Warn("aggregate: extracted 0 metric/value pairs", zap.String("firm", label))
			res.Empty = append(res.Empty, label)
			continue
		}

		for _, pair := range pairs {
			metric := aliases.Canonical(model.MetricKey(pair.Label))
			if metric == "" {
				continue
			}
			records = append(records, model.Record{Metric: metric, Firm: label, Value: pair.Value})
		}
	}

	res.Records, res.Duplicates = Dedupe(records)
	return res, nil
}

// Dedupe collapses records sharing a (metric, firm) key. The last value in
// input order wins; the surviving record keeps the position of the first
// occurrence. It returns the collapsed dataset and how many records were
// dropped.
func Dedupe(records []model.Record) ([]model.Record, int) {
	type key struct{ metric, firm string }

	index := make(map[key]int, len(records))
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		k := key{r.Metric, r.Firm}
		if i, ok := index[k]; ok {
			out[i].Value = r.Value
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out, len(records) - len(out)
}
