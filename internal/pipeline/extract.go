package pipeline

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dashboard-fill/internal/aggregate"
	"github.com/sells-group/dashboard-fill/internal/grid"
	"github.com/sells-group/dashboard-fill/internal/model"
	"github.com/sells-group/dashboard-fill/internal/workbook"
)

// FirmSheetName returns the round-file sheet holding one firm's figures,
// e.g. "Financial Details for A".
func FirmSheetName(prefix, firm string) string {
	return prefix + firm
}

// YearSheetName returns the dashboard sheet for a round, e.g. "Year 2".
func YearSheetName(prefix string, round int) string {
	return prefix + strconv.Itoa(round)
}

// Extraction is the aggregated dataset of one round file. Err is set when
// the file could not be read; it does not stop other rounds.
type Extraction struct {
	Round  workbook.RoundFile
	Result *aggregate.Result
	Err    error
}

// ExtractRound reads every firm sheet of one round file and aggregates them.
func ExtractRound(path string, s Settings, aliases model.Aliases) (*aggregate.Result, error) {
	src, err := workbook.OpenSource(path)
	if err != nil {
		return nil, err
	}
	sources := func(firm string) (*grid.Grid, bool, error) {
		g, ok := src.Grid(FirmSheetName(s.FinancialSheetPrefix, firm))
		return g, ok, nil
	}
	res, err := aggregate.Aggregate(s.Scan, sources, aliases)
	if err != nil {
		return nil, err
	}
	if len(res.Missing) == len(s.Scan.Entities) {
		zap.L().Warn("pipeline: round file has no firm sheets, check financial_sheet_prefix",
			zap.String("file", path),
			zap.String("prefix", s.FinancialSheetPrefix),
			zap.Strings("sheets", src.SheetNames()),
		)
	}
	return res, nil
}

// ExtractAll extracts the given rounds concurrently, at most s.Concurrency
// files at a time. Results keep the order of rounds.
func ExtractAll(ctx context.Context, rounds []workbook.RoundFile, s Settings, aliases model.Aliases) ([]Extraction, error) {
	out := make([]Extraction, len(rounds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Concurrency, 1))
	for i, rf := range rounds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "pipeline: extraction cancelled")
			}
			res, err := ExtractRound(rf.Path, s, aliases)
			if err != nil {
				zap.L().Error("pipeline: extraction failed", zap.String("file", rf.Name), zap.Error(err))
			}
			out[i] = Extraction{Round: rf, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
