// Package pipeline runs the per-period fill: extract a round file into the
// long-form dataset, locate the layout of its year sheet, and write the values.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/dashboard-fill/internal/aggregate"
	"github.com/sells-group/dashboard-fill/internal/grid"
	"github.com/sells-group/dashboard-fill/internal/locate"
	"github.com/sells-group/dashboard-fill/internal/model"
	"github.com/sells-group/dashboard-fill/internal/workbook"
	"github.com/sells-group/dashboard-fill/internal/writer"
)

// Settings name the sheets and scan parameters of a run.
type Settings struct {
	Scan                 aggregate.Params
	FinancialSheetPrefix string
	YearSheetPrefix      string
	Concurrency          int
}

// Recorder persists period outcomes.
type Recorder interface {
	SavePeriod(ctx context.Context, runID string, period model.PeriodResult, records []model.Record) error
}

// Pipeline fills dashboard year sheets from round files.
type Pipeline struct {
	settings Settings
	aliases  model.Aliases
	recorder Recorder
}

// New creates a Pipeline. recorder may be nil.
func New(settings Settings, aliases model.Aliases, recorder Recorder) *Pipeline {
	return &Pipeline{settings: settings, aliases: aliases, recorder: recorder}
}

// Fill locates the layout of dst and writes records into it. Layout errors
// are the locate sentinels and leave dst untouched.
func Fill(dst grid.Store, records []model.Record, prefix string) (*locate.Layout, writer.Result, error) {
	layout, err := locate.Locate(dst, prefix)
	if err != nil {
		return nil, writer.Result{}, err
	}
	res, err := writer.Write(dst, layout, records)
	return layout, res, err
}

// Run fills one year sheet of tpl per round. Rounds whose year sheet is
// missing are skipped; rounds that cannot be read or located are marked
// failed. Neither stops the remaining rounds. The returned periods follow the
// order of rounds. Every period, skipped ones included, goes to the recorder.
func (p *Pipeline) Run(ctx context.Context, runID string, rounds []workbook.RoundFile, tpl *workbook.Template) ([]model.PeriodResult, error) {
	log := zap.L().With(zap.String("run_id", runID))
	start := time.Now()

	periods := make([]model.PeriodResult, len(rounds))
	var todo []workbook.RoundFile
	var slots []int
	for i, rf := range rounds {
		sheet := YearSheetName(p.settings.YearSheetPrefix, rf.Round)
		periods[i] = model.PeriodResult{Round: rf.Round, SourceFile: rf.Name, Sheet: sheet}
		if !tpl.HasSheet(sheet) {
			log.Info("pipeline: skipping round, no matching year sheet in template",
				zap.String("file", rf.Name), zap.String("sheet", sheet))
			periods[i].Status = model.PeriodStatusSkipped
			continue
		}
		todo = append(todo, rf)
		slots = append(slots, i)
	}

	extractions, err := ExtractAll(ctx, todo, p.settings, p.aliases)
	if err != nil {
		return nil, err
	}

	records := make([][]model.Record, len(rounds))
	for j, ext := range extractions {
		i := slots[j]
		records[i] = p.fillPeriod(log, &periods[i], ext, tpl)
	}

	if p.recorder != nil {
		for i, period := range periods {
			if err := p.recorder.SavePeriod(ctx, runID, period, records[i]); err != nil {
				log.Warn("pipeline: failed to record period", zap.String("sheet", period.Sheet), zap.Error(err))
			}
		}
	}

	log.Info("pipeline: run finished",
		zap.Int("rounds", len(rounds)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return periods, nil
}

func (p *Pipeline) fillPeriod(log *zap.Logger, period *model.PeriodResult, ext Extraction, tpl *workbook.Template) []model.Record {
	log = log.With(zap.String("file", ext.Round.Name), zap.String("sheet", period.Sheet))

	if ext.Err != nil {
		period.Status = model.PeriodStatusFailed
		period.Error = ext.Err.Error()
		return nil
	}

	records := ext.Result.Records
	period.Records = len(records)
	period.Duplicates = ext.Result.Duplicates
	period.EmptySources = ext.Result.Empty
	if ext.Result.Duplicates > 0 {
		log.Info("pipeline: collapsed duplicate metrics, last value kept", zap.Int("duplicates", ext.Result.Duplicates))
	}

	sheet, err := tpl.Sheet(period.Sheet)
	if err != nil {
		period.Status = model.PeriodStatusFailed
		period.Error = err.Error()
		log.Error("pipeline: load year sheet", zap.Error(err))
		return records
	}

	layout, res, err := Fill(sheet, records, p.settings.Scan.EntityPrefix)
	if layout != nil {
		period.HeaderRow = layout.HeaderRow
		period.MetricCol = layout.MetricCol
		period.Entities = len(layout.EntityCols)
	}
	period.Written = res.Written
	period.Unresolved = res.Unresolved
	if err != nil {
		period.Status = model.PeriodStatusFailed
		period.Error = err.Error()
		log.Error("pipeline: fill year sheet", zap.Error(err))
		return records
	}

	period.Status = model.PeriodStatusFilled
	log.Info("pipeline: wrote cells",
		zap.Int("written", res.Written),
		zap.Int("unresolved", res.Unresolved),
		zap.Int("header_row", layout.HeaderRow),
		zap.Int("metric_col", layout.MetricCol),
	)
	return records
}
