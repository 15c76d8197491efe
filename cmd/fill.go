package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dashboard-fill/internal/config"
	"github.com/sells-group/dashboard-fill/internal/model"
	"github.com/sells-group/dashboard-fill/internal/pipeline"
	"github.com/sells-group/dashboard-fill/internal/store"
	"github.com/sells-group/dashboard-fill/internal/workbook"
)

var fillDryRun bool

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Fill every year sheet of the dashboard from the round files in --dir",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		report, err := runFill(ctx, cfg, workDir, fillDryRun, st)
		if err != nil {
			return err
		}
		formatFillReport(os.Stdout, report)

		if report.Status == model.RunStatusFailed {
			return eris.New("fill: no year sheet could be filled")
		}
		return nil
	},
}

func init() {
	fillCmd.Flags().BoolVar(&fillDryRun, "dry-run", false, "run every inference and report counts without saving the dashboard")
	rootCmd.AddCommand(fillCmd)
}

// fillReport is what one fill invocation did.
type fillReport struct {
	RunID   string
	Output  string
	DryRun  bool
	Saved   bool
	Status  model.RunStatus
	Periods []model.PeriodResult
}

// runFill processes every round file in dir into its year sheet of the
// template and saves the result unless dryRun is set or every period failed.
// st may be nil.
func runFill(ctx context.Context, c *config.Config, dir string, dryRun bool, st store.Store) (*fillReport, error) {
	rounds, err := workbook.DiscoverRounds(dir, c.InputPrefix)
	if err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return nil, eris.Errorf("fill: no round files starting with %q in %s", c.InputPrefix, dir)
	}

	tplPath := config.Resolve(dir, c.DashboardTemplateName)
	outPath := config.Resolve(dir, c.OutputDashboardName)

	tpl, err := workbook.OpenTemplate(tplPath)
	if err != nil {
		return nil, err
	}
	defer tpl.Close() //nolint:errcheck

	aliases, err := config.LoadAliases(config.Resolve(dir, c.MetricAliasesPath))
	if err != nil {
		return nil, err
	}

	report := &fillReport{Output: outPath, DryRun: dryRun}
	var recorder pipeline.Recorder
	if st != nil {
		run, err := st.CreateRun(ctx, tplPath, outPath, dryRun)
		if err != nil {
			return nil, eris.Wrap(err, "fill: create run")
		}
		report.RunID = run.ID
		recorder = st
	} else {
		report.RunID = uuid.New().String()
	}

	zap.L().Info("fill: starting",
		zap.String("run_id", report.RunID),
		zap.String("template", tplPath),
		zap.Int("rounds", len(rounds)),
		zap.Int("aliases", len(aliases)),
		zap.Bool("dry_run", dryRun),
	)

	settings := pipeline.Settings{
		Scan:                 c.ScanParams(),
		FinancialSheetPrefix: c.FinancialSheetPrefix,
		YearSheetPrefix:      c.YearSheetPrefix,
		Concurrency:          c.Concurrency,
	}
	periods, err := pipeline.New(settings, aliases, recorder).Run(ctx, report.RunID, rounds, tpl)
	if err != nil {
		finishRun(ctx, st, report.RunID, model.RunStatusFailed)
		return nil, eris.Wrap(err, "fill: run pipeline")
	}
	report.Periods = periods
	report.Status = model.Summarize(periods)

	if !dryRun && report.Status != model.RunStatusFailed {
		if err := tpl.SaveAs(outPath); err != nil {
			finishRun(ctx, st, report.RunID, model.RunStatusFailed)
			return nil, err
		}
		report.Saved = true
		zap.L().Info("fill: saved dashboard", zap.String("path", outPath))
	}

	finishRun(ctx, st, report.RunID, report.Status)
	return report, nil
}

func finishRun(ctx context.Context, st store.Store, runID string, status model.RunStatus) {
	if st == nil {
		return
	}
	if err := st.FinishRun(ctx, runID, status); err != nil {
		zap.L().Warn("fill: failed to record run status", zap.String("run_id", runID), zap.Error(err))
	}
}

// formatFillReport writes a per-period table followed by the outcome.
func formatFillReport(out io.Writer, r *fillReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ROUND\tSHEET\tSTATUS\tRECORDS\tWRITTEN\tUNRESOLVED\tDUPLICATES\tNOTE")
	_, _ = fmt.Fprintln(w, "-----\t-----\t------\t-------\t-------\t----------\t----------\t----")
	for _, p := range r.Periods {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			p.Round, p.Sheet, p.Status, p.Records, p.Written, p.Unresolved, p.Duplicates, periodNote(p))
	}
	_ = w.Flush()

	switch {
	case r.Saved:
		_, _ = fmt.Fprintf(out, "\nRun %s %s; saved %s\n", truncateID(r.RunID), r.Status, r.Output)
	case r.DryRun:
		_, _ = fmt.Fprintf(out, "\nRun %s %s; dry run, nothing saved\n", truncateID(r.RunID), r.Status)
	default:
		_, _ = fmt.Fprintf(out, "\nRun %s %s; nothing saved\n", truncateID(r.RunID), r.Status)
	}
}

func periodNote(p model.PeriodResult) string {
	switch {
	case p.Error != "":
		return p.Error
	case p.Status == model.PeriodStatusSkipped:
		return "no year sheet in template"
	case len(p.EmptySources) > 0:
		return fmt.Sprintf("no pairs from %d firm sheet(s)", len(p.EmptySources))
	default:
		return ""
	}
}
