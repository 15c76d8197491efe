package main

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dashboard-fill/internal/aggregate"
	"github.com/sells-group/dashboard-fill/internal/config"
	"github.com/sells-group/dashboard-fill/internal/model"
	"github.com/sells-group/dashboard-fill/internal/pipeline"
)

var extractFormat string

var extractCmd = &cobra.Command{
	Use:   "extract <round-file>",
	Short: "Print the metric/firm/value records scanned from one round file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if extractFormat != "csv" && extractFormat != "json" {
			return eris.Errorf("extract: unknown format %q (want csv or json)", extractFormat)
		}

		aliases, err := config.LoadAliases(config.Resolve(workDir, cfg.MetricAliasesPath))
		if err != nil {
			return err
		}

		settings := pipeline.Settings{
			Scan:                 cfg.ScanParams(),
			FinancialSheetPrefix: cfg.FinancialSheetPrefix,
		}
		path := config.Resolve(workDir, args[0])
		res, err := pipeline.ExtractRound(path, settings, aliases)
		if err != nil {
			return err
		}

		zap.L().Info("extract: done",
			zap.String("file", path),
			zap.Int("records", len(res.Records)),
			zap.Int("duplicates", res.Duplicates),
			zap.Strings("empty_sources", res.Empty),
			zap.Strings("missing_sources", res.Missing),
		)

		if extractFormat == "json" {
			return writeRecordsJSON(os.Stdout, res)
		}
		return writeRecordsCSV(os.Stdout, res.Records)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractFormat, "format", "csv", "output format: csv or json")
	rootCmd.AddCommand(extractCmd)
}

// writeRecordsCSV writes records as metric,firm,value with a header row.
func writeRecordsCSV(out io.Writer, records []model.Record) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"metric", "firm", "value"}); err != nil {
		return eris.Wrap(err, "extract: write csv header")
	}
	for _, r := range records {
		if err := w.Write([]string{r.Metric, r.Firm, strconv.FormatFloat(r.Value, 'f', -1, 64)}); err != nil {
			return eris.Wrap(err, "extract: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "extract: flush csv")
}

type extractOutput struct {
	Records    []model.Record `json:"records"`
	Duplicates int            `json:"duplicates"`
	Empty      []string       `json:"empty_sources,omitempty"`
	Missing    []string       `json:"missing_sources,omitempty"`
}

func writeRecordsJSON(out io.Writer, res *aggregate.Result) error {
	records := res.Records
	if records == nil {
		records = []model.Record{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(extractOutput{
		Records:    records,
		Duplicates: res.Duplicates,
		Empty:      res.Empty,
		Missing:    res.Missing,
	})
}
