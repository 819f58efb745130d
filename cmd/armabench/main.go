// Command armabench backtests ARMA forecasts of monthly log returns over a
// raw (date, closing price) CSV and writes the numeric report as JSON plus an
// optional HTML chart page.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/avelsher/armabench"
	"github.com/avelsher/armabench/harness"
	"github.com/avelsher/armabench/timedataset"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	inputPath    string
	priceColumn  string
	dateColumn   string
	dateFormat   string
	horizon      int
	maxP         int
	maxQ         int
	significance float64
	skipGate     bool
	parallelism  int
	outJSON      string
	outHTML      string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "armabench",
	Short: "ARMA backtesting over monthly log returns",
	Long: `armabench loads a (date, closing price) CSV, resamples to monthly
frequency, derives log returns, selects ARMA orders by AIC/BIC grid search,
and evaluates dynamic and static out-of-sample forecasts with RMSE/MAE/MAPE
and Diebold-Mariano comparisons.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&inputPath, "input", "", "path to the price CSV (required)")
	rootCmd.Flags().StringVar(&priceColumn, "price-col", "", "price column header, auto-detected when empty")
	rootCmd.Flags().StringVar(&dateColumn, "date-col", "", "date column header, auto-detected when empty")
	rootCmd.Flags().StringVar(&dateFormat, "date-format", "1/2/2006", "Go reference layout of the date column")
	rootCmd.Flags().IntVar(&horizon, "horizon", 12, "out-of-sample horizon in months")
	rootCmd.Flags().IntVar(&maxP, "max-p", 5, "inclusive AR order bound of the grid search")
	rootCmd.Flags().IntVar(&maxQ, "max-q", 5, "inclusive MA order bound of the grid search")
	rootCmd.Flags().Float64Var(&significance, "significance", 0.05, "significance level for the stationarity gate and DM tests")
	rootCmd.Flags().BoolVar(&skipGate, "skip-stationarity-gate", false, "record the unit-root verdict without enforcing it")
	rootCmd.Flags().IntVar(&parallelism, "parallelism", 1, "worker pool size for static-harness refits")
	rootCmd.Flags().StringVar(&outJSON, "out-json", "", "write the report as JSON to this path, stdout when empty")
	rootCmd.Flags().StringVar(&outHTML, "out-html", "", "write the chart page to this path, skipped when empty")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "zerolog level: debug, info, warn, error")

	cobra.CheckErr(rootCmd.MarkFlagRequired("input"))
}

func run(cmd *cobra.Command, args []string) error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("unable to parse log level %q, %w", logLevel, err)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(level)

	csvOpt := timedataset.NewDefaultCSVOptions()
	csvOpt.PriceColumn = priceColumn
	csvOpt.DateColumn = dateColumn
	csvOpt.DateFormat = dateFormat

	raw, err := timedataset.LoadCSVFile(inputPath, csvOpt)
	if err != nil {
		return fmt.Errorf("unable to load %s, %w", inputPath, err)
	}
	log.Info().Int("observations", raw.Len()).Str("input", inputPath).Msg("loaded price series")

	opt := armabench.NewDefaultOptions()
	opt.Horizon = horizon
	opt.MaxP = maxP
	opt.MaxQ = maxQ
	opt.Significance = significance
	opt.SkipStationarityGate = skipGate
	opt.StaticOptions = &harness.StaticOptions{Parallelism: parallelism}

	pipeline := armabench.New(opt)
	started := time.Now()
	report, err := pipeline.Run(raw)
	if err != nil {
		return err
	}
	log.Info().
		Dur("elapsed", time.Since(started)).
		Int("months", report.Returns.N+1).
		Str("by_aic", report.Selection.ByAIC.String()).
		Str("by_bic", report.Selection.ByBIC.String()).
		Msg("pipeline complete")

	for _, gap := range report.CalendarGaps {
		log.Warn().
			Time("observed", gap.Observed).
			Time("expected", gap.Expected).
			Msg("month ends before last trading session")
	}
	for _, r := range report.Runs {
		log.Debug().
			Str("order", r.Order.String()).
			Str("mode", string(r.Mode)).
			Float64("rmse", r.Accuracy.RMSE).
			Int("failed_steps", r.FailedSteps).
			Msg("run scored")
	}

	if err := writeJSON(report); err != nil {
		return err
	}
	if outHTML != "" {
		if err := pipeline.PlotFile(outHTML); err != nil {
			return fmt.Errorf("unable to render charts, %w", err)
		}
		log.Info().Str("path", outHTML).Msg("wrote chart page")
	}
	return nil
}

func writeJSON(report *armabench.Report) error {
	buf, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to serialize report, %w", err)
	}
	if outJSON == "" {
		_, err = os.Stdout.Write(append(buf, '\n'))
		return err
	}
	if err := os.WriteFile(outJSON, append(buf, '\n'), 0o644); err != nil {
		return fmt.Errorf("unable to write %s, %w", outJSON, err)
	}
	log.Info().Str("path", outJSON).Msg("wrote report")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
