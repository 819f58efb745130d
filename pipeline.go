// Package armabench backtests classical ARMA specifications on a monthly
// price series. A pipeline resamples raw prices to monthly frequency, derives
// log returns, gates on an augmented Dickey-Fuller test, selects orders by
// AIC/BIC grid search, produces dynamic and static out-of-sample forecasts,
// and scores them with pointwise metrics and Diebold-Mariano comparisons.
package armabench

import (
	"errors"
	"fmt"
	"sort"

	"github.com/avelsher/armabench/evaluate"
	"github.com/avelsher/armabench/harness"
	"github.com/avelsher/armabench/order"
	"github.com/avelsher/armabench/resample"
	"github.com/avelsher/armabench/stationarity"
	"github.com/avelsher/armabench/timedataset"
	"gonum.org/v1/gonum/stat"
)

var ErrNotRun = errors.New("pipeline has not produced a report yet")

type runPair struct {
	dynamic *harness.Result
	static  *harness.StaticResult
}

// Pipeline runs the full backtest and retains the intermediate series so
// plots can be rendered after the fact.
type Pipeline struct {
	opt *Options

	monthly *timedataset.TimeDataset
	returns *timedataset.TimeDataset
	pairs   map[order.Order]runPair
	report  *Report
}

// New creates a Pipeline with the provided options. If no options are
// provided a default is used.
func New(opt *Options) *Pipeline {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	return &Pipeline{
		opt:   opt,
		pairs: make(map[order.Order]runPair),
	}
}

// Run executes the pipeline over raw (date, price) observations and returns
// the assembled report. The stationarity gate fails fast on a non-stationary
// return series unless SkipStationarityGate is set.
func (p *Pipeline) Run(raw *timedataset.TimeDataset) (*Report, error) {
	monthly, err := resample.Monthly(raw)
	if err != nil {
		return nil, fmt.Errorf("unable to resample to monthly frequency, %w", err)
	}
	p.monthly = monthly

	returns, err := monthly.LogReturns()
	if err != nil {
		return nil, fmt.Errorf("unable to derive log returns, %w", err)
	}
	p.returns = returns

	report := &Report{
		Returns: summarize(returns.Y),
		Horizon: p.opt.Horizon,
	}
	for _, g := range resample.Gaps(monthly) {
		report.CalendarGaps = append(report.CalendarGaps, Gap{Observed: g.Observed, Expected: g.Expected})
	}

	verdict, err := p.checkStationarity(returns)
	if err != nil {
		return nil, err
	}
	report.Stationarity = verdict

	sel, err := order.Search(returns, p.opt.MaxP, p.opt.MaxQ)
	if err != nil {
		return nil, fmt.Errorf("unable to select model order, %w", err)
	}
	report.Selection = sel

	for _, o := range p.candidates(sel) {
		pair, runs, err := p.forecast(returns, o)
		if err != nil {
			return nil, err
		}
		p.pairs[o] = pair
		report.Runs = append(report.Runs, runs...)
	}

	comparisons, err := p.compare(sel)
	if err != nil {
		return nil, err
	}
	report.Comparisons = comparisons

	p.report = report
	return report, nil
}

// Report returns the result of the last Run.
func (p *Pipeline) Report() (*Report, error) {
	if p.report == nil {
		return nil, ErrNotRun
	}
	return p.report, nil
}

func (p *Pipeline) checkStationarity(returns *timedataset.TimeDataset) (*stationarity.Verdict, error) {
	opt := p.opt.stationarityOptions()
	if p.opt.SkipStationarityGate {
		verdict, err := stationarity.Check(returns, opt)
		if err != nil {
			return nil, fmt.Errorf("unable to test stationarity, %w", err)
		}
		return verdict, nil
	}
	verdict, err := stationarity.Require(returns, opt)
	if err != nil {
		return nil, fmt.Errorf("return series failed stationarity gate, %w", err)
	}
	return verdict, nil
}

// candidates are the AIC winner, the BIC winner, and the constant-mean
// baseline, deduplicated and ordered low p then low q.
func (p *Pipeline) candidates(sel *order.Selection) []order.Order {
	set := map[order.Order]struct{}{
		{}:        {},
		sel.ByAIC: {},
		sel.ByBIC: {},
	}
	out := make([]order.Order, 0, len(set))
	for o := range set {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].P != out[j].P {
			return out[i].P < out[j].P
		}
		return out[i].Q < out[j].Q
	})
	return out
}

func (p *Pipeline) forecast(returns *timedataset.TimeDataset, o order.Order) (runPair, []Run, error) {
	dynamic, err := harness.Dynamic(returns, o, p.opt.Horizon)
	if err != nil {
		return runPair{}, nil, fmt.Errorf("dynamic forecast for %s, %w", o, err)
	}
	static, err := harness.Static(returns, o, p.opt.Horizon, p.opt.StaticOptions)
	if err != nil {
		return runPair{}, nil, fmt.Errorf("static forecast for %s, %w", o, err)
	}

	dynAcc, err := evaluate.Score(dynamic.Predicted, dynamic.Actual)
	if err != nil {
		return runPair{}, nil, fmt.Errorf("scoring dynamic %s, %w", o, err)
	}
	statAcc, err := evaluate.Score(static.Predicted, static.Actual)
	if err != nil {
		return runPair{}, nil, fmt.Errorf("scoring static %s, %w", o, err)
	}

	runs := []Run{
		{Order: o, Mode: ModeDynamic, Accuracy: dynAcc, FitCount: dynamic.FitCount},
		{Order: o, Mode: ModeStatic, Accuracy: statAcc, FitCount: static.FitCount, FailedSteps: len(static.Failed)},
	}
	return runPair{dynamic: dynamic, static: static}, runs, nil
}

func (p *Pipeline) compare(sel *order.Selection) ([]Comparison, error) {
	var comparisons []Comparison

	add := func(name string, loss1, loss2 []float64, horizon int) error {
		res, err := evaluate.DieboldMariano(loss1, loss2, p.opt.dmOptions(horizon))
		if err != nil {
			return fmt.Errorf("comparison %q, %w", name, err)
		}
		comparisons = append(comparisons, Comparison{Name: name, Result: res})
		return nil
	}

	for _, o := range p.candidates(sel) {
		pair := p.pairs[o]
		dynLoss, err := evaluate.SquaredLoss(pair.dynamic.Predicted, pair.dynamic.Actual)
		if err != nil {
			return nil, err
		}
		statLoss, err := evaluate.SquaredLoss(pair.static.Predicted, pair.static.Actual)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("%s dynamic vs static", o)
		if err := add(name, dynLoss, statLoss, p.opt.Horizon); err != nil {
			return nil, err
		}
	}

	baseline := order.Order{}
	if sel.ByAIC != baseline {
		best := p.pairs[sel.ByAIC]
		base := p.pairs[baseline]

		bestLoss, err := evaluate.SquaredLoss(best.static.Predicted, best.static.Actual)
		if err != nil {
			return nil, err
		}
		baseLoss, err := evaluate.SquaredLoss(base.static.Predicted, base.static.Actual)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("static %s vs %s", sel.ByAIC, baseline)
		if err := add(name, bestLoss, baseLoss, 1); err != nil {
			return nil, err
		}
	}
	return comparisons, nil
}

func summarize(y []float64) SummaryStats {
	sorted := make([]float64, len(y))
	copy(sorted, y)
	sort.Float64s(sorted)

	return SummaryStats{
		N:      len(y),
		Mean:   stat.Mean(y, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		StdDev: stat.StdDev(y, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}
