package armabench

import (
	"bytes"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/avelsher/armabench/evaluate"
	"github.com/avelsher/armabench/harness"
	"github.com/avelsher/armabench/order"
	"github.com/avelsher/armabench/stationarity"
	"github.com/avelsher/armabench/timedataset"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticPrices builds a raw daily-ish price dataset spanning months months,
// three observations per month, whose month-end closes follow an AR(1)
// log-return process.
func syntheticPrices(t *testing.T, months int, phi, sigma float64, seed uint64) *timedataset.TimeDataset {
	t.Helper()
	returns := timedataset.GenerateAR1(months-1, phi, sigma, seed)
	closes := timedataset.PriceFromReturns(100, returns)

	var ts []time.Time
	var ys []float64
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for m := 0; m < months; m++ {
		monthStart := start.AddDate(0, m, 0)
		monthEnd := monthStart.AddDate(0, 1, -1)
		// intra-month noise rows the resampler must discard
		ts = append(ts, monthStart.AddDate(0, 0, 4), monthStart.AddDate(0, 0, 14), monthEnd)
		ys = append(ys, closes[m]*1.01, closes[m]*0.99, closes[m])
	}
	ds, err := timedataset.New(ts, ys)
	require.Nil(t, err)
	return ds
}

func TestPipelineEndToEnd(t *testing.T) {
	raw := syntheticPrices(t, 240, 0.3, 0.02, 4)

	opt := NewDefaultOptions()
	opt.MaxP = 2
	opt.MaxQ = 2
	p := New(opt)

	report, err := p.Run(raw)
	require.Nil(t, err)

	assert.Equal(t, 239, report.Returns.N)
	require.NotNil(t, report.Stationarity)
	assert.True(t, report.Stationarity.Stationary)
	require.NotNil(t, report.Selection)
	assert.Len(t, report.Selection.Table, 9)

	require.NotEmpty(t, report.Runs)
	for _, run := range report.Runs {
		require.NotNil(t, run.Accuracy, "%s %s", run.Order, run.Mode)
		assert.GreaterOrEqual(t, run.Accuracy.RMSE, run.Accuracy.MAE)
		switch run.Mode {
		case ModeDynamic:
			assert.Equal(t, 1, run.FitCount)
		case ModeStatic:
			assert.Equal(t, opt.Horizon, run.FitCount)
		}
	}

	// every candidate pairs a dynamic with a static comparison, plus the
	// baseline comparison when the AIC winner has structure
	require.NotEmpty(t, report.Comparisons)
	for _, cmp := range report.Comparisons {
		require.NotNil(t, cmp.Result, cmp.Name)
		assert.GreaterOrEqual(t, cmp.Result.PValue, 0.0)
		assert.LessOrEqual(t, cmp.Result.PValue, 1.0)
	}

	got, err := p.Report()
	require.Nil(t, err)
	assert.Equal(t, report, got)
}

func TestPipelineReportSerializes(t *testing.T) {
	raw := syntheticPrices(t, 120, 0.3, 0.02, 9)
	opt := NewDefaultOptions()
	opt.MaxP = 1
	opt.MaxQ = 1
	p := New(opt)

	report, err := p.Run(raw)
	require.Nil(t, err)

	// the dynamic-vs-static comparisons score exactly Horizon losses; the
	// full-width variance truncation must still yield finite statistics
	for _, cmp := range report.Comparisons {
		assert.False(t, math.IsInf(cmp.Result.Statistic, 0), "%s statistic is infinite", cmp.Name)
		assert.False(t, math.IsNaN(cmp.Result.Statistic), "%s statistic is NaN", cmp.Name)
		assert.Greater(t, cmp.Result.PValue, 0.0, "%s", cmp.Name)
	}

	buf, err := json.Marshal(report)
	require.Nil(t, err)
	assert.Contains(t, string(buf), "\"by_aic\"")
	assert.Contains(t, string(buf), "\"stationarity\"")
}

func TestPipelineNonStationaryGate(t *testing.T) {
	// integrate noise twice so the log returns themselves hold a unit root
	months := 120
	noise := timedataset.GenerateWhiteNoise(months-1, 0.004, 3)
	walk := make([]float64, len(noise))
	acc := 0.0
	for i, v := range noise {
		acc += v
		walk[i] = acc
	}
	closes := timedataset.PriceFromReturns(100, walk)

	var ts []time.Time
	start := time.Date(2000, 1, 28, 0, 0, 0, 0, time.UTC)
	for m := 0; m < months; m++ {
		ts = append(ts, start.AddDate(0, m, 0))
	}
	raw, err := timedataset.New(ts, closes)
	require.Nil(t, err)

	t.Run("fail fast", func(t *testing.T) {
		p := New(nil)
		_, err := p.Run(raw)
		assert.ErrorIs(t, err, stationarity.ErrNonStationarySeries)
	})

	t.Run("caller override", func(t *testing.T) {
		opt := NewDefaultOptions()
		opt.SkipStationarityGate = true
		opt.MaxP = 1
		opt.MaxQ = 1
		p := New(opt)

		report, err := p.Run(raw)
		require.Nil(t, err)
		require.NotNil(t, report.Stationarity)
		assert.False(t, report.Stationarity.Stationary)
	})
}

func TestPipelineInsufficientData(t *testing.T) {
	raw, err := timedataset.New(
		[]time.Time{
			time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		[]float64{100, 101},
	)
	require.Nil(t, err)

	p := New(nil)
	_, err = p.Run(raw)
	assert.ErrorIs(t, err, timedataset.ErrInsufficientData)
}

func TestARStructureBeatsNaiveBaseline(t *testing.T) {
	// injected AR(1) structure: the one-step static harness with the right
	// order must beat the constant-mean baseline on held-out data
	returns := timedataset.GenerateAR1(300, 0.6, 0.02, 17)
	ds, err := timedataset.New(timedataset.GenerateT(len(returns), 24*time.Hour, time.Now), returns)
	require.Nil(t, err)

	h := 60
	ar, err := harness.Static(ds, order.Order{P: 1}, h, nil)
	require.Nil(t, err)
	naive, err := harness.Static(ds, order.Order{}, h, nil)
	require.Nil(t, err)

	arAcc, err := evaluate.Score(ar.Predicted, ar.Actual)
	require.Nil(t, err)
	naiveAcc, err := evaluate.Score(naive.Predicted, naive.Actual)
	require.Nil(t, err)

	assert.Less(t, arAcc.RMSE, naiveAcc.RMSE)
}

func TestCandidatesDedupAndOrder(t *testing.T) {
	p := New(nil)
	sel := &order.Selection{
		ByAIC: order.Order{P: 2, Q: 1},
		ByBIC: order.Order{},
	}
	got := p.candidates(sel)
	assert.Equal(t, []order.Order{{}, {P: 2, Q: 1}}, got)

	sel = &order.Selection{
		ByAIC: order.Order{P: 1},
		ByBIC: order.Order{Q: 1},
	}
	got = p.candidates(sel)
	assert.Equal(t, []order.Order{{}, {Q: 1}, {P: 1}}, got)
}

func TestSummarize(t *testing.T) {
	stats := summarize([]float64{3, 1, 2, 4, 5})
	assert.Equal(t, 5, stats.N)
	assert.InDelta(t, 3.0, stats.Mean, 1e-12)
	assert.InDelta(t, 3.0, stats.Median, 1e-12)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 5.0, stats.Max)
}

func TestRenderPlots(t *testing.T) {
	p := New(nil)
	var buf bytes.Buffer
	assert.ErrorIs(t, p.RenderPlots(&buf), ErrNotRun)

	raw := syntheticPrices(t, 120, 0.3, 0.02, 9)
	opt := NewDefaultOptions()
	opt.MaxP = 1
	opt.MaxQ = 1
	p = New(opt)
	_, err := p.Run(raw)
	require.Nil(t, err)

	require.Nil(t, p.RenderPlots(&buf))
	assert.Contains(t, buf.String(), "Monthly log returns")
}

func ExamplePipeline() {
	returns := timedataset.GenerateAR1(180, 0.3, 0.02, 1)
	closes := timedataset.PriceFromReturns(1000, returns)
	ts := make([]time.Time, 0, len(closes))
	start := time.Date(2005, 1, 28, 0, 0, 0, 0, time.UTC)
	for i := range closes {
		ts = append(ts, start.AddDate(0, i, 0))
	}
	raw, _ := timedataset.New(ts, closes)

	opt := NewDefaultOptions()
	opt.MaxP = 2
	opt.MaxQ = 2
	report, err := New(opt).Run(raw)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(report.Returns.N, report.Horizon)
	// Output: 180 12
}
