// Package stationarity gates the modeling pipeline on a unit-root test. The
// augmented Dickey-Fuller numerics are delegated to goarima; this package owns
// the verdict at the caller's significance level and the fail-fast contract.
package stationarity

import (
	"errors"
	"fmt"

	"github.com/avelsher/armabench/timedataset"
	"github.com/sartorproj/goarima/stats"
	"github.com/sartorproj/goarima/timeseries"
)

var (
	ErrNonStationarySeries = errors.New("unit-root test rejects stationarity")
	ErrTestFailed          = errors.New("unable to run unit-root test")
)

// Options configures the ADF regression. MaxLag <= 0 lets the test pick the
// usual (n-1)^(1/3) default. Alpha is the significance threshold the verdict
// is taken at; it belongs to the caller, not the test.
type Options struct {
	MaxLag int
	Alpha  float64
}

func NewDefaultOptions() *Options {
	return &Options{
		MaxLag: 0,
		Alpha:  0.05,
	}
}

// Verdict is the outcome of an augmented Dickey-Fuller test with a constant
// term. Stationary is true when the unit-root null is rejected at Alpha.
type Verdict struct {
	Stationary bool    `json:"stationary"`
	Statistic  float64 `json:"statistic"`
	PValue     float64 `json:"p_value"`
	Alpha      float64 `json:"alpha"`
	Lags       int     `json:"lags"`
	NObs       int     `json:"n_obs"`
}

// Check runs the ADF test and returns the verdict without enforcing it.
func Check(td *timedataset.TimeDataset, opt *Options) (*Verdict, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	alpha := opt.Alpha
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}

	res := stats.ADF(timeseries.New(td.Y), opt.MaxLag)
	if res == nil {
		return nil, fmt.Errorf("%d observations with max lag %d, %w", td.Len(), opt.MaxLag, ErrTestFailed)
	}

	return &Verdict{
		Stationary: res.PValue < alpha,
		Statistic:  res.Statistic,
		PValue:     res.PValue,
		Alpha:      alpha,
		Lags:       res.Lags,
		NObs:       res.NObs,
	}, nil
}

// Require runs Check and fails fast on a non-stationary verdict so a
// misspecified ARMA fit is never reached silently. Callers that want to
// proceed anyway use Check directly.
func Require(td *timedataset.TimeDataset, opt *Options) (*Verdict, error) {
	verdict, err := Check(td, opt)
	if err != nil {
		return nil, err
	}
	if !verdict.Stationary {
		return verdict, fmt.Errorf("p-value %.4f at alpha %.2f, %w", verdict.PValue, verdict.Alpha, ErrNonStationarySeries)
	}
	return verdict, nil
}
