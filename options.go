package armabench

import (
	"github.com/avelsher/armabench/evaluate"
	"github.com/avelsher/armabench/harness"
	"github.com/avelsher/armabench/stationarity"
)

// Options configures a full pipeline run: the out-of-sample horizon, the
// order-selection grid, the significance level shared by the stationarity
// gate and the forecast comparisons, and the static-harness behavior.
type Options struct {
	// Horizon is the number of trailing observations held out of sample.
	Horizon int

	// MaxP and MaxQ are the inclusive upper bounds of the order grid.
	MaxP int
	MaxQ int

	// Significance is the threshold for the stationarity verdict and the
	// Diebold-Mariano comparisons.
	Significance float64

	// SkipStationarityGate records the unit-root verdict without enforcing
	// it, letting a caller knowingly fit a borderline series.
	SkipStationarityGate bool

	// MaxADFLag caps the augmented Dickey-Fuller lag order; 0 lets the test
	// pick its default.
	MaxADFLag int

	StaticOptions *harness.StaticOptions
}

func NewDefaultOptions() *Options {
	return &Options{
		Horizon:       12,
		MaxP:          5,
		MaxQ:          5,
		Significance:  0.05,
		StaticOptions: harness.NewDefaultStaticOptions(),
	}
}

func (o *Options) stationarityOptions() *stationarity.Options {
	return &stationarity.Options{
		MaxLag: o.MaxADFLag,
		Alpha:  o.Significance,
	}
}

func (o *Options) dmOptions(horizon int) *evaluate.DMOptions {
	return &evaluate.DMOptions{
		Horizon:          horizon,
		HarveyCorrection: true,
		Alpha:            o.Significance,
	}
}
