package evaluate

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DMOptions configures the Diebold-Mariano test. Horizon is the forecast
// horizon the losses came from and sets the long-run variance truncation at
// h-1 autocovariance lags. HarveyCorrection applies the
// Harvey-Leybourne-Newbold small-sample adjustment and swaps the normal
// reference for a Student-t with n-1 degrees of freedom. Alpha is the
// significance level the verdict is taken at.
type DMOptions struct {
	Horizon          int
	HarveyCorrection bool
	Alpha            float64
}

func NewDefaultDMOptions() *DMOptions {
	return &DMOptions{
		Horizon:          1,
		HarveyCorrection: true,
		Alpha:            0.05,
	}
}

// DMResult is the outcome of a Diebold-Mariano test of the null hypothesis
// that two forecasts have equal expected loss. EqualAccuracy is true when the
// null is not rejected at Alpha. A negative statistic favors the first loss
// series.
type DMResult struct {
	Statistic     float64
	PValue        float64
	Alpha         float64
	EqualAccuracy bool
}

// MarshalJSON omits the statistic when it is not finite, as with a constant
// non-zero loss differential, so a report carrying the result stays
// serializable.
func (r DMResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Statistic     *float64 `json:"statistic,omitempty"`
		PValue        float64  `json:"p_value"`
		Alpha         float64  `json:"alpha"`
		EqualAccuracy bool     `json:"equal_accuracy"`
	}{
		PValue:        r.PValue,
		Alpha:         r.Alpha,
		EqualAccuracy: r.EqualAccuracy,
	}
	if !math.IsNaN(r.Statistic) && !math.IsInf(r.Statistic, 0) {
		out.Statistic = &r.Statistic
	}
	return json.Marshal(out)
}

// DieboldMariano tests two loss sequences aligned on the same out-of-sample
// indices. A degenerate zero loss differential, such as a series compared
// against itself, yields statistic 0 and p-value 1.
func DieboldMariano(loss1, loss2 []float64, opt *DMOptions) (*DMResult, error) {
	if len(loss1) != len(loss2) {
		return nil, fmt.Errorf("loss series have %d and %d points, %w",
			len(loss1), len(loss2), ErrMisalignedSeries)
	}
	if opt == nil {
		opt = NewDefaultDMOptions()
	}
	alpha := opt.Alpha
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}
	h := opt.Horizon
	if h < 1 {
		h = 1
	}

	d := make([]float64, 0, len(loss1))
	for i := range loss1 {
		if math.IsNaN(loss1[i]) || math.IsNaN(loss2[i]) {
			continue
		}
		d = append(d, loss1[i]-loss2[i])
	}
	n := len(d)
	if n == 0 {
		return nil, ErrNoComparablePoints
	}

	dbar := stat.Mean(d, nil)
	lrv := longRunVariance(d, dbar, h-1)

	if lrv <= 0 {
		// the Bartlett kernel keeps the estimate non-negative, so reaching
		// here means the differential is constant: identical losses, or a
		// fixed offset with no sampling variation to test against
		if dbar == 0 {
			return &DMResult{Statistic: 0, PValue: 1, Alpha: alpha, EqualAccuracy: true}, nil
		}
		return &DMResult{Statistic: math.Copysign(math.Inf(1), dbar), PValue: 0, Alpha: alpha}, nil
	}

	dm := dbar / math.Sqrt(lrv/float64(n))

	var pValue float64
	if opt.HarveyCorrection && n > 1 {
		nf := float64(n)
		hf := float64(h)
		adj := (nf + 1 - 2*hf + hf*(hf-1)/nf) / nf
		if adj > 0 {
			dm *= math.Sqrt(adj)
		}
		tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: nf - 1}
		pValue = 2 * tDist.CDF(-math.Abs(dm))
	} else {
		norm := distuv.Normal{Mu: 0, Sigma: 1}
		pValue = 2 * norm.CDF(-math.Abs(dm))
	}

	return &DMResult{
		Statistic:     dm,
		PValue:        pValue,
		Alpha:         alpha,
		EqualAccuracy: pValue >= alpha,
	}, nil
}

// longRunVariance estimates the Newey-West long-run variance of the loss
// differential, Bartlett weights 1-k/(maxLag+1) over the first maxLag
// autocovariances, the usual h-1 truncation for h-step forecast losses. The
// Bartlett kernel keeps the estimate non-negative.
func longRunVariance(d []float64, dbar float64, maxLag int) float64 {
	n := len(d)
	if maxLag >= n {
		maxLag = n - 1
	}

	variance := 0.0
	for _, v := range d {
		variance += (v - dbar) * (v - dbar)
	}
	variance /= float64(n)

	for k := 1; k <= maxLag; k++ {
		cov := 0.0
		for t := k; t < n; t++ {
			cov += (d[t] - dbar) * (d[t-k] - dbar)
		}
		cov /= float64(n)
		weight := 1 - float64(k)/float64(maxLag+1)
		variance += 2 * weight * cov
	}
	return variance
}
