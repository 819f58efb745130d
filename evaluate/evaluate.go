// Package evaluate scores aligned forecast and actual series with pointwise
// error metrics and compares competing forecasts with a Diebold-Mariano test.
package evaluate

import (
	"errors"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

var (
	ErrMisalignedSeries   = errors.New("predicted and actual have different lengths")
	ErrNoComparablePoints = errors.New("no comparable points after exclusions")
)

// Accuracy holds the pointwise error metrics for one forecast run. MAPE is
// computed only over indices with a non-zero actual; MAPEExcluded counts the
// zero-actual indices left out and MAPEDefined is false when none remain.
// Return series sit near zero, so an undefined MAPE is flagged rather than
// coerced. Skipped counts index pairs excluded from every metric because the
// prediction was NaN (a flagged static-harness step).
type Accuracy struct {
	RMSE         float64
	MAE          float64
	MAPE         float64
	MAPEDefined  bool
	MAPEExcluded int
	Skipped      int
}

// MarshalJSON emits the MAPE field only when it is defined; an undefined MAPE
// is held as NaN, which no JSON encoder accepts.
func (a Accuracy) MarshalJSON() ([]byte, error) {
	out := struct {
		RMSE         float64  `json:"rmse"`
		MAE          float64  `json:"mae"`
		MAPE         *float64 `json:"mape,omitempty"`
		MAPEDefined  bool     `json:"mape_defined"`
		MAPEExcluded int      `json:"mape_excluded"`
		Skipped      int      `json:"skipped"`
	}{
		RMSE:         a.RMSE,
		MAE:          a.MAE,
		MAPEDefined:  a.MAPEDefined,
		MAPEExcluded: a.MAPEExcluded,
		Skipped:      a.Skipped,
	}
	if a.MAPEDefined {
		out.MAPE = &a.MAPE
	}
	return json.Marshal(out)
}

// Score computes RMSE, MAE, and MAPE over aligned predicted and actual
// series of equal length.
func Score(predicted, actual []float64) (*Accuracy, error) {
	if len(predicted) != len(actual) {
		return nil, fmt.Errorf("predicted has %d points, actual has %d, %w",
			len(predicted), len(actual), ErrMisalignedSeries)
	}

	var (
		sqSum, absSum, pctSum      float64
		n, pctN, excluded, skipped int
	)
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(predicted[i]) || math.IsNaN(actual[i]) {
			skipped++
			continue
		}
		diff := actual[i] - predicted[i]
		sqSum += diff * diff
		absSum += math.Abs(diff)
		n++

		if actual[i] == 0 {
			excluded++
			continue
		}
		pctSum += math.Abs(diff / actual[i])
		pctN++
	}
	if n == 0 {
		return nil, ErrNoComparablePoints
	}

	acc := &Accuracy{
		RMSE:         math.Sqrt(sqSum / float64(n)),
		MAE:          absSum / float64(n),
		MAPE:         math.NaN(),
		MAPEExcluded: excluded,
		Skipped:      skipped,
	}
	if pctN > 0 {
		acc.MAPE = pctSum / float64(pctN) * 100
		acc.MAPEDefined = true
	}
	return acc, nil
}

// SquaredLoss returns the per-index squared errors of an aligned forecast.
func SquaredLoss(predicted, actual []float64) ([]float64, error) {
	if len(predicted) != len(actual) {
		return nil, ErrMisalignedSeries
	}
	loss := make([]float64, len(actual))
	for i := range actual {
		diff := actual[i] - predicted[i]
		loss[i] = diff * diff
	}
	return loss, nil
}

// AbsoluteLoss returns the per-index absolute errors of an aligned forecast.
func AbsoluteLoss(predicted, actual []float64) ([]float64, error) {
	if len(predicted) != len(actual) {
		return nil, ErrMisalignedSeries
	}
	loss := make([]float64, len(actual))
	for i := range actual {
		loss[i] = math.Abs(actual[i] - predicted[i])
	}
	return loss, nil
}
