// Package timedataset provides the univariate time series type shared by the
// resampling, stationarity, order selection, and forecast harness packages.
package timedataset

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInsufficientData   = errors.New("insufficient observations")
	ErrInvalidHorizon     = errors.New("horizon must leave at least one in-sample observation")
	ErrNonMonotonic       = errors.New("time feature is not strictly increasing")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrNonPositiveValue   = errors.New("log returns require strictly positive values")
)

// TimeDataset represents a time series storing a slice of time points and values.
// Both must be of the same length and the time points strictly increasing. The
// constructor and all accessors copy, so a dataset never aliases caller memory.
type TimeDataset struct {
	T []time.Time
	Y []float64
}

// New returns an instance of a TimeDataset given a time and value slice.
func New(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrInsufficientData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}

	var lastT time.Time
	for i := 0; i < len(t); i++ {
		currT := t[i]
		if currT.Before(lastT) || currT.Equal(lastT) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMonotonic)
		}
		lastT = currT
	}

	tSeries := make([]time.Time, len(t))
	ySeries := make([]float64, len(t))
	copy(tSeries, t)
	copy(ySeries, y)
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}, nil
}

func (td *TimeDataset) Len() int {
	return len(td.Y)
}

func (td *TimeDataset) Copy() *TimeDataset {
	tSeries := make([]time.Time, len(td.T))
	ySeries := make([]float64, len(td.T))
	copy(tSeries, td.T)
	copy(ySeries, td.Y)
	return &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
}

// LogReturns derives the log return series ln(y[t]) - ln(y[t-1]). The first
// observation has no return and is excluded, so the result has length n-1 and
// is stamped at the time of the later observation of each pair.
func (td *TimeDataset) LogReturns() (*TimeDataset, error) {
	if td.Len() < 2 {
		return nil, fmt.Errorf("need at least 2 observations to form returns, %w", ErrInsufficientData)
	}

	t := make([]time.Time, 0, td.Len()-1)
	y := make([]float64, 0, td.Len()-1)
	for i := 1; i < td.Len(); i++ {
		if td.Y[i] <= 0 || td.Y[i-1] <= 0 {
			return nil, fmt.Errorf("value at %d, %w", i, ErrNonPositiveValue)
		}
		t = append(t, td.T[i])
		y = append(y, math.Log(td.Y[i])-math.Log(td.Y[i-1]))
	}
	return &TimeDataset{T: t, Y: y}, nil
}

// Split partitions the dataset into an in-sample prefix of length n-h and an
// out-of-sample suffix of length h. The horizon must leave at least one
// in-sample observation.
func (td *TimeDataset) Split(h int) (inSample, outOfSample *TimeDataset, err error) {
	if h <= 0 || h >= td.Len() {
		return nil, nil, fmt.Errorf("horizon %d with %d observations, %w", h, td.Len(), ErrInvalidHorizon)
	}

	cp := td.Copy()
	split := td.Len() - h
	inSample = &TimeDataset{T: cp.T[:split], Y: cp.Y[:split]}
	outOfSample = &TimeDataset{T: cp.T[split:], Y: cp.Y[split:]}
	return inSample, outOfSample, nil
}

// Prefix returns a copy of the first n observations.
func (td *TimeDataset) Prefix(n int) (*TimeDataset, error) {
	if n < 1 || n > td.Len() {
		return nil, fmt.Errorf("prefix of %d from %d observations, %w", n, td.Len(), ErrInsufficientData)
	}
	cp := td.Copy()
	return &TimeDataset{T: cp.T[:n], Y: cp.Y[:n]}, nil
}
