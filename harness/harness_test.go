package harness

import (
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avelsher/armabench/order"
	"github.com/avelsher/armabench/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataset(t *testing.T, y []float64) *timedataset.TimeDataset {
	t.Helper()
	ds, err := timedataset.New(timedataset.GenerateT(len(y), 24*time.Hour, time.Now), y)
	require.Nil(t, err)
	return ds
}

func TestDynamic(t *testing.T) {
	ds := dataset(t, timedataset.GenerateAR1(120, 0.3, 1.0, 21))

	res, err := Dynamic(ds, order.Order{P: 1}, 12)
	require.Nil(t, err)

	assert.Equal(t, 12, len(res.Predicted))
	assert.Equal(t, 12, len(res.Actual))
	assert.Equal(t, ds.T[108:], res.T)
	assert.Equal(t, 1, res.FitCount)
	for i, p := range res.Predicted {
		assert.False(t, math.IsNaN(p), "prediction %d is NaN", i)
	}
}

func TestDynamicInvalidHorizon(t *testing.T) {
	ds := dataset(t, timedataset.GenerateWhiteNoise(30, 1.0, 2))

	testData := map[string]int{
		"zero":     0,
		"negative": -2,
		"equals n": 30,
		"above n":  31,
	}
	for name, h := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := Dynamic(ds, order.Order{}, h)
			assert.ErrorIs(t, err, timedataset.ErrInvalidHorizon)
		})
	}
}

func TestDynamicFitFailure(t *testing.T) {
	// in-sample prefix of 11 cannot support ARMA(3,3)
	ds := dataset(t, timedataset.GenerateWhiteNoise(15, 1.0, 2))

	_, err := Dynamic(ds, order.Order{P: 3, Q: 3}, 4)
	assert.ErrorIs(t, err, ErrFitConvergence)
}

func TestStatic(t *testing.T) {
	ds := dataset(t, timedataset.GenerateAR1(120, 0.3, 1.0, 21))

	res, err := Static(ds, order.Order{P: 1}, 12, nil)
	require.Nil(t, err)

	assert.Equal(t, 12, len(res.Predicted))
	assert.Equal(t, ds.T[108:], res.T)
	assert.Equal(t, 12, res.FitCount)
	assert.Empty(t, res.Failed)
}

func TestStaticInvalidHorizon(t *testing.T) {
	ds := dataset(t, timedataset.GenerateWhiteNoise(30, 1.0, 2))

	_, err := Static(ds, order.Order{}, 30, nil)
	assert.ErrorIs(t, err, timedataset.ErrInvalidHorizon)
	_, err = Static(ds, order.Order{}, 0, nil)
	assert.ErrorIs(t, err, timedataset.ErrInvalidHorizon)
}

func TestStaticParallelMatchesSequential(t *testing.T) {
	ds := dataset(t, timedataset.GenerateAR1(150, 0.4, 1.0, 33))

	seq, err := Static(ds, order.Order{P: 1, Q: 1}, 20, &StaticOptions{Parallelism: 1})
	require.Nil(t, err)
	par, err := Static(ds, order.Order{P: 1, Q: 1}, 20, &StaticOptions{Parallelism: 4})
	require.Nil(t, err)

	assert.Equal(t, seq.Predicted, par.Predicted)
	assert.Equal(t, seq.T, par.T)
}

func TestStaticSkipAndFlag(t *testing.T) {
	// ARMA(2,2) needs 14 observations; the first two step prefixes (12, 13)
	// fall short and must be flagged, not silently defaulted
	ds := dataset(t, timedataset.GenerateWhiteNoise(20, 1.0, 8))

	res, err := Static(ds, order.Order{P: 2, Q: 2}, 8, nil)
	require.Nil(t, err)
	require.Len(t, res.Failed, 2)

	for _, i := range []int{0, 1} {
		assert.ErrorIs(t, res.Failed[i], ErrFitConvergence)
		assert.True(t, math.IsNaN(res.Predicted[i]))
	}
	for i := 2; i < 8; i++ {
		assert.False(t, math.IsNaN(res.Predicted[i]))
	}
}

func TestStaticFailFast(t *testing.T) {
	ds := dataset(t, timedataset.GenerateWhiteNoise(20, 1.0, 8))

	res, err := Static(ds, order.Order{P: 2, Q: 2}, 8, &StaticOptions{FailFast: true})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrFitConvergence)
}

func TestStaticFailFastCancelsRemainingSteps(t *testing.T) {
	// step 0 fits on a 12-point prefix that cannot support ARMA(2,2); the
	// seven steps behind it must never be attempted
	orig := fitStep
	defer func() { fitStep = orig }()
	var calls atomic.Int64
	fitStep = func(td *timedataset.TimeDataset, o order.Order, target int) (float64, error) {
		calls.Add(1)
		return orig(td, o, target)
	}

	ds := dataset(t, timedataset.GenerateWhiteNoise(20, 1.0, 8))

	_, err := Static(ds, order.Order{P: 2, Q: 2}, 8, &StaticOptions{FailFast: true, Parallelism: 1})
	assert.ErrorIs(t, err, ErrFitConvergence)
	assert.Equal(t, int64(1), calls.Load())
}

func TestStaticOneStepUsesFreshestData(t *testing.T) {
	// a deterministic trend in the mean: the constant-mean refit drifts
	// upward step by step, so later predictions must exceed earlier ones
	y := make([]float64, 40)
	for i := range y {
		y[i] = float64(i)
	}
	ds := dataset(t, y)

	res, err := Static(ds, order.Order{}, 5, nil)
	require.Nil(t, err)
	for i := 1; i < 5; i++ {
		assert.Greater(t, res.Predicted[i], res.Predicted[i-1])
	}
}
