package stationarity

import (
	"testing"
	"time"

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

func TestCheckStationary(t *testing.T) {
	// white noise has no unit root
	ds := dataset(t, timedataset.GenerateWhiteNoise(200, 1.0, 7))

	verdict, err := Check(ds, nil)
	require.Nil(t, err)
	assert.True(t, verdict.Stationary)
	assert.Less(t, verdict.PValue, 0.05)
	assert.Equal(t, 0.05, verdict.Alpha)
}

func TestCheckRandomWalk(t *testing.T) {
	// integrated noise keeps its unit root
	noise := timedataset.GenerateWhiteNoise(200, 1.0, 7)
	walk := make([]float64, len(noise))
	acc := 0.0
	for i, v := range noise {
		acc += v
		walk[i] = acc
	}
	ds := dataset(t, walk)

	verdict, err := Check(ds, nil)
	require.Nil(t, err)
	assert.False(t, verdict.Stationary)
}

func TestCheckTooShort(t *testing.T) {
	ds := dataset(t, []float64{1, 2, 3, 4, 5})

	_, err := Check(ds, nil)
	assert.ErrorIs(t, err, ErrTestFailed)
}

func TestRequire(t *testing.T) {
	noise := timedataset.GenerateWhiteNoise(200, 1.0, 11)

	t.Run("stationary passes", func(t *testing.T) {
		verdict, err := Require(dataset(t, noise), nil)
		require.Nil(t, err)
		assert.True(t, verdict.Stationary)
	})

	t.Run("non-stationary fails fast", func(t *testing.T) {
		walk := make([]float64, len(noise))
		acc := 0.0
		for i, v := range noise {
			acc += v
			walk[i] = acc
		}
		verdict, err := Require(dataset(t, walk), nil)
		assert.ErrorIs(t, err, ErrNonStationarySeries)
		require.NotNil(t, verdict)
		assert.False(t, verdict.Stationary)
	})
}

func TestAlphaBelongsToCaller(t *testing.T) {
	ds := dataset(t, timedataset.GenerateWhiteNoise(200, 1.0, 7))

	strict, err := Check(ds, &Options{Alpha: 0.001})
	require.Nil(t, err)
	loose, err := Check(ds, &Options{Alpha: 0.10})
	require.Nil(t, err)

	assert.Equal(t, 0.001, strict.Alpha)
	assert.Equal(t, 0.10, loose.Alpha)
	assert.Equal(t, strict.PValue, loose.PValue)
}
