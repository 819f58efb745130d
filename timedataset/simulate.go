package timedataset

import (
	"math"
	"math/rand/v2"
	"time"
)

func GenerateT(n int, interval time.Duration, nowFunc func() time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	ct := time.Unix(nowFunc().Unix()/60*60, 0).Add(-time.Duration(n) * interval).UTC()
	for i := 0; i < n; i++ {
		t = append(t, ct.Add(interval*time.Duration(i)))
	}
	return t
}

// GenerateWhiteNoise draws n independent gaussian observations with the given
// standard deviation from a seeded source.
func GenerateWhiteNoise(n int, sigma float64, seed uint64) []float64 {
	rnd := rand.New(rand.NewPCG(seed, seed))
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, rnd.NormFloat64()*sigma)
	}
	return y
}

// GenerateAR1 simulates y[t] = phi*y[t-1] + noise[t] from a seeded source. The
// first observation is pure noise.
func GenerateAR1(n int, phi, sigma float64, seed uint64) []float64 {
	rnd := rand.New(rand.NewPCG(seed, seed))
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = rnd.NormFloat64() * sigma
		if i > 0 {
			y[i] += phi * y[i-1]
		}
	}
	return y
}

// PriceFromReturns integrates a log-return series back into a price path
// starting at p0, producing len(returns)+1 prices.
func PriceFromReturns(p0 float64, returns []float64) []float64 {
	y := make([]float64, 0, len(returns)+1)
	y = append(y, p0)
	acc := 0.0
	for _, r := range returns {
		acc += r
		y = append(y, p0*math.Exp(acc))
	}
	return y
}
