// Package harness generates out-of-sample forecasts for a fixed ARMA order
// under two regimes sharing one split: a dynamic forecast fits once at the
// origin and projects the whole horizon, while a static forecast refits
// before every step and keeps only the one-step-ahead prediction.
package harness

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avelsher/armabench/order"
	"github.com/avelsher/armabench/timedataset"
)

// ErrFitConvergence flags a single model fit that failed to converge. The
// static harness surfaces it per step; the dynamic harness fails the run.
var ErrFitConvergence = errors.New("model fit failed to converge")

// Result holds predictions aligned index-for-index with the held-out actuals.
// Both share identical timestamps and length. FitCount is the number of model
// fits the run attempted.
type Result struct {
	Order     order.Order `json:"order"`
	T         []time.Time `json:"time"`
	Predicted []float64   `json:"predicted"`
	Actual    []float64   `json:"actual"`
	FitCount  int         `json:"fit_count"`
}

// Dynamic fits one model of the given order to the in-sample prefix and
// produces a single h-step-ahead forecast from that one fit. Every predicted
// point uses only information available at the forecast origin.
func Dynamic(td *timedataset.TimeDataset, o order.Order, h int) (*Result, error) {
	inSample, outOfSample, err := td.Split(h)
	if err != nil {
		return nil, err
	}

	model, err := order.Fit(inSample, o)
	if err != nil {
		return nil, fmt.Errorf("%v, %w", err, ErrFitConvergence)
	}
	predicted, err := model.Predict(h)
	if err != nil {
		return nil, fmt.Errorf("unable to forecast %d steps, %w", h, err)
	}

	return &Result{
		Order:     o,
		T:         outOfSample.T,
		Predicted: predicted,
		Actual:    outOfSample.Y,
		FitCount:  1,
	}, nil
}

// StaticOptions controls the static harness. The refit-failure policy is
// skip-and-flag: a failed step records its error in StaticResult.Failed and
// predicts NaN, keeping the remaining steps. FailFast instead cancels the
// refits still queued once any step fails and reports the earliest failure
// observed. Parallelism bounds the worker pool for the
// independent per-step refits; values below 1 run sequentially.
type StaticOptions struct {
	FailFast    bool
	Parallelism int
}

func NewDefaultStaticOptions() *StaticOptions {
	return &StaticOptions{
		FailFast:    false,
		Parallelism: 1,
	}
}

// StaticResult is a Result plus the per-step refit failures. Steps are keyed
// by out-of-sample index; a step present in Failed holds NaN in Predicted.
type StaticResult struct {
	Result
	Failed map[int]error `json:"-"`
}

// Static produces h one-step-ahead forecasts for the out-of-sample suffix,
// refitting a fresh model on all data available immediately before each step.
// Step fits share no state and run on a bounded worker pool; the assembled
// output preserves chronological order regardless of completion order.
func Static(td *timedataset.TimeDataset, o order.Order, h int, opt *StaticOptions) (*StaticResult, error) {
	if opt == nil {
		opt = NewDefaultStaticOptions()
	}

	_, outOfSample, err := td.Split(h)
	if err != nil {
		return nil, err
	}
	n := td.Len()

	predicted := make([]float64, h)
	stepErrs := make([]error, h)

	workers := opt.Parallelism
	if workers < 1 {
		workers = 1
	}
	if workers > h {
		workers = h
	}

	steps := make(chan int)
	var stop atomic.Bool
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range steps {
				if opt.FailFast && stop.Load() {
					predicted[i] = math.NaN()
					continue
				}
				predicted[i], stepErrs[i] = fitStep(td, o, n-h+i)
				if stepErrs[i] != nil && opt.FailFast {
					stop.Store(true)
				}
			}
		}()
	}
	for i := 0; i < h; i++ {
		steps <- i
	}
	close(steps)
	wg.Wait()

	failed := make(map[int]error)
	for i, err := range stepErrs {
		if err != nil {
			failed[i] = err
		}
	}
	if opt.FailFast && len(failed) > 0 {
		keys := make([]int, 0, len(failed))
		for i := range failed {
			keys = append(keys, i)
		}
		sort.Ints(keys)
		return nil, fmt.Errorf("step %d of %d, %w", keys[0]+1, h, failed[keys[0]])
	}

	return &StaticResult{
		Result: Result{
			Order:     o,
			T:         outOfSample.T,
			Predicted: predicted,
			Actual:    outOfSample.Y,
			FitCount:  h,
		},
		Failed: failed,
	}, nil
}

// fitStep is swappable for tests that observe how many refits a run attempts.
var fitStep = staticStep

// staticStep fits on the prefix [0, target) and returns the one-step-ahead
// prediction for index target.
func staticStep(td *timedataset.TimeDataset, o order.Order, target int) (float64, error) {
	prefix, err := td.Prefix(target)
	if err != nil {
		return math.NaN(), err
	}
	model, err := order.Fit(prefix, o)
	if err != nil {
		return math.NaN(), fmt.Errorf("%v, %w", err, ErrFitConvergence)
	}
	pred, err := model.Predict(1)
	if err != nil {
		return math.NaN(), fmt.Errorf("unable to forecast one step, %w", err)
	}
	return pred[0], nil
}
