// Package order selects an ARMA specification by information criterion. The
// sweep fits every (p,q) cell in the configured grid through the goarima
// estimator, tolerating individual cell failures, and ranks survivors by AIC
// and BIC independently.
package order

import (
	"errors"
	"fmt"
	"math"

	"github.com/avelsher/armabench/timedataset"
	"github.com/goccy/go-json"
	"github.com/sartorproj/goarima/arima"
	"github.com/sartorproj/goarima/timeseries"
)

var (
	ErrModelSelection = errors.New("no candidate order converged")
	ErrInvalidGrid    = errors.New("grid bounds must be non-negative")
)

// Order identifies one ARMA(p,q) specification.
type Order struct {
	P int `json:"p"`
	Q int `json:"q"`
}

func (o Order) String() string {
	return fmt.Sprintf("ARMA(%d,%d)", o.P, o.Q)
}

// Result records the outcome of fitting a single grid cell. Err is non-nil
// for cells that failed to fit; their criteria are NaN and they never rank.
type Result struct {
	Order Order
	AIC   float64
	BIC   float64
	Err   error
}

// MarshalJSON drops the NaN criteria of a failed cell and marks it failed
// instead, keeping a sweep with partial failures serializable.
func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		Order  Order    `json:"order"`
		AIC    *float64 `json:"aic,omitempty"`
		BIC    *float64 `json:"bic,omitempty"`
		Failed bool     `json:"failed,omitempty"`
	}{Order: r.Order}
	if r.Err != nil {
		out.Failed = true
		return json.Marshal(out)
	}
	out.AIC = &r.AIC
	out.BIC = &r.BIC
	return json.Marshal(out)
}

// Selection is the outcome of a full grid sweep. ByAIC and ByBIC are chosen
// independently; ties break toward the lowest p, then the lowest q.
type Selection struct {
	ByAIC Order    `json:"by_aic"`
	ByBIC Order    `json:"by_bic"`
	Table []Result `json:"table"`
}

// Fit estimates a single ARMA(p,0,q) model on the dataset.
func Fit(td *timedataset.TimeDataset, o Order) (*arima.Model, error) {
	model := arima.New(o.P, 0, o.Q)
	if err := model.Fit(timeseries.New(td.Y)); err != nil {
		return nil, fmt.Errorf("fitting %s, %w", o, err)
	}
	return model, nil
}

// Search sweeps the cross product [0,maxP] x [0,maxQ]. Every cell is
// attempted; a cell that fails to converge is recorded and skipped rather
// than aborting the sweep. The degenerate (0,0) constant-mean cell must
// succeed for the sweep to be meaningful.
func Search(td *timedataset.TimeDataset, maxP, maxQ int) (*Selection, error) {
	if maxP < 0 || maxQ < 0 {
		return nil, fmt.Errorf("maxP=%d maxQ=%d, %w", maxP, maxQ, ErrInvalidGrid)
	}

	sel := &Selection{
		Table: make([]Result, 0, (maxP+1)*(maxQ+1)),
	}
	bestAIC := math.Inf(1)
	bestBIC := math.Inf(1)

	for p := 0; p <= maxP; p++ {
		for q := 0; q <= maxQ; q++ {
			o := Order{P: p, Q: q}
			model, err := Fit(td, o)
			if err != nil {
				if p == 0 && q == 0 {
					return nil, fmt.Errorf("constant-mean cell failed: %v, %w", err, ErrModelSelection)
				}
				sel.Table = append(sel.Table, Result{Order: o, AIC: math.NaN(), BIC: math.NaN(), Err: err})
				continue
			}
			sel.Table = append(sel.Table, Result{Order: o, AIC: model.AIC, BIC: model.BIC})

			// strict less keeps the first minimum, which the ascending
			// sweep order makes the lowest p then lowest q
			if model.AIC < bestAIC {
				bestAIC = model.AIC
				sel.ByAIC = o
			}
			if model.BIC < bestBIC {
				bestBIC = model.BIC
				sel.ByBIC = o
			}
		}
	}
	return sel, nil
}
