package armabench

import (
	"time"

	"github.com/avelsher/armabench/evaluate"
	"github.com/avelsher/armabench/order"
	"github.com/avelsher/armabench/stationarity"
)

// Mode distinguishes the two forecast regimes sharing one split.
type Mode string

const (
	ModeDynamic Mode = "dynamic"
	ModeStatic  Mode = "static"
)

// SummaryStats describes the monthly log-return series.
type SummaryStats struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Run is one (order, mode) forecast evaluated against the held-out suffix.
type Run struct {
	Order       order.Order        `json:"order"`
	Mode        Mode               `json:"mode"`
	Accuracy    *evaluate.Accuracy `json:"accuracy"`
	FitCount    int                `json:"fit_count"`
	FailedSteps int                `json:"failed_steps"`
}

// Comparison is a Diebold-Mariano test between two named runs over their
// squared-loss sequences.
type Comparison struct {
	Name   string             `json:"name"`
	Result *evaluate.DMResult `json:"result"`
}

// Gap mirrors resample.Gap for serialization.
type Gap struct {
	Observed time.Time `json:"observed"`
	Expected time.Time `json:"expected"`
}

// Report carries every numeric result a presentation layer needs: summary
// statistics, the unit-root verdict, the AIC/BIC grid, per-run accuracy, and
// the pairwise forecast comparisons.
type Report struct {
	Returns      SummaryStats          `json:"returns"`
	Stationarity *stationarity.Verdict `json:"stationarity"`
	Selection    *order.Selection      `json:"selection"`
	Runs         []Run                 `json:"runs"`
	Comparisons  []Comparison          `json:"comparisons"`
	CalendarGaps []Gap                 `json:"calendar_gaps,omitempty"`
	Horizon      int                   `json:"horizon"`
}
