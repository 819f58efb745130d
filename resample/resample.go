// Package resample reduces irregular intra-month price observations to one
// observation per calendar month, taken at the last observation on or before
// month end. The month-end policy follows the trading calendar rather than
// the calendar month end, so a monthly point is stamped at the last session
// with data rather than at day 28-31.
package resample

import (
	"fmt"
	"time"

	"github.com/avelsher/armabench/timedataset"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// Monthly keeps the last observation of every calendar month present in the
// input. At least two monthly observations must remain to form returns.
func Monthly(td *timedataset.TimeDataset) (*timedataset.TimeDataset, error) {
	var t []time.Time
	var y []float64
	for i := 0; i < td.Len(); i++ {
		last := i == td.Len()-1
		if !last && sameMonth(td.T[i], td.T[i+1]) {
			continue
		}
		t = append(t, td.T[i])
		y = append(y, td.Y[i])
	}
	if len(t) < 2 {
		return nil, fmt.Errorf("only %d monthly observations, %w", len(t), timedataset.ErrInsufficientData)
	}
	return timedataset.New(t, y)
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func tradingCalendar() *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.PresidentsDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	)
	return c
}

var usTrading = tradingCalendar()

// LastTradingDay returns the final US equity market session of the given
// month, walking back from the last calendar day over weekends and observed
// holidays.
func LastTradingDay(year int, month time.Month, loc *time.Location) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, loc).AddDate(0, 0, -1)
	for !usTrading.IsWorkday(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// Gap flags a monthly observation that predates the expected final trading
// session of its month, usually a sign of missing rows in the source file.
type Gap struct {
	Observed time.Time
	Expected time.Time
}

// Gaps inspects an already-resampled monthly dataset and reports months whose
// observation is not on the last trading day. Informational only; the
// resampling policy itself tolerates such months.
func Gaps(monthly *timedataset.TimeDataset) []Gap {
	var gaps []Gap
	for _, obs := range monthly.T {
		expected := LastTradingDay(obs.Year(), obs.Month(), obs.Location())
		if obs.Year() != expected.Year() || obs.YearDay() != expected.YearDay() {
			gaps = append(gaps, Gap{Observed: obs, Expected: expected})
		}
	}
	return gaps
}
