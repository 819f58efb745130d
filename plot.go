package armabench

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/avelsher/armabench/harness"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/sartorproj/goarima/stats"
	"github.com/sartorproj/goarima/timeseries"
)

const (
	plotACFLags       = 24
	plotHistogramBins = 30
)

// LineTSeries generates an echart multi-line chart for some arbitrary
// time/value combination. Each input series must have the same length as the
// input time slice; NaN points are dropped.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	lineData := make([][]opts.LineData, len(y))
	for i := 0; i < len(y); i++ {
		lineData[i] = make([]opts.LineData, 0, len(y[i]))
		for j := 0; j < len(y[i]); j++ {
			if math.IsNaN(y[i][j]) {
				lineData[i] = append(lineData[i], opts.LineData{Value: nil})
				continue
			}
			lineData[i] = append(lineData[i], opts.LineData{Value: y[i][j]})
		}
	}

	line = line.SetXAxis(t)
	for i, series := range seriesName {
		line = line.AddSeries(series, lineData[i])
	}
	return line
}

// barSeries renders a labeled bar chart for correlogram and histogram panels.
func barSeries(title, name string, labels []string, y []float64) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	barData := make([]opts.BarData, 0, len(y))
	for _, v := range y {
		barData = append(barData, opts.BarData{Value: v})
	}
	bar.SetXAxis(labels).AddSeries(name, barData)
	return bar
}

func histogram(y []float64, bins int) (labels []string, counts []float64) {
	lo, hi := y[0], y[0]
	for _, v := range y {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	width := (hi - lo) / float64(bins)
	if width == 0 {
		return []string{fmt.Sprintf("%.4f", lo)}, []float64{float64(len(y))}
	}

	counts = make([]float64, bins)
	for _, v := range y {
		idx := int((v - lo) / width)
		if idx == bins {
			idx--
		}
		counts[idx]++
	}
	labels = make([]string, bins)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.4f", lo+(float64(i)+0.5)*width)
	}
	return labels, counts
}

func correlogram(y []float64, maxLag int) (acf, pacf []float64, labels []string) {
	if maxLag >= len(y) {
		maxLag = len(y) - 1
	}
	series := timeseries.New(y)
	acf = stats.ACF(series, maxLag)
	pacf = stats.PACF(series, maxLag)
	if len(acf) > 0 {
		// lag 0 is identically 1 and drowns out the panel
		acf = acf[1:]
	}
	if len(pacf) > 0 {
		pacf = pacf[1:]
	}
	labels = make([]string, 0, maxLag)
	for i := 1; i <= maxLag; i++ {
		labels = append(labels, fmt.Sprintf("%d", i))
	}
	return acf, pacf, labels
}

func overlay(res *harness.Result, mode Mode) *charts.Line {
	title := fmt.Sprintf("%s %s forecast vs actual", res.Order, mode)
	return LineTSeries(title, []string{"Actual", "Forecast"}, res.T, [][]float64{res.Actual, res.Predicted})
}

// RenderPlots writes an HTML page with the price series, return series,
// return histogram, ACF/PACF correlograms, and an actual-vs-forecast overlay
// per evaluated run.
func (p *Pipeline) RenderPlots(w io.Writer) error {
	if p.report == nil {
		return ErrNotRun
	}

	acf, pacf, lagLabels := correlogram(p.returns.Y, plotACFLags)
	histLabels, histCounts := histogram(p.returns.Y, plotHistogramBins)

	page := components.NewPage()
	page.AddCharts(
		LineTSeries("Monthly close", []string{"Close"}, p.monthly.T, [][]float64{p.monthly.Y}),
		LineTSeries("Monthly log returns", []string{"Return"}, p.returns.T, [][]float64{p.returns.Y}),
		barSeries("Return distribution", "Count", histLabels, histCounts),
		barSeries("Return ACF", "ACF", lagLabels, acf),
		barSeries("Return PACF", "PACF", lagLabels, pacf),
	)

	for _, o := range p.candidates(p.report.Selection) {
		pair := p.pairs[o]
		page.AddCharts(
			overlay(pair.dynamic, ModeDynamic),
			overlay(&pair.static.Result, ModeStatic),
		)
	}
	return page.Render(w)
}

// PlotFile renders the plot page to the given path.
func (p *Pipeline) PlotFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return p.RenderPlots(file)
}
