// Package report renders the post-run performance report: six time-series
// charts sampled at every flush, written as a single static HTML page.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"

	"github.com/hippocampus-io/secload/errors"
	"github.com/hippocampus-io/secload/ingest"
)

const (
	chartWidth  = "620px"
	chartHeight = "380px"
	areaOpacity = 0.3
)

// Generate renders the performance report for one finished pipeline run and
// returns the output file path. Purely display: it consumes the result's
// sample series and feeds nothing back.
func Generate(result *ingest.Result, dir string, logger *zap.SugaredLogger) (string, error) {
	if len(result.Samples) == 0 {
		return "", errors.Newf("no data points collected for %s", result.Name)
	}

	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("%s Report (Total: %d %s)", result.Name, result.TotalUnits, result.Unit))
	page.SetLayout(components.PageFlexLayout)

	labels := timeLabels(result.Samples)

	page.AddCharts(
		buildLine(labels, fmt.Sprintf("Throughput (%s / sec)", result.Unit), result.Unit+"/sec",
			result.Samples, func(s ingest.Sample) float64 { return s.Throughput }, false),
		resourceChart(labels, result.Samples),
		buildLine(labels, fmt.Sprintf("Work Burn-down (Remaining %s)", result.Unit), result.Unit+" Count",
			result.Samples, func(s ingest.Sample) float64 { return float64(s.Remaining) }, true),
		buildLine(labels, "Database Write Time per Batch", "Seconds (Wait)",
			result.Samples, func(s ingest.Sample) float64 { return s.DBWaitSeconds }, false),
		buildLine(labels, "Context Switches per Second", "Switches / sec",
			result.Samples, func(s ingest.Sample) float64 { return s.CtxSwitchRate }, false),
		buildLine(labels, "CPU Idle % (Potential I/O Wait)", "Idle %",
			result.Samples, func(s ingest.Sample) float64 { return 100 - s.CPUPercent }, false),
	)

	filename := fmt.Sprintf("%s_report_%s.html", result.Name, time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "create report file %s", path)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return "", errors.Wrap(err, "render report page")
	}

	if logger != nil {
		logger.Infow("Performance report saved", "path", path, "samples", len(result.Samples))
	}

	return path, nil
}

// timeLabels formats the elapsed-seconds axis shared by all six charts.
func timeLabels(samples []ingest.Sample) []string {
	labels := make([]string, len(samples))
	for i, s := range samples {
		labels[i] = fmt.Sprintf("%.1f", s.ElapsedSeconds)
	}
	return labels
}

func buildLine(labels []string, title, yLabel string, samples []ingest.Sample, value func(ingest.Sample) float64, filled bool) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (Seconds)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yLabel}),
	)

	data := make([]opts.LineData, len(samples))
	for i, s := range samples {
		data[i] = opts.LineData{Value: value(s)}
	}

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
	}
	if filled {
		seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(areaOpacity)}))
	}

	line.SetXAxis(labels)
	line.AddSeries(title, data, seriesOpts...)
	return line
}

// resourceChart plots CPU and RAM utilization on one panel.
func resourceChart(labels []string, samples []ingest.Sample) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "System Resource Usage"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (Seconds)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Percent (%)"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	cpuData := make([]opts.LineData, len(samples))
	ramData := make([]opts.LineData, len(samples))
	for i, s := range samples {
		cpuData[i] = opts.LineData{Value: s.CPUPercent}
		ramData[i] = opts.LineData{Value: s.RAMPercent}
	}

	smooth := charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)})
	line.SetXAxis(labels)
	line.AddSeries("CPU %", cpuData, smooth)
	line.AddSeries("RAM %", ramData, smooth)
	return line
}
