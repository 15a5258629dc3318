// Package chart renders merged track comparisons as an interactive
// go-echarts page or a static gonum/plot PNG.
package chart

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/flightcompare/internal/track"
	"github.com/banshee-data/flightcompare/internal/units"
)

// AssetsHost serves the echarts javascript.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// RenderComparisonHTML writes an HTML page with two charts: the altitude of
// both tracks, and their height difference and 3D distance.
func RenderComparisonHTML(w io.Writer, samples []track.MergedSample, title string) error {
	x := make([]string, len(samples))
	altA := make([]opts.LineData, len(samples))
	altB := make([]opts.LineData, len(samples))
	diff := make([]opts.LineData, len(samples))
	dist := make([]opts.LineData, len(samples))
	for i, s := range samples {
		x[i] = s.A.Time.Format("15:04:05")
		altA[i] = opts.LineData{Value: round1(s.A.Ele * units.MetersToFeet)}
		altB[i] = opts.LineData{Value: round1(s.B.Ele * units.MetersToFeet)}
		diff[i] = opts.LineData{Value: round1(s.HeightDiffM * units.MetersToFeet)}
		dist[i] = opts.LineData{Value: round1(s.Distance3DM)}
	}

	subtitle := "no overlapping samples"
	if len(samples) > 0 {
		subtitle = fmt.Sprintf("%s to %s, %d samples",
			track.FormatTime(samples[0].Key), track.FormatTime(samples[len(samples)-1].Key), len(samples))
	}
	lineOpts := charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})

	alt := charts.NewLine()
	alt.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "420px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Altitude (ft)", Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	alt.SetXAxis(x).
		AddSeries("Track A", altA, lineOpts).
		AddSeries("Track B", altB, lineOpts)

	sep := charts.NewLine()
	sep.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "320px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Separation"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ft / m"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	sep.SetXAxis(x).
		AddSeries("Height difference (ft)", diff, lineOpts).
		AddSeries("3D distance (m)", dist, lineOpts)

	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.PageTitle = title
	page.AddCharts(alt, sep)
	return page.Render(w)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
