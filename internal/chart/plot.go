package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/flightcompare/internal/track"
	"github.com/banshee-data/flightcompare/internal/units"
)

// ErrNoSamples is returned when there is nothing to plot.
var ErrNoSamples = errors.New("no samples to plot")

const (
	plotWidth  = 14 * vg.Inch
	plotHeight = 6 * vg.Inch
)

var (
	colorA    = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	colorB    = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
	colorDiff = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
)

func comparisonPlot(samples []track.MergedSample) (*plot.Plot, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	altA := make(plotter.XYs, len(samples))
	altB := make(plotter.XYs, len(samples))
	diff := make(plotter.XYs, len(samples))
	for i, s := range samples {
		x := float64(s.Key.Unix())
		altA[i] = plotter.XY{X: x, Y: s.A.Ele * units.MetersToFeet}
		altB[i] = plotter.XY{X: x, Y: s.B.Ele * units.MetersToFeet}
		diff[i] = plotter.XY{X: x, Y: s.HeightDiffM * units.MetersToFeet}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Altitude comparison %s to %s",
		track.FormatTime(samples[0].Key), track.FormatTime(samples[len(samples)-1].Key))
	p.X.Label.Text = "Time (UTC)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "15:04:05"}
	p.Y.Label.Text = "Feet"
	p.Add(plotter.NewGrid())

	for _, series := range []struct {
		label string
		pts   plotter.XYs
		color color.Color
	}{
		{"Track A altitude", altA, colorA},
		{"Track B altitude", altB, colorB},
		{"Height difference (A-B)", diff, colorDiff},
	} {
		line, err := plotter.NewLine(series.pts)
		if err != nil {
			return nil, err
		}
		line.Color = series.color
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(series.label, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// SaveComparisonPNG plots altitude and height difference to path.
func SaveComparisonPNG(path string, samples []track.MergedSample) error {
	p, err := comparisonPlot(samples)
	if err != nil {
		return err
	}
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}

// WriteComparisonPNG is SaveComparisonPNG for an io.Writer.
func WriteComparisonPNG(w io.Writer, samples []track.MergedSample) error {
	p, err := comparisonPlot(samples)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
