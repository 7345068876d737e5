// Package plots renders the calibration check plot and the annotated mass
// spectrum with gonum/plot
package plots

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/524D/mslab/internal/calib"
	"github.com/524D/mslab/internal/spectrum"
)

// Size of saved plots
const (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch
)

// Spectrum axis limits (nA). Substance markers span the whole visible range.
const (
	intensityMin = 0.1
	labelHeight  = 1000.0
	referenceNA  = 1.0
)

var (
	fitColor = color.RGBA{R: 0x00, G: 0x5A, B: 0xA0, A: 255}
	red      = color.RGBA{R: 255, A: 255}
	black    = color.Black
	dashes   = []vg.Length{vg.Points(4), vg.Points(2)}
	thinLine = vg.Points(0.3)
	dataLine = vg.Points(0.5)
)

// Calibration plots the calibration samples (squared current vs. mass)
// together with the fitted quadratic
func Calibration(fit calib.Fit) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "I² (A²)"
	p.Y.Label.Text = "m (u)"

	pts := make(plotter.XYs, len(fit.X))
	for i := range fit.X {
		pts[i].X = fit.X[i]
		pts[i].Y = fit.Y[i]
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(s)

	if len(pts) > 0 {
		xmin, xmax, _, _ := plotter.XYRange(pts)
		f := plotter.NewFunction(fit.Eval)
		f.XMin, f.XMax = xmin, xmax
		f.Samples = 200
		f.Color = fitColor
		p.Add(f)
	}
	return p, nil
}

// Spectrum plots the Faraday cup current against the calibrated mass on a
// logarithmic axis, with a dashed marker and a label for every substance
func Spectrum(title string, points []spectrum.Point, subs []spectrum.Substance) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Mass m (u)"
	p.Y.Label.Text = "I_FC (nA)"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	pts := make(plotter.XYs, len(points))
	for i, pt := range points {
		pts[i].X = pt.Mass
		pts[i].Y = pt.Intensity
	}
	data, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	data.Width = dataLine
	p.Add(data)
	p.Legend.Add("Data", data)

	ref := plotter.NewFunction(func(float64) float64 { return referenceNA })
	ref.Color = red
	ref.Width = thinLine
	ref.Dashes = dashes
	p.Add(ref)

	if len(subs) > 0 {
		if err := addSubstances(p, subs); err != nil {
			return nil, err
		}
	}

	p.Y.Min = intensityMin
	if p.Y.Max < labelHeight {
		p.Y.Max = labelHeight
	}
	return p, nil
}

func addSubstances(p *plot.Plot, subs []spectrum.Substance) error {
	labels := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(subs)),
		Labels: make([]string, len(subs)),
	}
	ticks := make([]plot.Tick, len(subs))
	for i, s := range subs {
		marker, err := plotter.NewLine(plotter.XYs{
			{X: s.Mass, Y: intensityMin},
			{X: s.Mass, Y: labelHeight},
		})
		if err != nil {
			return err
		}
		marker.Color = black
		marker.Width = thinLine
		marker.Dashes = dashes
		p.Add(marker)

		labels.XYs[i] = plotter.XY{X: s.Mass - 1, Y: labelHeight}
		labels.Labels[i] = s.Name
		ticks[i] = plot.Tick{Value: s.Mass, Label: strconv.FormatFloat(s.Mass, 'g', -1, 64)}
	}

	l, err := plotter.NewLabels(labels)
	if err != nil {
		return err
	}
	for i, s := range subs {
		st := &l.TextStyle[i]
		st.YAlign = text.YCenter
		if s.Unidentified() {
			st.Color = red
			st.Font.Size = vg.Points(10)
		} else {
			st.Rotation = math.Pi / 2
			st.Font.Size = vg.Points(8)
		}
	}
	p.Add(l)

	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Tick.Label.Rotation = -math.Pi / 4
	p.X.Tick.Label.XAlign = text.XLeft
	p.X.Tick.Label.YAlign = text.YTop
	return nil
}

// Save writes the plot to path. The image format follows the extension
// (png, svg, pdf, eps, jpg, tif).
func Save(p *plot.Plot, path string) error {
	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}

// FileName returns name with the extension of the plot format
func FileName(name string, format string) string {
	return name + `.` + strings.TrimPrefix(strings.ToLower(format), `.`)
}
