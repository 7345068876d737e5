// Package spectrum reads raw magnet scans and substance tables and derives
// the calibrated mass spectrum from them
package spectrum

import (
	"math"
	"sort"

	"github.com/524D/mslab/internal/calib"
)

// Unidentified is the substance name used for masses without identification
const Unidentified = `?`

// Signals are reported in A; the spectrum is in nA. The offset keeps zero
// signals plottable on a logarithmic axis.
const (
	nanoAmps        = 1e9
	intensityOffset = 1e-12
)

// Raw is a sample of a magnet scan
type Raw struct {
	Current float64 // magnet current (A)
	Signal  float64 // Faraday cup current (A)
}

// Point is a point of the calibrated spectrum
type Point struct {
	Mass      float64 // u
	Intensity float64 // Faraday cup current (nA)
}

// Substance labels a known mass in the spectrum
type Substance struct {
	Mass float64
	Name string
}

// Unidentified reports whether the substance is a placeholder for an
// unknown compound
func (s Substance) Unidentified() bool {
	return s.Name == Unidentified
}

// Derive converts raw samples into spectrum points using the calibration.
// The points are ordered by magnet current.
func Derive(raw []Raw, p calib.Params) []Point {
	r := make([]Raw, len(raw))
	copy(r, raw)
	sort.SliceStable(r, func(i, j int) bool { return r[i].Current < r[j].Current })

	points := make([]Point, len(r))
	for i, s := range r {
		points[i].Mass = p.Mass(s.Current)
		points[i].Intensity = math.Abs(s.Signal)*nanoAmps + intensityOffset
	}
	return points
}

// Window returns the points with lo <= mass <= hi
func Window(points []Point, lo, hi float64) []Point {
	w := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Mass >= lo && p.Mass <= hi {
			w = append(w, p)
		}
	}
	return w
}

// SubstanceWindow returns the substances with lo <= mass <= hi
func SubstanceWindow(subs []Substance, lo, hi float64) []Substance {
	w := make([]Substance, 0, len(subs))
	for _, s := range subs {
		if s.Mass >= lo && s.Mass <= hi {
			w = append(w, s)
		}
	}
	return w
}

// Masses returns the masses of points
func Masses(points []Point) []float64 {
	m := make([]float64, len(points))
	for i, p := range points {
		m[i] = p.Mass
	}
	return m
}

// Intensities returns the intensities of points
func Intensities(points []Point) []float64 {
	v := make([]float64, len(points))
	for i, p := range points {
		v[i] = p.Intensity
	}
	return v
}
