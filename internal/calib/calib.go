// Package calib computes the relation between the (pre)magnet current and
// the ion mass. The mass is modelled as a quadratic function of the
// squared current: m = a*x^2 + b*x + c with x = I^2.
package calib

import (
	"errors"
	"fmt"
	"sort"
)

// Sample is a single calibration measurement
type Sample struct {
	Current float64 // magnet current (A)
	Mass    float64 // known mass (u)
}

// Params are the fit parameters, as persisted in the parameter file
type Params struct {
	A        float64
	B        float64
	C        float64
	RSquared float64
}

// Fit is the result of a least-squares fit
type Fit struct {
	Params
	UA, UB, UC float64   // one sigma uncertainties of A, B and C
	X          []float64 // abscissa used for the fit (squared current)
	Y          []float64 // mass
}

var (
	ErrTooFewSamples = errors.New("at least 3 calibration samples are needed")
	ErrDegenerate    = errors.New("calibration data does not determine a quadratic")
)

// FittingError reports calibration data that cannot be fitted
type FittingError struct {
	N      int // number of samples offered to the fit
	Reason string
	Err    error
}

func (e *FittingError) Error() string {
	return fmt.Sprintf("calibration fit on %d samples: %s", e.N, e.Reason)
}

func (e *FittingError) Unwrap() error { return e.Err }

// Eval evaluates the quadratic at x (x is already the squared current)
func (p Params) Eval(x float64) float64 {
	return p.A*x*x + p.B*x + p.C
}

// Mass converts a magnet current into a mass
func (p Params) Mass(current float64) float64 {
	return p.Eval(current * current)
}

// SortByCurrent sorts samples by ascending current
func SortByCurrent(samples []Sample) {
	sort.SliceStable(samples,
		func(i, j int) bool { return samples[i].Current < samples[j].Current })
}

// FitSamples sorts the samples by current and fits the mass as a quadratic
// function of the squared current
func FitSamples(samples []Sample) (Fit, error) {
	s := make([]Sample, len(samples))
	copy(s, samples)
	SortByCurrent(s)
	x := make([]float64, len(s))
	y := make([]float64, len(s))
	for i, cal := range s {
		x[i] = cal.Current * cal.Current
		y[i] = cal.Mass
	}
	return Quadratic(x, y)
}
