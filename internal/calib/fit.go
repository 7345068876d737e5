package calib

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const nrFitPars = 3

// Quadratic fits y = a*x^2 + b*x + c by linear least squares.
// The uncertainties are the square roots of the diagonal of the parameter
// covariance, scaled by the residual variance SS_res/(n-3). With exactly 3
// samples the residual variance is undefined and the uncertainties are +Inf.
func Quadratic(x, y []float64) (Fit, error) {
	var fit Fit
	n := len(x)
	if len(y) != n {
		panic("calib: x and y differ in length")
	}
	if n < nrFitPars {
		return fit, &FittingError{N: n, Reason: ErrTooFewSamples.Error(), Err: ErrTooFewSamples}
	}
	if distinct(x) < nrFitPars {
		return fit, &FittingError{N: n,
			Reason: "fewer than 3 distinct current values",
			Err:    ErrDegenerate}
	}

	// Design matrix with columns x^2, x, 1
	j := mat.NewDense(n, nrFitPars, nil)
	for i, xi := range x {
		j.Set(i, 0, xi*xi)
		j.Set(i, 1, xi)
		j.Set(i, 2, 1)
	}
	yv := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(j)
	var p mat.VecDense
	// A Condition error only warns about precision, the solution is still
	// computed
	if err := qr.SolveVecTo(&p, false, yv); err != nil && !isCondition(err) {
		return fit, &FittingError{N: n, Reason: err.Error(), Err: ErrDegenerate}
	}
	fit.A, fit.B, fit.C = p.AtVec(0), p.AtVec(1), p.AtVec(2)
	if !finite(fit.A, fit.B, fit.C) {
		return fit, &FittingError{N: n, Reason: "singular system", Err: ErrDegenerate}
	}

	ssRes := fit.Params.ssRes(x, y)
	mean := stat.Mean(y, nil)
	ssTot := 0.0
	for _, yi := range y {
		ssTot += (yi - mean) * (yi - mean)
	}
	if ssTot == 0 {
		return fit, &FittingError{N: n, Reason: "all masses are equal", Err: ErrDegenerate}
	}
	fit.RSquared = 1 - ssRes/ssTot

	fit.UA, fit.UB, fit.UC = math.Inf(1), math.Inf(1), math.Inf(1)
	if n > nrFitPars {
		var jtj, cov mat.Dense
		jtj.Mul(j.T(), j)
		if err := cov.Inverse(&jtj); err == nil || isCondition(err) {
			cov.Scale(ssRes/float64(n-nrFitPars), &cov)
			fit.UA = math.Sqrt(cov.At(0, 0))
			fit.UB = math.Sqrt(cov.At(1, 1))
			fit.UC = math.Sqrt(cov.At(2, 2))
		}
	}
	fit.X = append([]float64(nil), x...)
	fit.Y = append([]float64(nil), y...)
	return fit, nil
}

// SSRes returns the residual sum of squares of the fit on its own data
func (f Fit) SSRes() float64 {
	return f.Params.ssRes(f.X, f.Y)
}

func (p Params) ssRes(x, y []float64) float64 {
	res := make([]float64, len(x))
	for i := range x {
		res[i] = y[i] - p.Eval(x[i])
	}
	return floats.Dot(res, res)
}

// distinct counts the distinct values in x
func distinct(x []float64) int {
	seen := make(map[float64]struct{}, len(x))
	for _, v := range x {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func isCondition(err error) bool {
	var c mat.Condition
	return errors.As(err, &c)
}

func finite(v ...float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
