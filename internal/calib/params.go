package calib

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/524D/mslab/internal/labfile"
)

// DefaultParamFile is the name of the parameter file in the data directory
const DefaultParamFile = `fit_param.asc`

// Header line of the parameter file
const paramHeader = `Param_a   Param_b   Param_c   R^2`

// Format of the JSON fit report, if it ever changes we should still be
// able to parse reports from old versions
const reportFormatVersion = "1.0"

// ReadSamples reads a calibration file: a header line followed by lines
// with current and mass, separated by spaces or tabs
func ReadSamples(r io.Reader) ([]Sample, error) {
	var samples []Sample
	err := readColumns(r, 1, func(lineNr int, fields []string) error {
		cur, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return labfile.Errorf(``, lineNr, err, "invalid current %q", fields[0])
		}
		m, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return labfile.Errorf(``, lineNr, err, "invalid mass %q", fields[1])
		}
		samples = append(samples, Sample{Current: cur, Mass: m})
		return nil
	})
	return samples, err
}

// readColumns calls fn for every non-empty line after the first skip lines.
// Lines must have at least two whitespace separated fields.
func readColumns(r io.Reader, skip int, fn func(lineNr int, fields []string) error) error {
	s := bufio.NewScanner(r)
	lineNr := 0
	for s.Scan() {
		lineNr++
		if lineNr <= skip {
			continue
		}
		fields := strings.Fields(s.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return labfile.Errorf(``, lineNr, nil, "expected 2 columns, found %d", len(fields))
		}
		if err := fn(lineNr, fields); err != nil {
			return err
		}
	}
	return s.Err()
}

// Write writes the parameters in the format of the parameter file
func (p Params) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\n%s %s %s %s\n", paramHeader,
		formatFloat(p.A), formatFloat(p.B), formatFloat(p.C), formatFloat(p.RSquared))
	return err
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ReadParams reads a parameter file written by Params.Write.
// The header line is skipped.
func ReadParams(r io.Reader) (Params, error) {
	var p Params
	s := bufio.NewScanner(r)
	lineNr := 0
	for s.Scan() {
		lineNr++
		if lineNr == 1 {
			continue
		}
		fields := strings.Fields(s.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return p, labfile.Errorf(``, lineNr, nil, "expected 4 parameters, found %d", len(fields))
		}
		dst := []*float64{&p.A, &p.B, &p.C, &p.RSquared}
		for i, f := range fields {
			if i >= len(dst) {
				break
			}
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return p, labfile.Errorf(``, lineNr, err, "invalid parameter %q", f)
			}
			*dst[i] = v
		}
		// R^2 is informational and may be absent
		if len(fields) < 4 {
			p.RSquared = math.NaN()
		}
		return p, nil
	}
	if err := s.Err(); err != nil {
		return p, err
	}
	return p, labfile.Errorf(``, 0, nil, "no parameter line found")
}

// report is the JSON representation of a fit
type report struct {
	FormatVersion string
	Samples       int
	A, B, C       float64
	RSquared      float64
	Uncertainty   struct {
		A, B, C *float64 `json:",omitempty"`
	}
}

// WriteReport writes the fit as JSON, including the parameter
// uncertainties that the parameter file does not hold.
// Infinite uncertainties (exactly determined fit) are omitted.
func WriteReport(w io.Writer, fit Fit) error {
	var rep report
	rep.FormatVersion = reportFormatVersion
	rep.Samples = len(fit.X)
	rep.A, rep.B, rep.C, rep.RSquared = fit.A, fit.B, fit.C, fit.RSquared
	rep.Uncertainty.A = finitePtr(fit.UA)
	rep.Uncertainty.B = finitePtr(fit.UB)
	rep.Uncertainty.C = finitePtr(fit.UC)
	e := json.NewEncoder(w)
	e.SetIndent(``, `  `) // Make output easier to read for humans
	return e.Encode(rep)
}

func finitePtr(f float64) *float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}
