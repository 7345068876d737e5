// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/524D/mslab/internal/calib"
	"github.com/524D/mslab/internal/labfile"
	"github.com/524D/mslab/internal/plots"
	"github.com/524D/mslab/internal/spectrum"
)

// Substance labels are read from this prefix plus the data file name
const massesPrefix = `masses_`

// Base name of the calibration check plot
const calibrationPlot = `calibration_fit`

// inDir returns name relative to the data directory, unless it is absolute
func inDir(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// outPath returns the path of an output file
func outPath(par commonParams, name string) string {
	if par.outDir == `` {
		return name
	}
	return filepath.Join(par.outDir, name)
}

// readFile opens path and passes it, decoded, to read. Parse errors are
// tagged with the path.
func readFile[T any](path, encoding string, read func(io.Reader) (T, error)) (T, error) {
	f, err := labfile.Open(path, encoding)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	v, err := read(f)
	return v, labfile.WithFile(err, path)
}

// createFile creates path and passes it to write
func createFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return &labfile.IOError{Path: path, Err: err}
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return &labfile.IOError{Path: path, Err: err}
	}
	return nil
}

// needFit tells whether the calibration must be fitted before the
// spectrum can be derived
func needFit(par spectrumParams) (bool, error) {
	if par.refit {
		return true, nil
	}
	_, err := os.Stat(inDir(par.dir, par.paramFilename))
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, &labfile.IOError{Path: inDir(par.dir, par.paramFilename), Err: err}
	}
	return false, nil
}

// fitCalibration fits the calibration file and writes the parameter file,
// the JSON fit report and the calibration check plot
func fitCalibration(par spectrumParams) (calib.Params, error) {
	t := time.Now()
	calFile := inDir(par.dir, par.calFilename)
	samples, err := readFile(calFile, par.encoding, calib.ReadSamples)
	if err != nil {
		return calib.Params{}, err
	}
	fit, err := calib.FitSamples(samples)
	if err != nil {
		return calib.Params{}, fmt.Errorf("%s: %w", calFile, err)
	}

	// The parameter file is written last, it marks a completed fit
	p, err := plots.Calibration(fit)
	if err != nil {
		return calib.Params{}, err
	}
	plotFile := outPath(par.commonParams, plots.FileName(calibrationPlot, par.format))
	if err := plots.Save(p, plotFile); err != nil {
		return calib.Params{}, err
	}

	paramFile := inDir(par.dir, par.paramFilename)
	reportFile := strings.TrimSuffix(paramFile, filepath.Ext(paramFile)) + `.json`
	err = createFile(reportFile, func(w io.Writer) error {
		return calib.WriteReport(w, fit)
	})
	if err != nil {
		return calib.Params{}, err
	}
	if err := createFile(paramFile, fit.Params.Write); err != nil {
		return calib.Params{}, err
	}

	log.Info().
		Str("file", calFile).
		Int("samples", len(samples)).
		Float64("a", fit.A).
		Float64("b", fit.B).
		Float64("c", fit.C).
		Float64("r2", fit.RSquared).
		Msg("Calibration fitted")
	for i := range fit.X {
		log.Debug().
			Float64("current2", fit.X[i]).
			Float64("mass", fit.Y[i]).
			Float64("residual", fit.Y[i]-fit.Eval(fit.X[i])).
			Msg("Calibration sample")
	}
	log.Debug().Str("params", paramFile).Str("report", reportFile).
		Str("plot", plotFile).Dur("took", time.Since(t)).Msg("Calibration written")
	return fit.Params, nil
}

// massWindow restricts the spectrum and the substance labels to the
// --mass range
func massWindow(par spectrumParams, points []spectrum.Point, subs []spectrum.Substance) (
	[]spectrum.Point, []spectrum.Substance) {
	return spectrum.Window(points, par.lowMass, par.upMass),
		spectrum.SubstanceWindow(subs, par.lowMass, par.upMass)
}

// runSpectrum derives the mass spectrum of the data file and plots it
// with the substance labels
func runSpectrum(par spectrumParams) error {
	t := time.Now()
	fitNeeded, err := needFit(par)
	if err != nil {
		return err
	}
	var params calib.Params
	if fitNeeded {
		if par.calFilename == `` {
			return fmt.Errorf("no calibration file given and %s not found",
				inDir(par.dir, par.paramFilename))
		}
		if params, err = fitCalibration(par); err != nil {
			return err
		}
	} else {
		params, err = readFile(inDir(par.dir, par.paramFilename), par.encoding, calib.ReadParams)
		if err != nil {
			return err
		}
		log.Debug().Str("file", par.paramFilename).Msg("Using existing fit parameters")
	}

	raw, err := readFile(inDir(par.dir, par.dataFilename), par.encoding, spectrum.ReadRaw)
	if err != nil {
		return err
	}
	masses := massesPrefix + filepath.Base(par.dataFilename)
	if d := filepath.Dir(par.dataFilename); d != `.` {
		masses = filepath.Join(d, masses)
	}
	subs, err := readFile(inDir(par.dir, masses), par.encoding, spectrum.ReadSubstances)
	if err != nil {
		return err
	}

	points, subs := massWindow(par, spectrum.Derive(raw, params), subs)
	if err := debugPoints(os.Stdout, par.debug, points); err != nil {
		return err
	}
	if len(points) > 0 {
		m := spectrum.Masses(points)
		log.Debug().
			Float64("mass_min", floats.Min(m)).
			Float64("mass_max", floats.Max(m)).
			Float64("peak_na", floats.Max(spectrum.Intensities(points))).
			Msg("Spectrum derived")
	}

	title := labfile.Stem(par.dataFilename)
	p, err := plots.Spectrum(title, points, subs)
	if err != nil {
		return err
	}
	plotFile := outPath(par.commonParams, plots.FileName(title, par.format))
	if err := plots.Save(p, plotFile); err != nil {
		return err
	}
	log.Info().
		Str("file", par.dataFilename).
		Int("points", len(points)).
		Int("substances", len(subs)).
		Str("plot", plotFile).
		Dur("took", time.Since(t)).
		Msg("Spectrum plotted")
	return nil
}
