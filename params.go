// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/524D/mslab/internal/calib"
	"github.com/524D/mslab/internal/mpa"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	infoDefault = iota
	infoSilent
	infoVerbose
)

// Options of all sub-commands
type commonParams struct {
	dir       string // Data directory
	outDir    string // Directory for the output files
	encoding  string // Character set of the input files
	verbosity int    // Verbosity of progress messages (infoDefault...)
}

// Options of the spectrum sub-command
type spectrumParams struct {
	commonParams
	calFilename   string  // Calibration samples
	dataFilename  string  // Magnet scan
	paramFilename string  // Fit parameters, written when missing
	refit         bool    // Fit even when the parameter file exists
	lowMass       float64 // lower mass window boundary
	upMass        float64 // upper mass window boundary
	format        string  // Image format of the plots
	debug         string  // Range of spectrum points to print
}

// Options of the fsires and mpa sub-commands
type convertParams struct {
	commonParams
	nameOffset int // Lines between an mpa block marker and its NAME= line
}

// newFlagSet returns the flag set of a sub-command with the options that
// all sub-commands share
func newFlagSet(cmd string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	fs.StringP("out", "o", "",
		"`directory` for the output files (default: current directory)")
	fs.String("encoding", "",
		"character set of the input files, e.g. windows-1252 (default: utf-8)")
	fs.String("config", "",
		"config `file` (default: mslab.yaml in the current directory, if present)")
	fs.BoolP("verbose", "v", false,
		`Print more verbose progress information`)
	fs.BoolP("quiet", "q", false,
		`Don't print any output except for errors`)
	return fs
}

// loadConfig parses args and merges the flags with MSLAB_* environment
// variables and the config file. Flags take precedence over the
// environment, the environment over the config file.
func loadConfig(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(`MSLAB`)
	v.SetEnvKeyReplacer(strings.NewReplacer(`-`, `_`))
	v.AutomaticEnv()

	if cfg := v.GetString(`config`); cfg != `` {
		v.SetConfigFile(cfg)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config file %s: %w", cfg, err)
		}
		return v, nil
	}
	v.SetConfigName(progName)
	v.SetConfigType(`yaml`)
	v.AddConfigPath(`.`)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}
	return v, nil
}

func commonFromConfig(v *viper.Viper, args []string) commonParams {
	var par commonParams
	if len(args) > 0 {
		par.dir = args[0]
	}
	par.outDir = v.GetString(`out`)
	par.encoding = v.GetString(`encoding`)
	if v.GetBool(`verbose`) {
		par.verbosity = infoVerbose
	}
	if v.GetBool(`quiet`) {
		par.verbosity = infoSilent
	}
	return par
}

// setVerbosity sets the global log level
func setVerbosity(verbosity int) {
	switch verbosity {
	case infoSilent:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case infoVerbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func spectrumFlags() *pflag.FlagSet {
	fs := newFlagSet(`spectrum`)
	fs.String("cal", "",
		"calibration `file` with magnet current and mass columns")
	fs.String("data", "",
		"spectrum data `file`; substances are read from masses_<file>")
	fs.String("params", calib.DefaultParamFile,
		"fit parameter `file`, computed from the calibration file when missing")
	fs.Bool("refit", false,
		`Compute the fit parameters even when the parameter file exists`)
	fs.String("mass", "",
		"mass `range`"+` to plot, e.g. 10:60. Default is the whole spectrum`)
	fs.String("format", "png",
		"image `format` of the plots: png, svg or pdf")
	fs.String("debug", "",
		"Print the derived spectrum points for given index `range` e.g. 3:6")
	return fs
}

func spectrumFromConfig(v *viper.Viper, args []string) (spectrumParams, error) {
	par := spectrumParams{commonParams: commonFromConfig(v, args)}
	par.calFilename = v.GetString(`cal`)
	par.dataFilename = v.GetString(`data`)
	par.paramFilename = v.GetString(`params`)
	par.refit = v.GetBool(`refit`)
	par.format = strings.ToLower(v.GetString(`format`))
	par.debug = v.GetString(`debug`)

	switch par.format {
	case `png`, `svg`, `pdf`:
	default:
		return par, fmt.Errorf("invalid plot format %q", par.format)
	}
	var err error
	par.lowMass, par.upMass, err = parseFloat64Range(v.GetString(`mass`),
		-math.MaxFloat64, math.MaxFloat64)
	if err != nil {
		return par, fmt.Errorf("invalid mass range %q: %w", v.GetString(`mass`), err)
	}
	return par, nil
}

func fsiresFlags() *pflag.FlagSet {
	return newFlagSet(`fsires`)
}

func mpaFlags() *pflag.FlagSet {
	fs := newFlagSet(`mpa`)
	fs.Int("nameoffset", mpa.DefaultNameOffset,
		`number of lines between a data block marker and the NAME= line
that names its sheet`)
	return fs
}

func convertFromConfig(v *viper.Viper, args []string) (convertParams, error) {
	par := convertParams{commonParams: commonFromConfig(v, args)}
	par.nameOffset = v.GetInt(`nameoffset`)
	return par, nil
}
