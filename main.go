// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// Program name and version
const progName = "mslab"

var progVersion = `Unknown`

// prompter asks the operator for values that were not given as option
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprintln(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == ``) {
		return ``, fmt.Errorf("no answer to %q", question)
	}
	return strings.TrimSpace(line), nil
}

// askDir fills in the data directory when it was not given
func (p *prompter) askDir(par *commonParams) error {
	if par.dir != `` {
		return nil
	}
	dir, err := p.ask(`Please enter the name of the directory (absolute path of folder): `)
	par.dir = dir
	return err
}

// promptSpectrum asks for the missing file names of the spectrum command
func promptSpectrum(par *spectrumParams, p *prompter) error {
	if err := p.askDir(&par.commonParams); err != nil {
		return err
	}
	fitNeeded, err := needFit(*par)
	if err != nil {
		return err
	}
	if fitNeeded && par.calFilename == `` {
		if par.calFilename, err = p.ask(`Enter the name of the calibration file with extension: `); err != nil {
			return err
		}
	}
	if par.dataFilename == `` {
		if par.dataFilename, err = p.ask(`Enter the name of the data file with extension: `); err != nil {
			return err
		}
	}
	return nil
}

func spectrumCmd(args []string, p *prompter) error {
	fs := spectrumFlags()
	fs.Usage = func() { commandUsage(fs, `<dir>`, `derive and plot an annotated mass spectrum`) }
	v, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	par, err := spectrumFromConfig(v, fs.Args())
	if err != nil {
		return err
	}
	setVerbosity(par.verbosity)
	if err := promptSpectrum(&par, p); err != nil {
		return err
	}
	return runSpectrum(par)
}

func fsiresCmd(args []string, p *prompter) error {
	fs := fsiresFlags()
	fs.Usage = func() { commandUsage(fs, `<dir>`, `convert the .fsires files of a directory to two workbooks`) }
	v, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	par, err := convertFromConfig(v, fs.Args())
	if err != nil {
		return err
	}
	setVerbosity(par.verbosity)
	if err := p.askDir(&par.commonParams); err != nil {
		return err
	}
	return runFsires(par)
}

func mpaCmd(args []string, p *prompter) error {
	fs := mpaFlags()
	fs.Usage = func() { commandUsage(fs, `<dir>`, `convert every .mpa file of a directory to a workbook`) }
	v, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	par, err := convertFromConfig(v, fs.Args())
	if err != nil {
		return err
	}
	if par.nameOffset < 1 {
		return fmt.Errorf("invalid name offset %d", par.nameOffset)
	}
	setVerbosity(par.verbosity)
	if err := p.askDir(&par.commonParams); err != nil {
		return err
	}
	return runMpa(par)
}

func commandUsage(fs *pflag.FlagSet, args string, what string) {
	exeName := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "USAGE:\n  %s %s [options] %s\n\n  %s\n\nOPTIONS:\n",
		exeName, fs.Name(), args, strings.ToUpper(what[:1])+what[1:])
	fs.PrintDefaults()
}

func usage() {
	exeName := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr,
		`USAGE:
  %s <command> [options] <dir>

  Tools for the mass spectrometry lab: magnet calibration, spectrum plots
  and conversion of instrument output to Excel workbooks.

COMMANDS:
  spectrum  calibrate magnet current to mass and plot an annotated spectrum
  fsires    convert AMS .fsires result files to workbooks sorted by file
            and by batch
  mpa       convert SIMS .mpa files to workbooks, one sheet per data block
  version   show software version

  Type %s <command> --help for the options of a command.

CONFIGURATION:
  Every option can also be set with an environment variable MSLAB_<OPTION>
  (e.g. MSLAB_ENCODING=windows-1252) or in a YAML config file mslab.yaml in
  the current directory. Command line options take precedence.

  When the directory or a needed file name is not given, it is asked for.

USAGE EXAMPLES:
  %s spectrum --data scan1.txt /data/2022-03-01
    Plot scan1.txt using fit_param.asc in /data/2022-03-01. When that file
    does not exist yet, the calibration file is asked for and fitted first.

  %s fsires -o /tmp /data/batch12
    Write batch12_data_sorted_by_file.xlsx and
    batch12_data_sorted_by_batch.xlsx to /tmp.
`, exeName, exeName, exeName, exeName)
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	p := newPrompter(os.Stdin, os.Stdout)
	var err error
	switch os.Args[1] {
	case `spectrum`:
		err = spectrumCmd(os.Args[2:], p)
	case `fsires`:
		err = fsiresCmd(os.Args[2:], p)
	case `mpa`:
		err = mpaCmd(os.Args[2:], p)
	case `version`, `-version`, `--version`:
		if progVersion == `Unknown` {
			progVersion = `Unknown
Please build this program with -ldflags "-X main.progVersion=<version>" so that the version is shown here.`
		}
		fmt.Fprintf(os.Stderr, "%s version %s\n", progName, progVersion)
		return
	case `help`, `-h`, `-help`, `--help`:
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg(os.Args[1] + " failed")
	}
}
