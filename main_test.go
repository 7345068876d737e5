package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/524D/mslab/internal/calib"
	"github.com/524D/mslab/internal/labfile"
	"github.com/524D/mslab/internal/mpa"
	"github.com/524D/mslab/internal/plots"
	"github.com/524D/mslab/internal/spectrum"
)

func TestParseFloat64Range(t *testing.T) {
	tests := []struct {
		in       string
		min, max float64
		wantMin  float64
		wantMax  float64
		wantErr  bool
	}{
		{"0.5:1.5", 0, 2, 0.5, 1.5, false},
		{"", 0, 2, 0, 2, false},
		{"2.5:1.5", 0, 2, 1.5, 1.5, true},
		{":1.5", 0, 2, 0, 1.5, false},
		{"0.5:", 0, 2, 0.5, 2, false},
		{":", 0, 2, 0, 2, false},
		{"-2.0e10:3.0e10", -1e12, 1e12, -2e10, 3e10, false},
		{"-2.0:2.0", -1, 1, -1, 1, false},
		{"10-60", 0, 100, 0, 100, true},
	}
	for _, tt := range tests {
		min, max, err := parseFloat64Range(tt.in, tt.min, tt.max)
		if tt.wantErr {
			if !errors.Is(err, ErrRangeSpec) {
				t.Errorf("parseFloat64Range(%q): expected ErrRangeSpec, got: %v", tt.in, err)
			}
		} else if err != nil {
			t.Errorf("parseFloat64Range(%q): expected no error, got: %v", tt.in, err)
		}
		if min != tt.wantMin || max != tt.wantMax {
			t.Errorf("parseFloat64Range(%q) = %v, %v; want %v, %v", tt.in, min, max, tt.wantMin, tt.wantMax)
		}
	}
}

func TestParseIntRange(t *testing.T) {
	min, max, err := parseIntRange("3:6", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, min)
	assert.Equal(t, 6, max)

	min, max, err = parseIntRange("-5:", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, min)
	assert.Equal(t, 10, max)

	_, _, err = parseIntRange("6:3", 0, 10)
	assert.ErrorIs(t, err, ErrRangeSpec)
	_, _, err = parseIntRange("x", 0, 10)
	assert.ErrorIs(t, err, ErrRangeSpec)
}

func TestDebugPoints(t *testing.T) {
	pts := []spectrum.Point{{Mass: 1, Intensity: 2}, {Mass: 3, Intensity: 4}, {Mass: 5, Intensity: 6}}
	var sb strings.Builder
	require.NoError(t, debugPoints(&sb, "1:", pts))
	assert.Equal(t, "1 mass:3.000000 intens:4\n2 mass:5.000000 intens:6\n", sb.String())

	sb.Reset()
	require.NoError(t, debugPoints(&sb, "", pts))
	assert.Empty(t, sb.String())
	assert.ErrorIs(t, debugPoints(&sb, "2:1", pts), ErrRangeSpec)
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

// JSONCompare compares two JSON documents, floats approximately
func JSONCompare(t testing.TB, expected, actual io.Reader, extra ...cmp.Option) {
	opts := cmp.Options{cmp.Comparer(func(x, y float64) bool {
		delta := math.Abs(x - y)
		mean := math.Abs(x+y) / 2.0
		return delta < 1e-9 || delta/mean < 0.00001
	})}
	opts = append(opts, extra...)

	var in1 map[string]any
	var in2 map[string]any
	if err := json.NewDecoder(expected).Decode(&in1); err != nil {
		t.Fatalf("Error decoding expected JSON: %v", err)
	}
	if err := json.NewDecoder(actual).Decode(&in2); err != nil {
		t.Fatalf("Error decoding actual JSON: %v", err)
	}
	if diff := cmp.Diff(in1, in2, opts); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}
}

func calibrationText() string {
	var sb strings.Builder
	sb.WriteString("Current\tMass\n")
	// mass = 2 * I^2 + 1
	for _, i := range []float64{1, 2, 3, 4, 5} {
		fmt.Fprintf(&sb, "%g\t%g\n", i, 2*i*i+1)
	}
	return sb.String()
}

func scanText() string {
	var sb strings.Builder
	sb.WriteString("Magnet scan\nDATA\nCurrent Signal\nA A\n")
	for i := 1; i <= 20; i++ {
		cur := float64(i) / 4
		fmt.Fprintf(&sb, "%g %g\n", cur, 1e-9*float64(i))
	}
	return sb.String()
}

func TestRunSpectrum(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"cal.txt":          calibrationText(),
		"scan1.txt":        scanText(),
		"masses_scan1.txt": "Mass Name\n3 H\n9 ?\n",
	})

	par := spectrumParams{
		commonParams:  commonParams{dir: dir, outDir: out},
		calFilename:   "cal.txt",
		dataFilename:  "scan1.txt",
		paramFilename: calib.DefaultParamFile,
		lowMass:       -math.MaxFloat64,
		upMass:        math.MaxFloat64,
		format:        "svg",
	}
	require.NoError(t, runSpectrum(par))
	assert.FileExists(t, filepath.Join(out, "scan1.svg"))
	assert.FileExists(t, filepath.Join(out, "calibration_fit.svg"))

	f, err := os.Open(filepath.Join(dir, calib.DefaultParamFile))
	require.NoError(t, err)
	params, err := calib.ReadParams(f)
	f.Close()
	require.NoError(t, err)
	assert.InDelta(t, 0, params.A, 1e-9)
	assert.InDelta(t, 2, params.B, 1e-9)
	assert.InDelta(t, 1, params.C, 1e-9)
	assert.InDelta(t, 1, params.RSquared, 1e-9)

	report, err := os.Open(filepath.Join(dir, "fit_param.json"))
	require.NoError(t, err)
	defer report.Close()
	JSONCompare(t, strings.NewReader(`{
  "FormatVersion": "1.0",
  "Samples": 5,
  "A": 0,
  "B": 2,
  "C": 1,
  "RSquared": 1
}`), report, cmpopts.IgnoreMapEntries(func(k string, _ any) bool { return k == "Uncertainty" }))

	// The second run uses the parameter file, no calibration file needed
	par.calFilename = ""
	par.format = "png"
	require.NoError(t, runSpectrum(par))
	assert.FileExists(t, filepath.Join(out, "scan1.png"))
}

func TestRunSpectrumErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"cal.txt":   "Current Mass\n1 3\n2 9\n",
		"scan1.txt": scanText(),
	})
	par := spectrumParams{
		commonParams:  commonParams{dir: dir, outDir: t.TempDir()},
		calFilename:   "cal.txt",
		dataFilename:  "scan1.txt",
		paramFilename: calib.DefaultParamFile,
		format:        "png",
	}
	err := runSpectrum(par)
	var fe *calib.FittingError
	assert.True(t, errors.As(err, &fe), "got %v", err)
	assert.ErrorIs(t, err, calib.ErrTooFewSamples)

	par.calFilename = ""
	assert.Error(t, runSpectrum(par))

	par.calFilename = "missing.txt"
	var ioe *labfile.IOError
	assert.True(t, errors.As(runSpectrum(par), &ioe))
}

func TestRunSpectrumPlotFailureKeepsNoParams(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"cal.txt":          calibrationText(),
		"scan1.txt":        scanText(),
		"masses_scan1.txt": "Mass Name\n3 H\n",
	})
	par := spectrumParams{
		commonParams:  commonParams{dir: dir, outDir: filepath.Join(dir, "missing")},
		calFilename:   "cal.txt",
		dataFilename:  "scan1.txt",
		paramFilename: calib.DefaultParamFile,
		lowMass:       -math.MaxFloat64,
		upMass:        math.MaxFloat64,
		format:        "png",
	}
	require.Error(t, runSpectrum(par))
	assert.NoFileExists(t, filepath.Join(dir, calib.DefaultParamFile))

	// Without a parameter file the next run fits again
	fitNeeded, err := needFit(par)
	require.NoError(t, err)
	assert.True(t, fitNeeded)
}

func TestMassWindow(t *testing.T) {
	par := spectrumParams{lowMass: 5, upMass: 25}
	pts := []spectrum.Point{{Mass: 10, Intensity: 1}, {Mass: 20, Intensity: 2}, {Mass: 200, Intensity: 3}}
	subs := []spectrum.Substance{{Mass: 12, Name: "C"}, {Mass: 180, Name: "?"}}
	gotPts, gotSubs := massWindow(par, pts, subs)
	if diff := cmp.Diff(pts[:2], gotPts); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(subs[:1], gotSubs); diff != "" {
		t.Errorf("substances mismatch (-want +got):\n%s", diff)
	}

	p, err := plots.Spectrum("scan1", gotPts, gotSubs)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p.X.Min, par.lowMass)
	assert.LessOrEqual(t, p.X.Max, par.upMass)
}

func TestPromptSpectrum(t *testing.T) {
	dir := t.TempDir()
	var out strings.Builder
	p := newPrompter(strings.NewReader(dir+"\ncal.txt\nscan1.txt\n"), &out)
	par := spectrumParams{paramFilename: calib.DefaultParamFile}
	require.NoError(t, promptSpectrum(&par, p))
	assert.Equal(t, dir, par.dir)
	assert.Equal(t, "cal.txt", par.calFilename)
	assert.Equal(t, "scan1.txt", par.dataFilename)
	assert.Contains(t, out.String(), "calibration file")

	// With a parameter file there is no question for the calibration file
	writeFiles(t, dir, map[string]string{calib.DefaultParamFile: "h\n1 2 3 1\n"})
	p = newPrompter(strings.NewReader("scan2.txt"), io.Discard)
	par = spectrumParams{commonParams: commonParams{dir: dir}, paramFilename: calib.DefaultParamFile}
	require.NoError(t, promptSpectrum(&par, p))
	assert.Equal(t, "", par.calFilename)
	assert.Equal(t, "scan2.txt", par.dataFilename)

	p = newPrompter(strings.NewReader(""), io.Discard)
	par = spectrumParams{commonParams: commonParams{dir: dir}, paramFilename: calib.DefaultParamFile}
	assert.Error(t, promptSpectrum(&par, p))
}

const fsiresFile = `AMS result file
Date : 2022-03-01
Operator : LGM
Sample Id : %s
[RESULTS]
Ratio : 1.5e-12
[BLOCK DATA]
Run Time Current
1 10.5 3e-6
2 20.5 4e-6
`

func TestRunFsires(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "batch12")
	require.NoError(t, os.Mkdir(dir, 0o755))
	out := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"10.fsires": fmt.Sprintf(fsiresFile, "B1"),
		"2.fsires":  fmt.Sprintf(fsiresFile, "B1"),
		"3.fsires":  fmt.Sprintf(fsiresFile, "B2"),
		"notes.txt": "not a result file",
	})
	require.NoError(t, runFsires(convertParams{commonParams: commonParams{dir: dir, outDir: out}}))

	f, err := excelize.OpenFile(filepath.Join(out, "batch12_data_sorted_by_file.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, f.GetSheetList())
	rows, err := f.GetRows("1")
	require.NoError(t, err)
	assert.Len(t, rows, 3+2+4)
	f.Close()

	f, err = excelize.OpenFile(filepath.Join(out, "batch12_data_sorted_by_batch.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"B1", "B2"}, f.GetSheetList())
	rows, err = f.GetRows("B1")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"File of origin", "0", "Run", "Time", "Current"}, rows[0])
	// 2.fsires sorts before 10.fsires
	assert.Equal(t, "2.fsires", rows[1][0])
	assert.Equal(t, "10.fsires", rows[4][0])
	assert.Equal(t, "4", rows[4][1])
}

func TestRunFsiresMissingMarker(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"1.fsires": "header\na : 1\n[RESULTS]\n"})
	err := runFsires(convertParams{commonParams: commonParams{dir: dir, outDir: t.TempDir()}})
	assert.ErrorIs(t, err, labfile.ErrMissingMarker)
	var pe *labfile.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "1.fsires", pe.File)

	err = runFsires(convertParams{commonParams: commonParams{dir: filepath.Join(dir, "missing")}})
	var ioe *labfile.IOError
	assert.True(t, errors.As(err, &ioe))
}

func TestRunMpa(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	lines := []string{"[MPA4A]", "range=1024", "[DATA1, 9]"}
	for i := 1; i < mpa.DefaultNameOffset; i++ {
		lines = append(lines, fmt.Sprintf("p%d=%d", i, i))
	}
	lines = append(lines, "NAME=Spectrum1", "[DATA]", "1\t2", "3\t4")
	writeFiles(t, dir, map[string]string{"run1.mpa": strings.Join(lines, "\r\n") + "\r\n"})

	par := convertParams{commonParams: commonParams{dir: dir, outDir: out}, nameOffset: mpa.DefaultNameOffset}
	require.NoError(t, runMpa(par))

	f, err := excelize.OpenFile(filepath.Join(out, "run1.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Parameters", "Spectrum1"}, f.GetSheetList())
	rows, err := f.GetRows("Spectrum1")
	require.NoError(t, err)
	require.Len(t, rows, mpa.DefaultNameOffset+4)
	assert.Equal(t, []string{"[DATA]"}, rows[10])
	assert.Equal(t, []string{"1", "2"}, rows[11])
	assert.Equal(t, []string{"3", "4"}, rows[12])

	par.nameOffset = 3
	assert.ErrorIs(t, runMpa(par), mpa.ErrBlockName)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("MSLAB_ENCODING", "windows-1252")
	t.Setenv("MSLAB_NAMEOFFSET", "7")
	fs := mpaFlags()
	v, err := loadConfig(fs, []string{"--out", "/tmp/x", "-q", "/data"})
	require.NoError(t, err)
	par, err := convertFromConfig(v, fs.Args())
	require.NoError(t, err)
	assert.Equal(t, "/data", par.dir)
	assert.Equal(t, "/tmp/x", par.outDir)
	assert.Equal(t, "windows-1252", par.encoding)
	assert.Equal(t, 7, par.nameOffset)
	assert.Equal(t, infoSilent, par.verbosity)

	cfg := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("format: svg\nmass: \"10:60\"\n"), 0o644))
	fs = spectrumFlags()
	v, err = loadConfig(fs, []string{"--config", cfg, "--format", "pdf"})
	require.NoError(t, err)
	sp, err := spectrumFromConfig(v, fs.Args())
	require.NoError(t, err)
	assert.Equal(t, "pdf", sp.format)
	assert.Equal(t, 10.0, sp.lowMass)
	assert.Equal(t, 60.0, sp.upMass)
	assert.Equal(t, calib.DefaultParamFile, sp.paramFilename)

	fs = spectrumFlags()
	v, err = loadConfig(fs, []string{"--format", "bmp"})
	require.NoError(t, err)
	_, err = spectrumFromConfig(v, fs.Args())
	assert.Error(t, err)
}
