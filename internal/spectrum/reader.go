package spectrum

import (
	"io"
	"strconv"
	"strings"

	"github.com/524D/mslab/internal/labfile"
)

// dataMarker precedes the scan data. It is followed by two header lines.
const (
	dataMarker  = `DATA`
	dataHeaders = 2
)

// ReadRaw reads a magnet scan file. Samples follow the DATA marker line
// and its two header lines, one sample per line: current and signal
// separated by spaces or tabs.
func ReadRaw(r io.Reader) ([]Raw, error) {
	lines, err := labfile.ReadLines(r)
	if err != nil {
		return nil, err
	}
	start := -1
	for i, l := range lines {
		if l == dataMarker {
			start = i + 1 + dataHeaders
			break
		}
	}
	if start < 0 {
		return nil, labfile.Errorf(``, 0, labfile.ErrMissingMarker, "no %s line", dataMarker)
	}

	var raw []Raw
	for i := start; i < len(lines); i++ {
		v, ok, err := twoFloats(lines[i], i+1)
		if err != nil {
			return nil, err
		}
		if ok {
			raw = append(raw, Raw{Current: v[0], Signal: v[1]})
		}
	}
	return raw, nil
}

// ReadSubstances reads the substance table: a header line followed by
// lines with mass and name
func ReadSubstances(r io.Reader) ([]Substance, error) {
	lines, err := labfile.ReadLines(r)
	if err != nil {
		return nil, err
	}
	var subs []Substance
	for i := 1; i < len(lines); i++ {
		fields := strings.Fields(lines[i])
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, labfile.Errorf(``, i+1, nil, "expected mass and name")
		}
		m, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, labfile.Errorf(``, i+1, err, "invalid mass %q", fields[0])
		}
		subs = append(subs, Substance{Mass: m, Name: fields[1]})
	}
	return subs, nil
}

// twoFloats parses the first two fields of a line. Blank lines return
// ok == false.
func twoFloats(line string, lineNr int) ([2]float64, bool, error) {
	var v [2]float64
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return v, false, nil
	}
	if len(fields) < 2 {
		return v, false, labfile.Errorf(``, lineNr, nil, "expected 2 columns, found %d", len(fields))
	}
	for k := range v {
		f, err := strconv.ParseFloat(fields[k], 64)
		if err != nil {
			return v, false, labfile.Errorf(``, lineNr, err, "invalid number %q", fields[k])
		}
		v[k] = f
	}
	return v, true, nil
}
