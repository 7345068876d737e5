package fsires

import (
	"io"
	"strings"

	"github.com/524D/mslab/internal/labfile"
)

// Read reads a result file. Name is used in error messages and in the
// batch workbook.
func Read(r io.Reader, name string) (Record, error) {
	rec := Record{Name: name}
	lines, err := labfile.ReadLines(r)
	if err != nil {
		return rec, err
	}

	var c Classifier
	for i, text := range lines {
		state, err := c.Next(text)
		if err != nil {
			return rec, labfile.Errorf(name, i+1, err, "%s in %s section", text, state)
		}
		l := Line{State: state, Text: text, No: i + 1}
		switch state {
		case StateHeader:
			rec.Header = l
		case StateSpecs:
			rec.Specs = append(rec.Specs, l)
		case StateResults:
			rec.Results = append(rec.Results, l)
		case StateData:
			rec.Data = append(rec.Data, l)
		}
	}
	switch {
	case c.State() < StateResults:
		return rec, labfile.Errorf(name, 0, labfile.ErrMissingMarker, "no %s line", MarkerResults)
	case c.State() < StateData:
		return rec, labfile.Errorf(name, 0, labfile.ErrMissingMarker, "no %s line", MarkerData)
	}

	if len(lines) > sampleIDLine {
		if kv := KeyValueRow(lines[sampleIDLine]); len(kv) > 1 {
			rec.SampleID = kv[1]
		}
	}
	return rec, nil
}

// KeyValueRow splits a "key : value" line into its cells. Lines without
// separator give one cell, anything after a second separator is dropped.
func KeyValueRow(text string) []string {
	f := strings.SplitN(text, keySep, 3)
	if len(f) > 2 {
		f = f[:2]
	}
	return f
}

// DataRow splits a table line on white space
func DataRow(text string) []string {
	return strings.Fields(text)
}
