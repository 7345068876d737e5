// Package fsires reads the text result files (.fsires) of an AMS
// instrument and writes them to workbooks.
//
// A result file has a free header line, a block of "key : value"
// specifications, a [RESULTS] section in the same format and a
// [BLOCK DATA] section with a whitespace separated table. The first line of
// the table holds the column names.
package fsires

import (
	"errors"
)

// Section markers
const (
	MarkerResults = `[RESULTS]`
	MarkerData    = `[BLOCK DATA]`
)

const (
	keySep = ` : `
	// 0-based index of the "Sample Id : <id>" line
	sampleIDLine = 3
)

// State is the section of a result file that a line belongs to
type State int

// Line states, in file order
const (
	StateHeader State = iota
	StateSpecs
	StateResults
	StateData
)

func (s State) String() string {
	switch s {
	case StateHeader:
		return "header"
	case StateSpecs:
		return "specs"
	case StateResults:
		return "results"
	case StateData:
		return "data"
	}
	return "unknown"
}

// Line is a classified line of a result file. No is the 1-based line number.
type Line struct {
	State State
	Text  string
	No    int
}

// Record holds one result file. Results starts with the [RESULTS] marker
// line and Data with the [BLOCK DATA] marker line.
type Record struct {
	Name     string
	Header   Line
	Specs    []Line
	Results  []Line
	Data     []Line
	SampleID string
}

var (
	ErrMarkerOrder = errors.New("fsires: section marker out of order")
	ErrNoSampleID  = errors.New("fsires: no sample identifier")
)

// Classifier assigns the lines of a result file to their section. The zero
// value is ready for the first line.
type Classifier struct {
	state   State
	started bool
}

// Next classifies the next line of the file
func (c *Classifier) Next(text string) (State, error) {
	if !c.started {
		c.started = true
		c.state = StateHeader
		return c.state, nil
	}
	switch text {
	case MarkerResults:
		if c.state >= StateResults {
			return c.state, ErrMarkerOrder
		}
		c.state = StateResults
	case MarkerData:
		if c.state != StateResults {
			return c.state, ErrMarkerOrder
		}
		c.state = StateData
	default:
		if c.state == StateHeader {
			c.state = StateSpecs
		}
	}
	return c.state, nil
}

// State returns the section of the last classified line
func (c *Classifier) State() State {
	return c.state
}

// DataLines returns the table lines of the record, without the marker
func (r *Record) DataLines() []Line {
	if len(r.Data) == 0 {
		return nil
	}
	return r.Data[1:]
}
