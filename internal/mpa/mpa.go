// Package mpa reads multi-parameter data files (.mpa) of a SIMS instrument
// and writes them to workbooks, one sheet per data block.
package mpa

import (
	"errors"
	"strings"
)

// ParamSheet holds the lines before the first data block
const ParamSheet = `Parameters`

// DefaultNameOffset is the distance from a block marker to the NAME= line
// that names the block
const DefaultNameOffset = 9

const (
	markerData  = `[DATA]`
	blockData   = `[DATA`
	blockCData  = `[CDAT`
	nameKey     = `NAME`
	dataSep     = "\t"
	keyValueSep = `=`
)

// Kind tells how a line is written to the sheet
type Kind int

const (
	KindParam     Kind = iota // key=value
	KindDataStart             // [DATA], the lines that follow are a table
	KindBlockStart            // [DATAn, ...] or [CDATn, ...] starts a block
	KindVerbatim              // other bracketed or blank line
	KindData                  // tab separated table line
	KindIgnored               // not written, but takes a row
)

var kindNames = [...]string{"param", "data start", "block start", "verbatim", "data", "ignored"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Row is a line of a block. No is the 0-based row in the block's sheet.
type Row struct {
	Kind  Kind
	Cells []string
	No    int
}

// Block is a section of the file that goes to its own sheet. Marker is the
// line that opened it, empty for the parameter block.
type Block struct {
	Name   string
	Marker string
	Rows   []Row
}

// Options control reading
type Options struct {
	// Lines between a block marker and its NAME= line
	NameOffset int
}

var (
	ErrBlockName      = errors.New("mpa: no block name")
	ErrDuplicateBlock = errors.New("mpa: duplicate block name")
)

// Classify returns the kind of line. inData tells whether a [DATA] line
// came before it without another kind of line in between.
func Classify(line string, inData bool) Kind {
	switch {
	case strings.Contains(line, keyValueSep):
		return KindParam
	case line == markerData:
		return KindDataStart
	case strings.HasPrefix(line, blockData), strings.HasPrefix(line, blockCData):
		return KindBlockStart
	case strings.HasPrefix(line, `[`), line == ``:
		return KindVerbatim
	case inData:
		return KindData
	}
	return KindIgnored
}
