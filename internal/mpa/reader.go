package mpa

import (
	"io"
	"strings"

	"github.com/524D/mslab/internal/labfile"
)

// Read reads an .mpa file into blocks, in file order. The first block is
// always the parameter block. Name is used in error messages.
func Read(r io.Reader, name string, opt Options) ([]Block, error) {
	if opt.NameOffset <= 0 {
		opt.NameOffset = DefaultNameOffset
	}
	lines, err := labfile.ReadLines(r)
	if err != nil {
		return nil, err
	}

	blocks := []Block{{Name: ParamSheet}}
	seen := map[string]bool{strings.ToLower(ParamSheet): true}
	row := 0
	inData := false
	for i, line := range lines {
		kind := Classify(line, inData)
		var cells []string
		switch kind {
		case KindParam:
			inData = false
			key, value, _ := strings.Cut(line, keyValueSep)
			cells = []string{key, value}
		case KindDataStart:
			inData = true
			cells = []string{line}
		case KindBlockStart:
			inData = false
			bn, err := blockName(lines, i, opt.NameOffset, name)
			if err != nil {
				return nil, err
			}
			if seen[strings.ToLower(bn)] {
				return nil, labfile.Errorf(name, i+1, ErrDuplicateBlock, "block %q", bn)
			}
			seen[strings.ToLower(bn)] = true
			blocks = append(blocks, Block{Name: bn, Marker: line})
			row = 0
			cells = []string{line}
		case KindVerbatim:
			inData = false
			cells = []string{line}
		case KindData:
			cells = strings.Split(line, dataSep)
		}
		if kind != KindIgnored {
			b := &blocks[len(blocks)-1]
			b.Rows = append(b.Rows, Row{Kind: kind, Cells: cells, No: row})
		}
		row++
	}
	return blocks, nil
}

// blockName returns the name of the block that starts at line i
func blockName(lines []string, i, offset int, file string) (string, error) {
	j := i + offset
	if j >= len(lines) {
		return ``, labfile.Errorf(file, i+1, ErrBlockName,
			"%s: file ends before NAME= line %d lines below", lines[i], offset)
	}
	key, value, ok := strings.Cut(lines[j], keyValueSep)
	if !ok || strings.TrimSpace(key) != nameKey || value == `` {
		return ``, labfile.Errorf(file, j+1, ErrBlockName,
			"%s: expected NAME= line, found %q", lines[i], lines[j])
	}
	return value, nil
}
