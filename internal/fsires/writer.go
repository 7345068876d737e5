package fsires

import (
	"cmp"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/524D/mslab/internal/labfile"
	"github.com/524D/mslab/internal/workbook"
)

// Sheets is the part of a workbook that the writers use. Rows are 0-based.
type Sheets interface {
	AddSheet(name string) error
	SetRow(sheet string, row int, cells []any) error
}

// Header cell of the file name column in the batch workbook
const fileColumn = `File of origin`

// WriteByFile writes every record to its own sheet, named 1, 2, ... in the
// order of recs. The sheet holds one row per line, from the first
// specification line to the end of the file.
func WriteByFile(wb Sheets, recs []Record) error {
	for i, rec := range recs {
		sheet := strconv.Itoa(i + 1)
		if err := wb.AddSheet(sheet); err != nil {
			return err
		}
		row := 0
		put := func(lines []Line, split func(string) []string) error {
			for _, l := range lines {
				if err := wb.SetRow(sheet, row, workbook.Cells(split(l.Text))); err != nil {
					return err
				}
				row++
			}
			return nil
		}
		if err := put(rec.Specs, KeyValueRow); err != nil {
			return err
		}
		if err := put(rec.Results, KeyValueRow); err != nil {
			return err
		}
		if err := put(rec.Data, DataRow); err != nil {
			return err
		}
	}
	return nil
}

type batch struct {
	row   int
	count int
}

// WriteByBatch collects the data tables of all records with the same
// sample identifier in one sheet, named after the identifier. Each row
// starts with the file name and a running counter. Only the first record
// of a sample contributes its column names.
func WriteByBatch(wb Sheets, recs []Record) error {
	batches := make(map[string]*batch)
	for _, rec := range recs {
		id := rec.SampleID
		if id == `` {
			return labfile.Errorf(rec.Name, sampleIDLine+1, ErrNoSampleID, "no %q separator", keySep)
		}
		file := filepath.Base(rec.Name)
		data := rec.DataLines()

		b, ok := batches[id]
		if !ok {
			if err := wb.AddSheet(id); err != nil {
				return err
			}
			b = &batch{}
			batches[id] = b
			if len(data) > 0 {
				header := append([]any{fileColumn, b.count}, workbook.Cells(DataRow(data[0].Text))...)
				if err := wb.SetRow(id, b.row, header); err != nil {
					return err
				}
				b.row++
				b.count++
			}
		}
		if len(data) > 0 {
			data = data[1:]
		}

		for _, l := range data {
			fields := DataRow(l.Text)
			if len(fields) == 0 {
				continue
			}
			row := append([]any{file, b.count}, workbook.Cells(fields)...)
			if err := wb.SetRow(id, b.row, row); err != nil {
				return err
			}
			b.row++
			b.count++
		}
	}
	return nil
}

// SortFiles sorts result file names by the number in their stem, so 2.fsires
// comes before 10.fsires. Names without numeric stem follow in lexical
// order.
func SortFiles(names []string) {
	type key struct {
		n   int
		num bool
	}
	keyOf := func(name string) key {
		n, err := strconv.Atoi(labfile.Stem(name))
		return key{n: n, num: err == nil}
	}
	slices.SortStableFunc(names, func(a, b string) int {
		ka, kb := keyOf(a), keyOf(b)
		switch {
		case ka.num && kb.num:
			return cmp.Compare(ka.n, kb.n)
		case ka.num:
			return -1
		case kb.num:
			return 1
		}
		return cmp.Compare(a, b)
	})
}
