package mpa

import (
	"github.com/524D/mslab/internal/workbook"
)

// Sheets is the part of a workbook that WriteBlocks uses. Rows are 0-based.
type Sheets interface {
	AddSheet(name string) error
	SetRow(sheet string, row int, cells []any) error
}

// WriteBlocks writes every block to a sheet named after the block. Values
// and table cells that are numbers are written as numbers.
func WriteBlocks(wb Sheets, blocks []Block) error {
	for _, b := range blocks {
		if err := wb.AddSheet(b.Name); err != nil {
			return err
		}
		for _, r := range b.Rows {
			if err := wb.SetRow(b.Name, r.No, cells(r)); err != nil {
				return err
			}
		}
	}
	return nil
}

func cells(r Row) []any {
	switch r.Kind {
	case KindParam:
		return []any{r.Cells[0], workbook.Cell(r.Cells[1])}
	case KindData:
		return workbook.Cells(r.Cells)
	}
	c := make([]any, len(r.Cells))
	for i, s := range r.Cells {
		c[i] = s
	}
	return c
}
