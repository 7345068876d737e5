// Package workbook writes the converted instrument data to .xlsx files
package workbook

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrDuplicateSheet is returned when a sheet name is used twice
var ErrDuplicateSheet = errors.New("duplicate sheet name")

// Name of the sheet that excelize creates with a new file
const defaultSheet = `Sheet1`

// Workbook is an .xlsx file under construction. Sheets keep the order in
// which they were added.
type Workbook struct {
	f      *excelize.File
	sheets []string
	index  map[string]bool
}

// New creates an empty workbook
func New() *Workbook {
	return &Workbook{
		f:     excelize.NewFile(),
		index: make(map[string]bool),
	}
}

// AddSheet appends a sheet. Sheet names must follow the Excel rules
// (at most 31 characters, none of :\/?*[]) and be unique, ignoring case.
func (w *Workbook) AddSheet(name string) error {
	if w.index[strings.ToLower(name)] {
		return fmt.Errorf("sheet %q: %w", name, ErrDuplicateSheet)
	}
	var err error
	if len(w.sheets) == 0 {
		// Reuse the sheet that comes with a new file
		err = w.f.SetSheetName(defaultSheet, name)
	} else {
		_, err = w.f.NewSheet(name)
	}
	if err != nil {
		return fmt.Errorf("sheet %q: %w", name, err)
	}
	w.sheets = append(w.sheets, name)
	w.index[strings.ToLower(name)] = true
	return nil
}

// SetRow writes cells to the 0-based row of sheet, starting in the first
// column. Existing cells to the right of the new values are kept.
func (w *Workbook) SetRow(sheet string, row int, cells []any) error {
	if !w.index[strings.ToLower(sheet)] {
		return fmt.Errorf("sheet %q does not exist", sheet)
	}
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row+1)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &cells)
}

// Sheets returns the sheet names in order of creation
func (w *Workbook) Sheets() []string {
	return append([]string(nil), w.sheets...)
}

// Rows returns the cell values of sheet as text
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	return w.f.GetRows(sheet)
}

// SaveAs writes the workbook to path
func (w *Workbook) SaveAs(path string) error {
	if len(w.sheets) > 0 {
		w.f.SetActiveSheet(0)
	}
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// Close releases the resources of the workbook
func (w *Workbook) Close() error {
	return w.f.Close()
}

// Cell converts a text field to a cell value: a float64 when the text is a
// finite number, otherwise the text itself
func Cell(s string) any {
	t := strings.TrimSpace(s)
	if t == `` {
		return s
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	return f
}

// Cells converts all fields with Cell
func Cells(fields []string) []any {
	cells := make([]any, len(fields))
	for i, f := range fields {
		cells[i] = Cell(f)
	}
	return cells
}
