package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Workbook writes rows sheet by sheet.
type Workbook struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
	headerStyle  int
}

func NewWorkbook() *Workbook {
	return &Workbook{file: excelize.NewFile(), headerStyle: -1}
}

// AddSheet adds a new sheet with the given name and makes it current.
func (w *Workbook) AddSheet(name string) error {
	// Excel limit
	if len(name) > 31 {
		name = name[:31]
	}

	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes bold column headers and freezes them.
func (w *Workbook) WriteHeader(columns []string) error {
	if err := w.WriteRow(toRow(columns)); err != nil {
		return err
	}

	if w.headerStyle < 0 {
		style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("header style: %w", err)
		}
		w.headerStyle = style
	}
	row := w.currentRow - 1
	startCell, _ := excelize.CoordinatesToCellName(1, row)
	endCell, _ := excelize.CoordinatesToCellName(len(columns), row)
	if err := w.file.SetCellStyle(w.currentSheet, startCell, endCell, w.headerStyle); err != nil {
		return err
	}
	return w.file.SetPanes(w.currentSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      row,
		TopLeftCell: fmt.Sprintf("A%d", row+1),
		ActivePane:  "bottomLeft",
	})
}

// WriteRow writes a data row to the current sheet.
func (w *Workbook) WriteRow(row []any) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}

	w.currentRow++
	return nil
}

// Save writes the workbook to wr.
func (w *Workbook) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// Close releases resources.
func (w *Workbook) Close() error {
	return w.file.Close()
}

func toRow(values []string) []any {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
