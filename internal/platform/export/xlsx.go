// Package export renders tabular views as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// Column describes one workbook column: its header text and width in
// excelize character units.
type Column struct {
	Header string
	Width  float64
}

// Sheet is a ready-to-render table. Rows hold display strings already
// formatted by the caller.
type Sheet struct {
	Name    string
	Columns []Column
	Rows    [][]string
}

// WriteXLSX renders the sheet as a single-sheet workbook and streams it
// to w.
func WriteXLSX(w io.Writer, s Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := s.Name
	if sheet == "" {
		sheet = "Sheet1"
	}
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, col := range s.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, col.Header)
		f.SetCellStyle(sheet, cell, cell, headerStyle)

		name, _ := excelize.ColumnNumberToName(i + 1)
		width := col.Width
		if width <= 0 {
			width = 18
		}
		f.SetColWidth(sheet, name, name, width)
	}

	for r, row := range s.Rows {
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(sheet, cell, val)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FormatFecha renders timestamps the way the roster displays them.
func FormatFecha(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}
