package csvexport

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Export"

// WriteXLSX writes the same table as Write into a single-sheet workbook.
func WriteXLSX(w io.Writer, cols []Column, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, c := range cols {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, c.Label); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for r, row := range rows {
		for i, c := range cols {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, row[c.Key]); err != nil {
				return fmt.Errorf("write row %d: %w", r, err)
			}
		}
	}
	if len(cols) > 0 {
		if err := f.SetPanes(sheetName, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("freeze header: %w", err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func XLSXBytes(cols []Column, rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, cols, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
