package export

import (
	"fmt"
	"io"

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Outline"

func writeXLSX(w io.Writer, res outline.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &[]interface{}{"Title", res.Title}); err != nil {
		return fmt.Errorf("write title row: %w", err)
	}
	if err := f.SetSheetRow(xlsxSheet, "A3", &[]interface{}{"Level", "Text", "Page"}); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetCellStyle(xlsxSheet, "A3", "C3", bold); err != nil {
		return fmt.Errorf("style header row: %w", err)
	}

	for i, e := range res.Outline {
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		row := []interface{}{e.Level.String(), e.Text, e.Page}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := f.SetColWidth(xlsxSheet, "B", "B", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
