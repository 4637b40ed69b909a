package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Surgeries"

// WriteXLSX renders a summary to a spreadsheet stream: one row per surgery
// plus the month totals.
func WriteXLSX(w io.Writer, summary *Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Date", "Title", "Location", "Amount", "Payment status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	row := 2
	for _, line := range summary.Lines {
		values := []any{
			line.Date,
			line.Title,
			line.Location,
			line.Amount.InexactFloat64(),
			line.PayStatus,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return fmt.Errorf("writing line %d: %w", row, err)
			}
		}
		row++
	}

	row++
	totals := [][2]any{
		{"Receivable", summary.Receivable.InexactFloat64()},
		{"Received", summary.Received.InexactFloat64()},
	}
	for _, t := range totals {
		labelCell, _ := excelize.CoordinatesToCellName(1, row)
		valueCell, _ := excelize.CoordinatesToCellName(4, row)
		if err := f.SetCellValue(exportSheet, labelCell, t[0]); err != nil {
			return fmt.Errorf("writing totals: %w", err)
		}
		if err := f.SetCellValue(exportSheet, valueCell, t[1]); err != nil {
			return fmt.Errorf("writing totals: %w", err)
		}
		row++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
