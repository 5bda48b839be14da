package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

const sheetName = "Transactions"

// Spreadsheet renders the ledger as an xlsx workbook.
type Spreadsheet struct {
	cal ledger.Calendar
}

// NewSpreadsheet builds a spreadsheet renderer.
func NewSpreadsheet(cal ledger.Calendar) *Spreadsheet {
	return &Spreadsheet{cal: cal}
}

// Render writes one header row and one row per entry.
func (s *Spreadsheet) Render(_ context.Context, rep Report) (Document, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return Document{}, fmt.Errorf("export: sheet: %w", err)
	}
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return Document{}, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return Document{}, err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "I1", bold)
	}
	_ = f.SetColWidth(sheetName, "C", "C", 32)

	for r, data := range rowsOf(s.cal, rep.Entries) {
		for c, v := range data.values() {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return Document{}, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return Document{}, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Document{}, fmt.Errorf("export: write workbook: %w", err)
	}
	return Document{
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Extension:   "xlsx",
		Data:        buf.Bytes(),
	}, nil
}
