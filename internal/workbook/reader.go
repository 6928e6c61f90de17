// Package workbook reads the uploaded spreadsheets and renders the
// consolidated payment workbook.
package workbook

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/columns"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/logger"
)

// MaxHeaderSkip bounds how many leading rows header detection looks at.
const MaxHeaderSkip = 10

// ReadRows returns every row of sheet as unformatted strings. An empty sheet
// name reads the first sheet. Dates come back as spreadsheet serials.
func ReadRows(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ReadRows: open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("ReadRows: workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("ReadRows: sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// ReadPaymentReport reads the payment report and splits it at the detected
// header row.
func ReadPaymentReport(ctx context.Context, r io.Reader) (columns.Table, error) {
	rows, err := ReadRows(r, "")
	if err != nil {
		return columns.Table{}, err
	}
	if len(rows) == 0 {
		return columns.Table{}, fmt.Errorf("ReadPaymentReport: empty sheet")
	}

	headerRow := columns.DetectHeaderRow(rows, columns.CriticalColumns, MaxHeaderSkip)
	log := logger.FromContext(ctx)
	log.Debug().
		Int("header_row", headerRow).
		Int("rows", len(rows)).
		Msg("Payment report read")
	return columns.NewTable(rows, headerRow), nil
}

// ReadAbsoluteReport reads the absolute report, whose header is the first
// row.
func ReadAbsoluteReport(r io.Reader) (columns.Table, error) {
	rows, err := ReadRows(r, "")
	if err != nil {
		return columns.Table{}, err
	}
	return columns.NewTable(rows, 0), nil
}
