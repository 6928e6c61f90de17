package workbook

import (
	"fmt"
	"io"
	"strings"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/columns"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/fiscal"
)

// Budget sheet headers, matched case-insensitively. The fiscal year column
// is optional and derived from the date when absent.
var budgetHeaders = []string{"fecha", "tipo", "area", "monto"}

// ReadBudget reads a budget sheet with one row per area, type and month.
// Rows without a parseable date are skipped.
func ReadBudget(r io.Reader) ([]domain.BudgetRow, error) {
	rows, err := ReadRows(r, "")
	if err != nil {
		return nil, err
	}
	t := columns.NewTable(rows, 0)

	col := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		col[strings.ToLower(h)] = i
	}
	for _, h := range budgetHeaders {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("ReadBudget: missing column %q", h)
		}
	}
	fyCol, hasFY := col["anio_fiscal"]
	if !hasFY {
		fyCol = -1
	}

	var out []domain.BudgetRow
	for i := range t.Rows {
		d, ok := fiscal.ParseDate(t.Cell(i, col["fecha"]))
		if !ok {
			continue
		}
		fy := t.Cell(i, fyCol)
		if fy == "" {
			fy = fiscal.FiscalYear(d)
		}
		out = append(out, domain.BudgetRow{
			FiscalYear: fy,
			Month:      fiscal.FirstOfMonth(d).String(),
			Type:       strings.ToUpper(t.Cell(i, col["tipo"])),
			Area:       strings.ToUpper(t.Cell(i, col["area"])),
			Amount:     columns.ParseAmount(t.Cell(i, col["monto"])),
		})
	}
	return out, nil
}
