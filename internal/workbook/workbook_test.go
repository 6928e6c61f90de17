package workbook

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/columns"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/domain"
	"github.com/KiloByteLombardo/ftd-tf-veco-cxp-back-capex-consolidated-payment/internal/report"
)

func buildInput(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestReadPaymentReportDetectsHeader(t *testing.T) {
	header := make([]interface{}, len(columns.InputHeaders))
	for i, h := range columns.InputHeaders {
		header[i] = h
	}
	data := make([]interface{}, len(columns.InputHeaders))
	for i := range data {
		data[i] = ""
	}
	data[columns.InvoiceNumber] = "F-001"
	data[columns.Supplier] = "ACME"
	data[columns.Amount] = 1000
	data[columns.Currency] = "VES"

	buf := buildInput(t, [][]interface{}{
		{"Reporte de pagos"},
		{"Generado", "2025-10-17"},
		header,
		data,
	})

	table, err := ReadPaymentReport(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, "Numero de Factura", table.Header[0])
	require.Len(t, table.Rows, 1)

	m, err := columns.ResolveInput(table.Header)
	require.NoError(t, err)
	assert.Equal(t, "1000", table.Cell(0, m.Col(columns.Amount)))
	assert.Equal(t, "F-001", table.Cell(0, m.Col(columns.InvoiceNumber)))
}

func TestReadRowsRejectsGarbage(t *testing.T) {
	_, err := ReadRows(bytes.NewBufferString("not a workbook"), "")
	assert.Error(t, err)
}

func sampleReport() report.Report {
	rec := domain.EnrichedRecord{
		PaymentRecord: domain.PaymentRecord{
			InvoiceNumber: "F-001",
			Supplier:      "ACME",
			Amount:        1000,
			Currency:      "VES",
			Priority:      78,
		},
		ID:             "abc",
		USDAmount:      10,
		Category:       domain.CategoryCAPEX,
		CapexPayable:   10,
		PaymentMethod:  "VES",
		Week:           3,
		MonthName:      "OCTUBRE",
		FiscalYear:     "2025-2026",
		CapexType:      domain.CapexOrdinary,
		OrdinaryAmount: 10,
		Area:           "MARKETING",
	}
	period := report.Period{MonthName: "OCTUBRE", FiscalYear: "2025-2026"}

	return report.Report{
		Batch:  []domain.EnrichedRecord{rec},
		Detail: []domain.EnrichedRecord{rec, rec},
		Paid:   report.PaidByReceipt([]domain.EnrichedRecord{rec}, period),
		Budget: report.BuildBudgetPivot([]domain.BudgetRow{
			{Month: "2025-10-01", Type: domain.VarianceOrdinary, Area: "MARKETING", Amount: 100},
		}),
		Variance: []domain.VarianceRow{
			{Area: "DIR CONSTRUCCIÓN Y PROYECTOS", Type: domain.VarianceExtraordinary, Budget: 50, Difference: -50},
			{Area: "MARKETING", Type: domain.VarianceOrdinary, Budget: 100, Executed: 10, Difference: -90},
		},
		Titles: report.Titles{Remainder: "Remanente SEP-25", Budget: "Presupuesto OCT-25", Executed: "Ejecutado OCT-25", Difference: "Diferencia"},
	}
}

func TestRenderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer().Render(context.Background(), &buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetBatch, SheetDetail, SheetPaid, SheetBudget}, f.GetSheetList())

	batch, err := f.GetRows(SheetBatch)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Len(t, batch[0], 49)
	assert.Equal(t, "AÑO FISCAL", batch[0][48])
	assert.Equal(t, "78", batch[1][columns.Priority])
	assert.Equal(t, "MARKETING", batch[1][45])

	detail, err := f.GetRows(SheetDetail)
	require.NoError(t, err)
	assert.Len(t, detail, 3)

	title, err := f.GetCellValue(SheetPaid, "A1")
	require.NoError(t, err)
	assert.Equal(t, report.TitleByMonth, title)

	budgetTitle, err := f.GetCellValue(SheetBudget, "A1")
	require.NoError(t, err)
	assert.Equal(t, report.BudgetTitle, budgetTitle)

	varianceTitle, err := f.GetCellValue(SheetBudget, "A25")
	require.NoError(t, err)
	assert.Equal(t, report.VarianceTitle, varianceTitle)

	remainder, err := f.GetCellValue(SheetBudget, "B26")
	require.NoError(t, err)
	assert.Equal(t, "Remanente SEP-25", remainder)

	sep, err := f.GetCellValue(SheetBudget, "A27")
	require.NoError(t, err)
	assert.Equal(t, "--- CAPEX EXTRAORDINARIO ---", sep)

	sep, err = f.GetCellValue(SheetBudget, "A30")
	require.NoError(t, err)
	assert.Equal(t, "--- CAPEX ORDINARIO ---", sep)

	total, err := f.GetCellValue(SheetBudget, "A32")
	require.NoError(t, err)
	assert.Equal(t, "TOTAL", total)

	props, err := f.GetSheetProps(SheetBatch)
	require.NoError(t, err)
	require.NotNil(t, props.TabColorRGB)
	assert.Contains(t, *props.TabColorRGB, tabGreen)
}

func TestReadBudget(t *testing.T) {
	buf := buildInput(t, [][]interface{}{
		{"Fecha", "Tipo", "Area", "Monto"},
		{"2025-10-15", "capex ordinario", "marketing", "1.500,50"},
		{"2026-02-01", "CAPEX EXTRAORDINARIO", "TI", 300},
		{"", "CAPEX ORDINARIO", "TI", 10},
	})

	rows, err := ReadBudget(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, domain.BudgetRow{
		FiscalYear: "2025-2026",
		Month:      "2025-10-01",
		Type:       "CAPEX ORDINARIO",
		Area:       "MARKETING",
		Amount:     1500.50,
	}, rows[0])
	assert.Equal(t, "2026-02-01", rows[1].Month)
	assert.Equal(t, "2025-2026", rows[1].FiscalYear)
}

func TestReadBudget_MissingColumn(t *testing.T) {
	buf := buildInput(t, [][]interface{}{{"Fecha", "Tipo", "Monto"}})

	_, err := ReadBudget(buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"area"`)
}
